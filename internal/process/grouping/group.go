// Package grouping rebuilds logical posts from raw fragments and pages
// through them by textful count.
package grouping

import (
	"sort"
	"strings"

	"github.com/lueurxax/telegram-post-ranker/internal/core/domain"
)

// Group reconstructs logical posts: fragments sharing a GroupID form one album,
// every other fragment is a post of its own. The result is ordered oldest first.
func Group(fragments []domain.RawFragment) []domain.LogicalPost {
	if len(fragments) == 0 {
		return nil
	}

	albums := make(map[int64][]domain.RawFragment)
	posts := make([]domain.LogicalPost, 0, len(fragments))

	for _, f := range fragments {
		if f.GroupID != 0 {
			albums[f.GroupID] = append(albums[f.GroupID], f)
			continue
		}

		posts = append(posts, single(f))
	}

	for groupID, members := range albums {
		posts = append(posts, album(groupID, members))
	}

	sort.Slice(posts, func(i, j int) bool {
		return posts[i].FirstID() < posts[j].FirstID()
	})

	return posts
}

func single(f domain.RawFragment) domain.LogicalPost {
	post := domain.LogicalPost{
		MemberIDs: []int64{f.ID},
		HasMedia:  f.HasMedia,
	}

	if !isBlank(f.Text) {
		post.Text = f.Text
		post.CaptionSourceID = f.ID
	}

	return post
}

func album(groupID int64, members []domain.RawFragment) domain.LogicalPost {
	sort.Slice(members, func(i, j int) bool {
		return members[i].ID < members[j].ID
	})

	post := domain.LogicalPost{
		MemberIDs: make([]int64, 0, len(members)),
		GroupID:   groupID,
	}

	captioned := false

	for _, m := range members {
		post.MemberIDs = append(post.MemberIDs, m.ID)
		post.HasMedia = post.HasMedia || m.HasMedia

		if !captioned && !isBlank(m.Text) {
			post.Text = m.Text
			post.CaptionSourceID = m.ID
			captioned = true
		}
	}

	return post
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
