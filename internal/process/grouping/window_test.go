package grouping

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lueurxax/telegram-post-ranker/internal/core/domain"
)

func textful(id int64) domain.LogicalPost {
	return domain.LogicalPost{MemberIDs: []int64{id}, Text: "post", CaptionSourceID: id}
}

func textless(id int64) domain.LogicalPost {
	return domain.LogicalPost{MemberIDs: []int64{id}, HasMedia: true}
}

func firstIDs(posts []domain.LogicalPost) []int64 {
	ids := make([]int64, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.FirstID())
	}

	return ids
}

func TestSelectWindow(t *testing.T) {
	fiveTextful := []domain.LogicalPost{textful(1), textful(2), textful(3), textful(4), textful(5)}
	mixed := []domain.LogicalPost{textful(1), textless(2), textful(3), textless(4), textful(5), textless(6)}

	tests := []struct {
		name   string
		posts  []domain.LogicalPost
		limit  int
		offset int
		want   []int64
	}{
		{name: "empty input", posts: nil, limit: 5, offset: 0, want: []int64{}},
		{name: "zero limit", posts: fiveTextful, limit: 0, offset: 0, want: []int64{}},
		{name: "negative limit", posts: fiveTextful, limit: -1, offset: 0, want: []int64{}},
		{name: "skips most recent", posts: fiveTextful, limit: 2, offset: 1, want: []int64{3, 4}},
		{name: "latest page", posts: fiveTextful, limit: 3, offset: 0, want: []int64{3, 4, 5}},
		{name: "limit beyond size", posts: fiveTextful, limit: 10, offset: 0, want: []int64{1, 2, 3, 4, 5}},
		{name: "offset beyond textful count", posts: fiveTextful, limit: 2, offset: 7, want: []int64{}},
		{name: "textless carried between textful", posts: mixed, limit: 2, offset: 0, want: []int64{3, 4, 5, 6}},
		{name: "textless newer than window dropped", posts: mixed, limit: 1, offset: 1, want: []int64{3, 4}},
		{name: "only textless", posts: []domain.LogicalPost{textless(1), textless(2)}, limit: 1, offset: 0, want: []int64{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectWindow(tt.posts, tt.limit, tt.offset)
			assert.Equal(t, tt.want, firstIDs(got))
		})
	}
}

// Once the limit is reached selection stops: a textless album fragment that is
// older than the last kept textful post is not emitted, even though it sits
// right next to it.
func TestSelectWindow_StopsAtLimit(t *testing.T) {
	posts := []domain.LogicalPost{textless(1), textful(2), textful(3)}

	got := SelectWindow(posts, 2, 0)

	assert.Equal(t, []int64{2, 3}, firstIDs(got))
}
