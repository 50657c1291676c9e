package grouping

import "github.com/lueurxax/telegram-post-ranker/internal/core/domain"

// SelectWindow returns a page of posts counted over textful posts only.
// posts must be ordered oldest first; the newest offset textful posts are
// skipped and the next limit textful posts are kept, together with the
// textless posts lying between them. Selection stops as soon as the limit is
// reached, so textless posts older than the last kept textful post are dropped.
// The result keeps oldest-first order.
func SelectWindow(posts []domain.LogicalPost, limit, offset int) []domain.LogicalPost {
	if limit <= 0 || len(posts) == 0 {
		return nil
	}

	picked := make([]domain.LogicalPost, 0, limit)
	skipped, taken := 0, 0

	for i := len(posts) - 1; i >= 0; i-- {
		post := posts[i]
		textful := post.HasText()

		if skipped < offset {
			// Textless posts newer than the window are dropped along with skipped ones.
			if textful {
				skipped++
			}

			continue
		}

		picked = append(picked, post)

		if textful {
			taken++
			if taken >= limit {
				break
			}
		}
	}

	reverse(picked)

	return picked
}

func reverse(posts []domain.LogicalPost) {
	for i, j := 0, len(posts)-1; i < j; i, j = i+1, j-1 {
		posts[i], posts[j] = posts[j], posts[i]
	}
}
