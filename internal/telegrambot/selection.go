package telegrambot

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/lueurxax/telegram-post-ranker/internal/core/domain"
	apperrors "github.com/lueurxax/telegram-post-ranker/internal/core/errors"
)

const selectAll = "all"

var rangeRe = regexp.MustCompile(`^(\d+)\s*-\s*(\d+)$`)

// selectChats picks the saved chats named by a selection string.
func selectChats(saved []domain.ChatRef, s string) ([]domain.ChatRef, error) {
	idx := ParseIndexSelection(s, len(saved))
	if len(idx) == 0 {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrEmptySelection, s)
	}

	out := make([]domain.ChatRef, 0, len(idx))
	for _, i := range idx {
		out = append(out, saved[i])
	}

	return out, nil
}

// ParseIndexSelection turns a 1-based selection such as "1, 3-5,7" into sorted
// unique 0-based indexes below total. Ranges may be written in either order,
// out-of-range numbers are ignored and "all" selects everything.
func ParseIndexSelection(s string, total int) []int {
	s = strings.TrimSpace(s)
	if s == "" || total <= 0 {
		return nil
	}

	if strings.EqualFold(s, selectAll) {
		out := make([]int, total)
		for i := range out {
			out[i] = i
		}

		return out
	}

	selected := make(map[int]struct{})

	add := func(n int) {
		if idx := n - 1; idx >= 0 && idx < total {
			selected[idx] = struct{}{}
		}
	}

	for _, chunk := range strings.Split(s, ",") {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}

		if m := rangeRe.FindStringSubmatch(chunk); m != nil {
			a, errA := strconv.Atoi(m[1])
			b, errB := strconv.Atoi(m[2])

			if errA != nil || errB != nil {
				continue
			}

			if a > b {
				a, b = b, a
			}

			for n := max(a, 1); n <= min(b, total); n++ {
				add(n)
			}

			continue
		}

		if n, err := strconv.Atoi(chunk); err == nil && !strings.HasPrefix(chunk, "+") {
			add(n)
		}
	}

	out := make([]int, 0, len(selected))
	for idx := range selected {
		out = append(out, idx)
	}

	sort.Ints(out)

	return out
}

// ParseParams reads "K" or "K OFFSET". K is clamped to 1..maxK and OFFSET to
// at least 0. Blank or malformed input yields defaultK and 0.
func ParseParams(s string, defaultK, maxK int) (k, offset int) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return defaultK, 0
	}

	k, err := strconv.Atoi(fields[0])
	if err != nil {
		return defaultK, 0
	}

	if len(fields) > 1 {
		offset, err = strconv.Atoi(fields[1])
		if err != nil {
			return defaultK, 0
		}
	}

	k = max(1, k)
	if maxK > 0 {
		k = min(k, maxK)
	}

	return k, max(0, offset)
}
