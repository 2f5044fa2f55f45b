package services

import "github.com/isdelr/simplecomm-be/internal/models"

// RecommendationLimit is the number of communities suggested at once.
const RecommendationLimit = 3

// Recommend picks up to limit communities the user has not joined. all must
// be in store order. The user's most joined category (ties broken by name)
// is preferred; the rest of the list pads the result in store order.
func Recommend(joinedIDs []string, all []models.Community, limit int) []models.Community {
	out := []models.Community{}
	if limit <= 0 {
		return out
	}

	joined := make(map[string]bool, len(joinedIDs))
	for _, id := range joinedIDs {
		joined[id] = true
	}

	counts := make(map[string]int)
	for _, c := range all {
		if joined[c.ID] {
			counts[c.Category]++
		}
	}

	if len(counts) == 0 {
		for _, c := range all {
			if len(out) == limit {
				break
			}
			if !joined[c.ID] {
				out = append(out, c)
			}
		}
		return out
	}

	top := topCategory(counts)
	picked := make(map[string]bool)
	for _, c := range all {
		if len(out) == limit {
			return out
		}
		if !joined[c.ID] && c.Category == top {
			out = append(out, c)
			picked[c.ID] = true
		}
	}
	for _, c := range all {
		if len(out) == limit {
			break
		}
		if !joined[c.ID] && !picked[c.ID] {
			out = append(out, c)
		}
	}
	return out
}

func topCategory(counts map[string]int) string {
	var top string
	best := 0
	for category, n := range counts {
		if n > best || (n == best && category < top) {
			top, best = category, n
		}
	}
	return top
}
