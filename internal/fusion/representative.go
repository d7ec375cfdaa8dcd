package fusion

import "strings"

// Representative picks the dominant top emotion among a chronologically
// ordered list of composites, e.g. all recordings of one day.
//
// The most frequent label wins; ties go to the label that appeared first.
// Placeholder values ("", "unknown", "null", "none") are only considered when
// nothing else is present. It returns "" for an empty list.
func Representative(topEmotions []string) string {
	if len(topEmotions) == 0 {
		return ""
	}

	known := make([]string, 0, len(topEmotions))
	for _, e := range topEmotions {
		if !isPlaceholder(e) {
			known = append(known, e)
		}
	}
	if len(known) == 0 {
		known = topEmotions
	}

	counts := make(map[string]int, NumLabels)
	order := make([]string, 0, NumLabels)
	for _, e := range known {
		if counts[e] == 0 {
			order = append(order, e)
		}
		counts[e]++
	}

	best := order[0]
	for _, e := range order[1:] {
		if counts[e] > counts[best] {
			best = e
		}
	}
	return best
}

func isPlaceholder(e string) bool {
	switch strings.ToLower(strings.TrimSpace(e)) {
	case "", "unknown", "null", "none":
		return true
	}
	return false
}
