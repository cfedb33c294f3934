package classify

import (
	"sort"
	"strings"
)

// match pairs a lexicon category with the keyword that selected it.
type match struct {
	Category string
	Keyword  string
}

// matchKeywords scans the lexicon for every keyword occurring as a substring
// of the description and returns the matches ordered by keyword length
// descending, so longer, more specific keywords win ties against shorter
// generic ones. Ties of equal length are broken by category then keyword to
// keep runs deterministic.
func matchKeywords(description string) []match {
	desc := strings.ToLower(description)
	if desc == "" {
		return nil
	}

	categories := make([]string, 0, len(keywordLexicon))
	for name := range keywordLexicon {
		categories = append(categories, name)
	}
	sort.Strings(categories)

	var matches []match
	for _, category := range categories {
		for _, keyword := range keywordLexicon[category] {
			if strings.Contains(desc, strings.ToLower(keyword)) {
				matches = append(matches, match{Category: category, Keyword: keyword})
			}
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		li, lj := len([]rune(matches[i].Keyword)), len([]rune(matches[j].Keyword))
		if li != lj {
			return li > lj
		}
		if matches[i].Category != matches[j].Category {
			return matches[i].Category < matches[j].Category
		}
		return matches[i].Keyword < matches[j].Keyword
	})

	return matches
}
