// internal/adapter/social/keywords.go

package social

import (
	"sort"
	"strings"
	"unicode"

	"tagpulse/internal/domain/trend"
)

// minKeywordLength is the length a title word must exceed to count as a
// pseudo-hashtag.
const minKeywordLength = 4

// Keywords returns the pseudo-hashtags of a title in order of appearance,
// repeats included. Words are stripped to ASCII letters and digits,
// lowercased and kept when longer than four characters.
func Keywords(title string) []string {
	var out []string
	for _, w := range strings.Fields(title) {
		w = strings.Map(func(r rune) rune {
			if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
				return unicode.ToLower(r)
			}
			return -1
		}, w)
		if len(w) > minKeywordLength {
			out = append(out, "#"+w)
		}
	}
	return out
}

// ExtractHashtags returns the n most frequent pseudo-hashtags across all
// post titles. Equal frequencies keep first-seen order.
func ExtractHashtags(posts []RedditPost, n int) []string {
	counts := make(map[string]int)
	var seen []string
	for _, p := range posts {
		for _, k := range Keywords(p.Title) {
			if counts[k] == 0 {
				seen = append(seen, k)
			}
			counts[k]++
		}
	}

	sort.SliceStable(seen, func(i, j int) bool {
		return counts[seen[i]] > counts[seen[j]]
	})
	if n > 0 && len(seen) > n {
		seen = seen[:n]
	}
	return seen
}

// ItemsFromPosts turns posts into trend items labelled with the keywords of
// their titles.
func ItemsFromPosts(posts []RedditPost) []trend.Item {
	items := make([]trend.Item, 0, len(posts))
	for _, p := range posts {
		labels := Keywords(p.Title)
		if labels == nil {
			labels = []string{}
		}
		items = append(items, trend.Item{ID: p.ID, Labels: labels})
	}
	return items
}
