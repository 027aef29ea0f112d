package chatbot

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Citations are meant to stay inline, but models occasionally append a
// trailing reference list anyway; it is stripped wholesale.
var referencesRe = regexp.MustCompile(`(?is)\n\n(References|Sources|Citations|Bibliography).*$`)

func stripReferences(text string) string {
	return referencesRe.ReplaceAllString(text, "")
}

var citationRe = regexp.MustCompile(`\(page(?:s)? (\d+(?:-\d+)?)\)`)

// citedPages parses inline (page N) and (pages N-M) citations into the
// sorted set of referenced page numbers. Used for internal tracking only;
// UI highlight citations come from user text selection, not from here.
func citedPages(text string) []int {
	seen := make(map[int]bool)
	for _, m := range citationRe.FindAllStringSubmatch(text, -1) {
		ref := m[1]
		if lo, hi, ok := strings.Cut(ref, "-"); ok {
			start, err1 := strconv.Atoi(lo)
			end, err2 := strconv.Atoi(hi)
			if err1 != nil || err2 != nil {
				continue
			}
			for p := start; p <= end; p++ {
				seen[p] = true
			}
		} else {
			p, err := strconv.Atoi(ref)
			if err != nil {
				continue
			}
			seen[p] = true
		}
	}

	pages := make([]int, 0, len(seen))
	for p := range seen {
		pages = append(pages, p)
	}
	sort.Ints(pages)
	return pages
}
