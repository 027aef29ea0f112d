package extractor

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"docchat/internal/models"
)

const maxHeaderLength = 80

// DetectHeaders flags lines likely to introduce a new structural section.
// Purely lexical: short lines without terminal punctuation that are either
// ALL CAPS or Title Case. Used to bias chunk boundaries toward document
// structure without a layout-aware model.
func DetectHeaders(pages []models.PageContent) []models.SectionHeader {
	var headers []models.SectionHeader
	for _, page := range pages {
		for idx, line := range strings.Split(page.Text, "\n") {
			trimmed := strings.TrimSpace(line)
			if isHeaderLine(trimmed) {
				headers = append(headers, models.SectionHeader{
					Text:       trimmed,
					PageNumber: page.PageNumber,
					Index:      idx,
				})
			}
		}
	}
	return headers
}

func isHeaderLine(trimmed string) bool {
	if len(trimmed) == 0 || len(trimmed) >= maxHeaderLength {
		return false
	}
	if strings.ContainsRune(".,:;!?", rune(trimmed[len(trimmed)-1])) {
		return false
	}
	return trimmed == strings.ToUpper(trimmed) || isTitleCase(trimmed)
}

// isTitleCase reports whether every space-separated word starts with a
// character that is already in its uppercase form. Consecutive spaces
// produce an empty word and disqualify the line.
func isTitleCase(line string) bool {
	for _, word := range strings.Split(line, " ") {
		if word == "" {
			return false
		}
		r, _ := utf8.DecodeRuneInString(word)
		if r != unicode.ToUpper(r) {
			return false
		}
	}
	return true
}
