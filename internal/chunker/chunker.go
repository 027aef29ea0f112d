package chunker

import (
	"regexp"
	"strings"

	"docchat/internal/models"
)

// span is a unit of text (paragraph or sentence) with its character
// offsets in the enclosing section text. Offsets are computed once during
// splitting so position runs can be mapped back without re-searching the
// source string.
type span struct {
	text  string
	start int
	end   int
}

// chunkSpan is a finalized chunk before metadata attachment: its core text
// plus the character range it covers in the section text. Overlapping
// chunks share the carried unit, so ranges of consecutive chunks may
// overlap.
type chunkSpan struct {
	text  string
	start int
	end   int
}

var paragraphSepRe = regexp.MustCompile(`\n\s*\n`)

// SplitPages turns extracted pages into ordered DocumentChunks. Detected
// headers partition a page into sections; within a section, paragraphs are
// greedily accumulated up to chunkSize with a trailing-paragraph overlap
// carry, oversized paragraphs fall back to sentence grouping, and every
// chunk after the first gets a short context snippet from its predecessor.
// ChunkIndex is contiguous across the whole document in extraction order.
func SplitPages(
	pages []models.PageContent,
	headers []models.SectionHeader,
	documentPath, documentName string,
	chunkSize, overlap int,
) []models.DocumentChunk {
	var chunks []models.DocumentChunk
	chunkIndex := 0

	for _, page := range pages {
		for _, sec := range buildSections(page, headers) {
			if strings.TrimSpace(sec.text) == "" {
				continue
			}

			spans := splitTextSpans(sec.text, chunkSize, overlap)
			for i, cs := range spans {
				text := cs.text
				if i > 0 {
					if ctx := contextSnippet(spans[i-1].text, overlap); ctx != "" && !strings.HasPrefix(text, ctx) {
						text = ctx + "\n\n" + text
					}
				}

				startInPage := sec.charStart + cs.start
				endInPage := sec.charStart + cs.end
				runs := selectRuns(page.Runs, startInPage, endInPage)

				chunks = append(chunks, models.DocumentChunk{
					Text:       strings.TrimSpace(text),
					PageNumber: page.PageNumber,
					ChunkIndex: chunkIndex,
					Metadata: models.ChunkMetadata{
						DocumentPath: documentPath,
						DocumentName: documentName,
						PageNumber:   page.PageNumber,
						SectionTitle: sec.title,
						IsTable:      containsTable(cs.text),
						Position: models.ChunkPosition{
							BoundingRect: boundingRect(runs, page.PageNumber),
							TextRanges:   textRanges(runs),
						},
					},
				})
				chunkIndex++
			}
		}
	}
	return chunks
}

// section is a header-delimited region of a page; charStart is its offset
// in the page text.
type section struct {
	text      string
	charStart int
	title     string
}

func buildSections(page models.PageContent, headers []models.SectionHeader) []section {
	var pageHeaders []models.SectionHeader
	for _, h := range headers {
		if h.PageNumber == page.PageNumber {
			pageHeaders = append(pageHeaders, h)
		}
	}
	if len(pageHeaders) == 0 {
		return []section{{text: page.Text}}
	}

	lines := strings.Split(page.Text, "\n")
	sections := make([]section, 0, len(pageHeaders))
	for i, h := range pageHeaders {
		start := h.Index
		end := len(lines)
		if i+1 < len(pageHeaders) {
			end = pageHeaders[i+1].Index
		}
		if start >= len(lines) || start >= end {
			continue
		}
		charStart := 0
		for j := 0; j < start; j++ {
			charStart += len(lines[j]) + 1 // +1 for the newline
		}
		sections = append(sections, section{
			text:      strings.Join(lines[start:end], "\n"),
			charStart: charStart,
			title:     h.Text,
		})
	}
	return sections
}

// splitTextSpans implements the greedy paragraph accumulation. Text at or
// under the chunk size is returned as a single chunk unmodified.
func splitTextSpans(text string, chunkSize, overlap int) []chunkSpan {
	if len(text) <= chunkSize {
		return []chunkSpan{{text: text, start: 0, end: len(text)}}
	}

	paragraphs := paragraphSpans(text)
	var chunks []chunkSpan
	var current []span
	currentLen := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		parts := make([]string, len(current))
		for i, u := range current {
			parts[i] = u.text
		}
		chunks = append(chunks, chunkSpan{
			text:  strings.Join(parts, "\n\n"),
			start: current[0].start,
			end:   current[len(current)-1].end,
		})
	}

	for _, p := range paragraphs {
		// A paragraph that alone exceeds the target is split at sentence
		// boundaries instead.
		if len(p.text) > chunkSize {
			flush()
			current = nil
			currentLen = 0
			chunks = append(chunks, splitLongParagraph(p, chunkSize)...)
			continue
		}

		if currentLen+len(p.text) > chunkSize && len(current) > 0 {
			flush()
			last := current[len(current)-1]
			if len(last.text) < overlap {
				current = []span{last}
				currentLen = len(last.text)
			} else {
				current = nil
				currentLen = 0
			}
		}

		current = append(current, p)
		currentLen += len(p.text)
		if len(current) > 1 {
			currentLen += 2 // paragraph break
		}
	}
	flush()

	return chunks
}

// splitLongParagraph groups sentences greedily, carrying the last sentence
// of a flushed group into the next one for continuity. A paragraph with no
// sentence boundary stays whole.
func splitLongParagraph(paragraph span, chunkSize int) []chunkSpan {
	sentences := sentenceSpans(paragraph)
	var out []chunkSpan
	var group []span
	groupLen := 0

	flush := func() {
		if len(group) == 0 {
			return
		}
		parts := make([]string, len(group))
		for i, s := range group {
			parts[i] = s.text
		}
		out = append(out, chunkSpan{
			text:  strings.Join(parts, " "),
			start: group[0].start,
			end:   group[len(group)-1].end,
		})
	}

	for _, s := range sentences {
		if groupLen+len(s.text) > chunkSize && len(group) > 0 {
			flush()
			if len(group) > 1 {
				last := group[len(group)-1]
				group = []span{last}
				groupLen = len(last.text)
			} else {
				group = nil
				groupLen = 0
			}
		}
		group = append(group, s)
		groupLen += len(s.text)
		if len(group) > 1 {
			groupLen++ // joining space
		}
	}
	flush()

	return out
}

// paragraphSpans splits text at blank-line boundaries, returning trimmed
// paragraphs with their offsets. Empty paragraphs are dropped.
func paragraphSpans(text string) []span {
	seps := paragraphSepRe.FindAllStringIndex(text, -1)
	var out []span
	start := 0
	emit := func(s, e int) {
		for s < e && isSpace(text[s]) {
			s++
		}
		for e > s && isSpace(text[e-1]) {
			e--
		}
		if s < e {
			out = append(out, span{text: text[s:e], start: s, end: e})
		}
	}
	for _, sep := range seps {
		emit(start, sep[0])
		start = sep[1]
	}
	emit(start, len(text))
	return out
}

// sentenceSpans splits a paragraph after `.`, `!` or `?` followed by
// whitespace. Offsets are absolute in the section text.
func sentenceSpans(p span) []span {
	s := p.text
	var out []span
	start := 0
	emit := func(lo, hi int) {
		for lo < hi && isSpace(s[lo]) {
			lo++
		}
		for hi > lo && isSpace(s[hi-1]) {
			hi--
		}
		if lo < hi {
			out = append(out, span{text: s[lo:hi], start: p.start + lo, end: p.start + hi})
		}
	}
	for i := 0; i < len(s)-1; i++ {
		if (s[i] == '.' || s[i] == '!' || s[i] == '?') && isSpace(s[i+1]) {
			emit(start, i+1)
			j := i + 1
			for j < len(s) && isSpace(s[j]) {
				j++
			}
			start = j
			i = j - 1
		}
	}
	emit(start, len(s))
	return out
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}

// contextSnippet returns the last paragraph of the previous chunk, or its
// last sentence when the paragraph is at or over the overlap size.
func contextSnippet(prev string, overlap int) string {
	paras := paragraphSpans(prev)
	if len(paras) == 0 {
		return ""
	}
	last := paras[len(paras)-1]
	if len(last.text) < overlap {
		return last.text
	}
	sents := sentenceSpans(last)
	if len(sents) == 0 {
		return ""
	}
	return sents[len(sents)-1].text
}
