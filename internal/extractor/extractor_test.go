package extractor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat/internal/models"
)

func TestExtractPagesRejectsNonPDF(t *testing.T) {
	_, err := ExtractPages([]byte("definitely not a pdf"))
	assert.Error(t, err)
}

func TestAssembleRunsSameLine(t *testing.T) {
	runs := []rawRun{
		{text: "Hello ", x: 10, y: 700, w: 50, h: 12},
		{text: "world", x: 60, y: 700, w: 40, h: 12},
	}

	text, positions := assembleRuns(runs, 1)

	assert.Equal(t, "Hello world", text)
	require.Len(t, positions, 2)
	assert.Equal(t, 0, positions[0].TextIndex)
	assert.Equal(t, 6, positions[1].TextIndex)
	assert.Equal(t, 12.0, positions[0].Height)
}

func TestAssembleRunsLineBreakOnVerticalJump(t *testing.T) {
	runs := []rawRun{
		{text: "First line", x: 10, y: 700, w: 80, h: 12},
		{text: "Second line", x: 10, y: 680, w: 90, h: 12},
	}

	text, positions := assembleRuns(runs, 1)

	assert.Equal(t, "First line\nSecond line", text)
	require.Len(t, positions, 2)
	// The newline shifts the second run's offset past it.
	assert.Equal(t, 11, positions[1].TextIndex)
	assert.Equal(t, "Second line", text[positions[1].TextIndex:positions[1].TextIndex+len("Second line")])
}

func TestAssembleRunsSmallJitterStaysOnLine(t *testing.T) {
	runs := []rawRun{
		{text: "base", x: 10, y: 700, w: 30, h: 10},
		{text: "line", x: 40, y: 697, w: 30, h: 10},
	}

	text, _ := assembleRuns(runs, 1)
	assert.Equal(t, "baseline", text)
}

func TestAssembleRunsSpaceOnEOL(t *testing.T) {
	runs := []rawRun{
		{text: "a", x: 10, y: 700, w: 5, h: 10},
		{text: "b", x: 15, y: 700, w: 5, h: 10, eol: true},
	}

	text, positions := assembleRuns(runs, 1)

	assert.Equal(t, "a b", text)
	assert.Equal(t, 2, positions[1].TextIndex)
}

func TestAssembleRunsHeightFallbacks(t *testing.T) {
	// No font size and no previous run: the default height applies.
	_, positions := assembleRuns([]rawRun{{text: "A", x: 10, y: 700}}, 1)
	require.Len(t, positions, 1)
	assert.Equal(t, defaultRunHeight, positions[0].Height)

	// No font size but a previous run: the vertical delta stands in.
	_, positions = assembleRuns([]rawRun{
		{text: "A", x: 10, y: 700, h: 12},
		{text: "B", x: 10, y: 688},
	}, 1)
	require.Len(t, positions, 2)
	assert.Equal(t, 12.0, positions[1].Height)
}

func TestAssembleRunsTransform(t *testing.T) {
	_, positions := assembleRuns([]rawRun{{text: "A", x: 42, y: 99, w: 7, h: 11}}, 3)

	require.Len(t, positions, 1)
	assert.Equal(t, []float64{1, 0, 0, 1, 42, 99}, positions[0].Transform)
	assert.Equal(t, 3, positions[0].PageNumber)
}

func TestDetectHeaders(t *testing.T) {
	pages := []models.PageContent{
		{PageNumber: 1, Text: "INTRODUCTION\nThis is a normal sentence.\nRelated Work\nmore body text here"},
		{PageNumber: 2, Text: "CONCLUSION\nThe end."},
	}

	headers := DetectHeaders(pages)

	require.Len(t, headers, 3)
	assert.Equal(t, models.SectionHeader{Text: "INTRODUCTION", PageNumber: 1, Index: 0}, headers[0])
	assert.Equal(t, models.SectionHeader{Text: "Related Work", PageNumber: 1, Index: 2}, headers[1])
	assert.Equal(t, models.SectionHeader{Text: "CONCLUSION", PageNumber: 2, Index: 0}, headers[2])
}

func TestIsHeaderLine(t *testing.T) {
	assert.True(t, isHeaderLine("INTRODUCTION"))
	assert.True(t, isHeaderLine("Related Work"))
	assert.True(t, isHeaderLine("3 RESULTS"))

	// Terminal punctuation disqualifies.
	assert.False(t, isHeaderLine("This is a normal sentence."))
	assert.False(t, isHeaderLine("Is this a header?"))
	// Lowercase words disqualify.
	assert.False(t, isHeaderLine("a lowercase line of text"))
	// Length bound is strict.
	assert.False(t, isHeaderLine(strings.Repeat("X", 80)))
	assert.True(t, isHeaderLine(strings.Repeat("X", 79)))
	assert.False(t, isHeaderLine(""))
}

func TestIsTitleCase(t *testing.T) {
	assert.True(t, isTitleCase("Related Work"))
	assert.True(t, isTitleCase("Results"))
	assert.False(t, isTitleCase("related work"))
	// A double space yields an empty word and disqualifies the line.
	assert.False(t, isTitleCase("Related  Work"))
}
