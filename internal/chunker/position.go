package chunker

import (
	"regexp"
	"strings"

	"docchat/internal/models"
)

// selectRuns picks position runs whose character span overlaps the chunk's
// [start, end) range in the page text.
func selectRuns(runs []models.PositionRun, start, end int) []models.PositionRun {
	var selected []models.PositionRun
	for _, run := range runs {
		runStart := run.TextIndex
		runEnd := runStart + len(run.Text)
		if (runStart >= start && runStart < end) || (runEnd > start && runEnd <= end) {
			selected = append(selected, run)
		}
	}
	return selected
}

// boundingRect computes the minimal enclosing rectangle of the runs.
// With no runs there is nothing to anchor a highlight to, so a small
// placeholder rectangle at the page origin is returned.
func boundingRect(runs []models.PositionRun, pageNumber int) models.Rect {
	if len(runs) == 0 {
		return models.Rect{PageNumber: pageNumber, Left: 0, Top: 0, Width: 100, Height: 20}
	}

	minX, minY := runs[0].Left, runs[0].Top
	maxX, maxY := runs[0].Left+runs[0].Width, runs[0].Top+runs[0].Height
	for _, r := range runs[1:] {
		if r.Left < minX {
			minX = r.Left
		}
		if r.Top < minY {
			minY = r.Top
		}
		if x := r.Left + r.Width; x > maxX {
			maxX = x
		}
		if y := r.Top + r.Height; y > maxY {
			maxY = y
		}
	}
	return models.Rect{
		PageNumber: pageNumber,
		Left:       minX,
		Top:        minY,
		Width:      maxX - minX,
		Height:     maxY - minY,
	}
}

func textRanges(runs []models.PositionRun) []models.Rect {
	if len(runs) == 0 {
		return nil
	}
	ranges := make([]models.Rect, len(runs))
	for i, r := range runs {
		ranges[i] = models.Rect{
			PageNumber: r.PageNumber,
			Left:       r.Left,
			Top:        r.Top,
			Width:      r.Width,
			Height:     r.Height,
		}
	}
	return ranges
}

var multiSpaceRe = regexp.MustCompile(`\s{2,}`)

// containsTable guesses whether the text holds tabular content: several
// pipe-delimited lines, or at least three lines sharing the same
// multi-space column pattern.
func containsTable(text string) bool {
	lines := strings.Split(text, "\n")

	pipeLines := 0
	for _, line := range lines {
		if strings.Contains(line, "|") {
			pipeLines++
		}
	}
	if pipeLines >= 3 {
		return true
	}

	patternCounts := make(map[int]int)
	for _, line := range lines {
		n := len(multiSpaceRe.FindAllString(line, -1))
		if n > 2 {
			patternCounts[n]++
		}
	}
	for _, count := range patternCounts {
		if count >= 3 {
			return true
		}
	}
	return false
}
