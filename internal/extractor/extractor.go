package extractor

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog/log"

	"docchat/internal/models"
)

const (
	// Vertical movement beyond this many page units starts a new line.
	lineBreakYDelta = 5.0
	// Height assigned to a run when neither the font nor the vertical
	// delta to the previous run gives one.
	defaultRunHeight = 10.0
)

// rawRun is a text run in source order before line assembly.
type rawRun struct {
	text       string
	x, y, w, h float64
	eol        bool
}

// ExtractPages parses PDF bytes and returns, for each page, the
// concatenated text and its positioned runs. A page that fails to parse is
// logged and yields an empty page; it never aborts the document.
func ExtractPages(data []byte) ([]models.PageContent, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	numPages := reader.NumPage()
	pages := make([]models.PageContent, 0, numPages)
	for i := 1; i <= numPages; i++ {
		pc, err := extractPage(reader, i)
		if err != nil {
			log.Error().Err(err).Int("page", i).Msg("Error extracting page, continuing")
			pc = models.PageContent{PageNumber: i}
		}
		pages = append(pages, pc)
	}
	return pages, nil
}

// extractPage reads a single page. The pdf library panics on some malformed
// content streams, so the failure is recovered here and scoped to the page.
func extractPage(r *pdf.Reader, pageNumber int) (pc models.PageContent, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("extract page %d: %v", pageNumber, rec)
		}
	}()

	pc = models.PageContent{PageNumber: pageNumber}
	page := r.Page(pageNumber)
	if page.V.IsNull() {
		return pc, nil
	}

	content := page.Content()
	runs := make([]rawRun, 0, len(content.Text))
	for _, t := range content.Text {
		runs = append(runs, rawRun{text: t.S, x: t.X, y: t.Y, w: t.W, h: t.FontSize})
	}

	pc.Text, pc.Runs = assembleRuns(runs, pageNumber)
	return pc, nil
}

// assembleRuns concatenates runs into page text, inserting a newline when
// the vertical position jumps and a space on an explicit end-of-line, and
// stamps each run with its starting offset in the assembled text.
func assembleRuns(runs []rawRun, pageNumber int) (string, []models.PositionRun) {
	var b strings.Builder
	positions := make([]models.PositionRun, 0, len(runs))

	var lastY float64
	haveLast := false
	textIndex := 0

	for _, r := range runs {
		if haveLast && math.Abs(r.y-lastY) > lineBreakYDelta {
			b.WriteByte('\n')
			textIndex++
		} else if r.eol {
			b.WriteByte(' ')
			textIndex++
		}

		height := r.h
		if height == 0 {
			if haveLast {
				height = math.Abs(r.y - lastY)
			} else {
				height = defaultRunHeight
			}
		}

		positions = append(positions, models.PositionRun{
			Text:       r.text,
			PageNumber: pageNumber,
			Left:       r.x,
			Top:        r.y,
			Width:      r.w,
			Height:     height,
			Transform:  []float64{1, 0, 0, 1, r.x, r.y},
			TextIndex:  textIndex,
		})

		b.WriteString(r.text)
		textIndex += len(r.text)
		lastY = r.y
		haveLast = true
	}

	return b.String(), positions
}
