package docinfo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"

	"docchat/internal/config"
	"docchat/internal/llmservice"
)

// DocumentMetadata is the bibliographic information extracted from a
// document. Missing fields stay empty strings.
type DocumentMetadata struct {
	Title           string `json:"title"`
	Authors         string `json:"authors"`
	PublicationDate string `json:"publication_date"`
	Publisher       string `json:"publisher"`
	DocumentType    string `json:"document_type"`
	Keywords        string `json:"keywords"`
}

// DocumentInfo bundles everything extracted from a document in one call:
// metadata, a one-paragraph summary, and suggested starter questions.
type DocumentInfo struct {
	Metadata  DocumentMetadata `json:"metadata"`
	Summary   string           `json:"summary"`
	Questions []string         `json:"questions"`
}

const combinedInfoPrompt = `Analyze this PDF document and return a single valid JSON object with exactly this shape:

{
  "metadata": {
    "title": "",
    "authors": "",
    "publication_date": "",
    "publisher": "",
    "document_type": "",
    "keywords": ""
  },
  "summary": "",
  "questions": ["", "", "", "", ""]
}

Rules:
- For metadata: if a field is not found, include the key with an empty string value.
- For summary: a comprehensive, detailed summary in a single paragraph of 4-6 sentences. Do NOT use introductory phrases like "This document" or "The PDF".
- For questions: 5 short, simple questions about the document's content. Return only the plain questions without prefixes, labels, or numbers.
- Return ONLY the JSON object, no surrounding text.`

// Extract runs one combined generative call against the document bytes and
// parses the structured response. A parse failure degrades to an empty
// DocumentInfo rather than an error: document info is a nicety, never a
// gate on upload.
func Extract(ctx context.Context, model llms.Model, cfg *config.ChatModelConfig, pdfBytes []byte) DocumentInfo {
	text, err := llmservice.GenerateWithDocument(ctx, model, cfg, combinedInfoPrompt, pdfBytes)
	if err != nil {
		log.Error().Err(err).Msg("Error extracting document info")
		return DocumentInfo{}
	}

	info, err := parseInfoResponse(text)
	if err != nil {
		log.Warn().Err(err).Msg("Could not parse document info response")
		return DocumentInfo{}
	}
	return info
}

// parseInfoResponse decodes the model's JSON answer, tolerating the
// markdown code fence models tend to wrap it in.
func parseInfoResponse(text string) (DocumentInfo, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if i := strings.LastIndex(text, "```"); i >= 0 {
			text = text[:i]
		}
		text = strings.TrimSpace(text)
	}

	var info DocumentInfo
	if err := json.Unmarshal([]byte(text), &info); err != nil {
		return DocumentInfo{}, fmt.Errorf("decode document info: %v", err)
	}
	return info, nil
}
