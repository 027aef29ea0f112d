package chatbot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"docchat/internal/config"
	"docchat/internal/models"
	"docchat/internal/storage"
	"docchat/internal/store"
)

type fakeModel struct {
	resp     string
	err      error
	messages []llms.MessageContent
}

func (m *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.messages = messages
	if m.err != nil {
		return nil, m.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: m.resp}}}, nil
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return m.resp, m.err
}

type fakeEmbedder struct {
	err error
}

func (e *fakeEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func (e *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	return []float32{1, 0, 0}, nil
}

type stubRetriever struct {
	params  []store.SearchParams
	matches []models.SimilarityMatch
	err     error
}

func (s *stubRetriever) Search(ctx context.Context, params store.SearchParams) ([]models.SimilarityMatch, error) {
	s.params = append(s.params, params)
	return s.matches, s.err
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.ApplyDefaults()
	return cfg
}

func writeTestDocument(t *testing.T, baseDir, documentPath string) {
	t.Helper()
	full := filepath.Join(baseDir, filepath.FromSlash(documentPath))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte("%PDF-1.4 fake"), 0o644))
}

func TestAnswerStripsReferencesAndScopesSearch(t *testing.T) {
	baseDir := t.TempDir()
	writeTestDocument(t, baseDir, "alice/doc.pdf")

	model := &fakeModel{resp: "The answer is clear (page 2).\n\nReferences\n1. Something et al."}
	retriever := &stubRetriever{matches: []models.SimilarityMatch{
		{ID: "c1", PageNumber: 2, Text: "relevant passage"},
	}}
	svc := NewService(model, &fakeEmbedder{}, retriever, storage.NewLocalStore(baseDir), testConfig())

	answer := svc.Answer(context.Background(), "alice/doc.pdf", "alice", "What is the answer?", nil)

	assert.Equal(t, "The answer is clear (page 2).", answer.Text)

	require.Len(t, retriever.params, 1)
	p := retriever.params[0]
	assert.Equal(t, "alice", p.UserID)
	assert.Equal(t, "alice/doc.pdf", p.DocumentPath)
	assert.Equal(t, config.DefaultSearchLimit, p.Limit)
	assert.Equal(t, config.DefaultSearchThreshold, p.Threshold)

	// The model got exactly one human message carrying prompt text and the
	// document bytes.
	require.Len(t, model.messages, 1)
	assert.Equal(t, llms.ChatMessageTypeHuman, model.messages[0].Role)
	assert.Len(t, model.messages[0].Parts, 2)
}

func TestAnswerScopesSearchToGivenUser(t *testing.T) {
	baseDir := t.TempDir()
	writeTestDocument(t, baseDir, "shared/doc.pdf")

	// The document path does not start with the user ID; retrieval must
	// still be scoped to the caller's user, not a path segment.
	retriever := &stubRetriever{}
	svc := NewService(&fakeModel{resp: "ok"}, &fakeEmbedder{}, retriever, storage.NewLocalStore(baseDir), testConfig())

	svc.Answer(context.Background(), "shared/doc.pdf", "alice", "question", nil)

	require.Len(t, retriever.params, 1)
	assert.Equal(t, "alice", retriever.params[0].UserID)
	assert.Equal(t, "shared/doc.pdf", retriever.params[0].DocumentPath)
}

func TestAnswerFetchErrorBecomesUserMessage(t *testing.T) {
	svc := NewService(&fakeModel{resp: "unused"}, &fakeEmbedder{}, &stubRetriever{},
		storage.NewLocalStore(t.TempDir()), testConfig())

	answer := svc.Answer(context.Background(), "alice/missing.pdf", "alice", "question", nil)

	assert.Contains(t, answer.Text, "I'm sorry")
	assert.Empty(t, answer.Citations)
}

func TestAnswerModelErrorBecomesUserMessage(t *testing.T) {
	baseDir := t.TempDir()
	writeTestDocument(t, baseDir, "alice/doc.pdf")

	svc := NewService(&fakeModel{err: errors.New("quota exceeded")}, &fakeEmbedder{}, &stubRetriever{},
		storage.NewLocalStore(baseDir), testConfig())

	answer := svc.Answer(context.Background(), "alice/doc.pdf", "alice", "question", nil)

	assert.Contains(t, answer.Text, "I'm sorry")
	assert.Contains(t, answer.Text, "quota exceeded")
}

func TestAnswerRetrievalFailureFallsBackToFullDocument(t *testing.T) {
	baseDir := t.TempDir()
	writeTestDocument(t, baseDir, "alice/doc.pdf")

	model := &fakeModel{resp: "Answered from the full document."}
	retriever := &stubRetriever{err: errors.New("index offline")}
	svc := NewService(model, &fakeEmbedder{}, retriever, storage.NewLocalStore(baseDir), testConfig())

	answer := svc.Answer(context.Background(), "alice/doc.pdf", "alice", "question", nil)

	assert.Equal(t, "Answered from the full document.", answer.Text)
}

func TestAnswerEmbeddingFailureSkipsRetrieval(t *testing.T) {
	baseDir := t.TempDir()
	writeTestDocument(t, baseDir, "alice/doc.pdf")

	retriever := &stubRetriever{}
	svc := NewService(&fakeModel{resp: "Still answered."}, &fakeEmbedder{err: errors.New("embedding down")},
		retriever, storage.NewLocalStore(baseDir), testConfig())

	answer := svc.Answer(context.Background(), "alice/doc.pdf", "alice", "question", nil)

	assert.Equal(t, "Still answered.", answer.Text)
	assert.Empty(t, retriever.params)
}
