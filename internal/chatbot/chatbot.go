package chatbot

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"

	"docchat/internal/config"
	"docchat/internal/embedding"
	"docchat/internal/llmservice"
	"docchat/internal/models"
	"docchat/internal/storage"
	"docchat/internal/store"
)

// Service answers questions about a document by combining retrieved
// passages with the full document as model grounding.
type Service struct {
	model     llms.Model
	embedder  embeddings.Embedder
	retriever store.Retriever
	fetcher   storage.Fetcher
	cfg       *config.Config
}

func NewService(model llms.Model, embedder embeddings.Embedder, retriever store.Retriever, fetcher storage.Fetcher, cfg *config.Config) *Service {
	return &Service{
		model:     model,
		embedder:  embedder,
		retriever: retriever,
		fetcher:   fetcher,
		cfg:       cfg,
	}
}

// Answer responds to a user query about the document at documentPath,
// with retrieval scoped to the chunks userID owns. Every failure is
// converted into a user-facing message; this boundary never returns an
// error to the caller.
func (s *Service) Answer(ctx context.Context, documentPath, userID, userQuery string, history []models.ConversationTurn) models.Answer {
	log.Info().Str("document", documentPath).Str("user", userID).Int("history", len(history)).Msg("Answering document query")

	matches := s.relevantChunks(ctx, userQuery, userID, documentPath)
	log.Debug().Int("chunks", len(matches)).Msg("Retrieved relevant chunks")

	docBytes, err := s.fetcher.Fetch(ctx, documentPath)
	if err != nil {
		log.Error().Err(err).Str("document", documentPath).Msg("Error fetching document")
		return errorAnswer(err)
	}

	prompt := buildPrompt(formatHistory(history), formatPassages(matches), userQuery)

	text, err := llmservice.GenerateWithDocument(ctx, s.model, &s.cfg.ChatModel, prompt, docBytes)
	if err != nil {
		log.Error().Err(err).Msg("Error generating answer")
		return errorAnswer(err)
	}

	text = strings.TrimSpace(stripReferences(text))
	if pages := citedPages(text); len(pages) > 0 {
		log.Debug().Ints("pages", pages).Msg("Response cites pages")
	}

	return models.Answer{Text: text}
}

// relevantChunks is best-effort: any embedding or search failure yields an
// empty result, which drops the generator back to whole-document grounding
// instead of failing the request.
func (s *Service) relevantChunks(ctx context.Context, query, userID, documentPath string) []models.SimilarityMatch {
	queryEmbedding, err := embedding.EmbedQuery(ctx, s.embedder, query)
	if err != nil {
		log.Error().Err(err).Msg("Error embedding query, falling back to full document")
		return nil
	}

	matches, err := s.retriever.Search(ctx, store.SearchParams{
		Embedding:    queryEmbedding,
		UserID:       userID,
		DocumentPath: documentPath,
		Limit:        s.cfg.RAG.SearchLimit,
		Threshold:    s.cfg.RAG.SearchThreshold,
	})
	if err != nil {
		log.Error().Err(err).Msg("Error searching chunks, falling back to full document")
		return nil
	}
	return matches
}

func errorAnswer(err error) models.Answer {
	return models.Answer{
		Text: fmt.Sprintf("I'm sorry, but I encountered an error while trying to answer your question: %v", err),
	}
}
