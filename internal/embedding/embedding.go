package embedding

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"docchat/internal/config"
	"docchat/internal/models"
)

// ChunkEmbedding pairs a chunk with its generated vector. Chunks whose
// batch failed are absent from the result rather than carrying nil vectors.
type ChunkEmbedding struct {
	Chunk     models.DocumentChunk
	Embedding []float32
}

// NewEmbedder creates an embedder backed by an OpenAI-compatible endpoint.
func NewEmbedder(cfg *config.EmbedderConfig) (*embeddings.EmbedderImpl, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing embedding API key in env %s", cfg.APIKeyEnv)
	}

	opts := []openai.Option{
		openai.WithToken(strings.TrimPrefix(key, "Bearer ")),
		openai.WithEmbeddingModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("init embedding LLM: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}
	return embedder, nil
}

// EmbedChunks generates embeddings for all chunks in sequential batches.
// A failed batch, or a batch whose response length does not match its
// input, is logged and skipped; later batches still run. The result may
// therefore cover only part of the input.
func EmbedChunks(ctx context.Context, embedder embeddings.Embedder, chunks []models.DocumentChunk, batchSize int) []ChunkEmbedding {
	if len(chunks) == 0 {
		log.Info().Msg("No chunks to embed")
		return nil
	}
	if batchSize <= 0 {
		batchSize = config.DefaultBatchSize
	}

	out := make([]ChunkEmbedding, 0, len(chunks))
	batches := (len(chunks) + batchSize - 1) / batchSize

	for start := 0; start < len(chunks); start += batchSize {
		end := start + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]
		batchNum := start/batchSize + 1

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}

		vectors, err := embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			log.Error().Err(err).Int("batch", batchNum).Int("batches", batches).
				Msg("Error embedding batch, skipping")
			continue
		}
		if len(vectors) != len(batch) {
			log.Error().Int("batch", batchNum).Int("want", len(batch)).Int("got", len(vectors)).
				Msg("Embedding count mismatch, skipping batch")
			continue
		}

		for i, c := range batch {
			out = append(out, ChunkEmbedding{Chunk: c, Embedding: vectors[i]})
		}
		log.Debug().Int("batch", batchNum).Int("batches", batches).Msg("Embedded batch")
	}

	return out
}

// EmbedQuery generates a single embedding for query text.
func EmbedQuery(ctx context.Context, embedder embeddings.Embedder, text string) ([]float32, error) {
	vector, err := embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return vector, nil
}
