package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"docchat/internal/chunker"
	"docchat/internal/config"
	"docchat/internal/embedding"
	"docchat/internal/extractor"
	"docchat/internal/models"
	"docchat/internal/store"
)

// Pipeline runs document ingestion: extraction, header detection,
// chunking, embedding, and storage.
type Pipeline struct {
	embedder embeddings.Embedder
	chunks   store.ChunkStore
	cfg      *config.Config
}

func NewPipeline(embedder embeddings.Embedder, chunks store.ChunkStore, cfg *config.Config) *Pipeline {
	return &Pipeline{embedder: embedder, chunks: chunks, cfg: cfg}
}

// Process ingests one document synchronously. A document that produces no
// chunks (zero pages, empty pages) is a success with nothing stored, and
// partial embedding coverage still stores whatever was embedded.
func (p *Pipeline) Process(ctx context.Context, data []byte, documentPath, documentName, userID string) error {
	started := time.Now()

	pages, err := extractor.ExtractPages(data)
	if err != nil {
		return fmt.Errorf("extract pages: %w", err)
	}

	headers := extractor.DetectHeaders(pages)
	chunks := chunker.SplitPages(pages, headers, documentPath, documentName,
		p.cfg.RAG.ChunkSize, p.cfg.RAG.ChunkOverlap)

	log.Info().Str("document", documentPath).Int("pages", len(pages)).Int("chunks", len(chunks)).
		Dur("elapsed", time.Since(started)).Msg("Document chunked")

	if len(chunks) == 0 {
		log.Info().Str("document", documentPath).Msg("No chunks to process")
		return nil
	}

	if err := p.storeChunks(ctx, chunks, documentPath, userID); err != nil {
		return err
	}

	log.Info().Str("document", documentPath).Dur("elapsed", time.Since(started)).Msg("Ingestion complete")
	return nil
}

// storeChunks embeds the chunks and replaces the document's stored set.
// The replace runs even when no batch produced embeddings: a re-ingestion
// must never leave the previous version's chunks behind, so a fully failed
// embedding pass clears the document rather than serving stale passages.
func (p *Pipeline) storeChunks(ctx context.Context, chunks []models.DocumentChunk, documentPath, userID string) error {
	embedded := embedding.EmbedChunks(ctx, p.embedder, chunks, p.cfg.Embedder.BatchSize)
	if len(embedded) < len(chunks) {
		log.Warn().Str("document", documentPath).Int("embedded", len(embedded)).Int("chunks", len(chunks)).
			Msg("Partial embedding coverage")
	}

	records := make([]store.ChunkRecord, 0, len(embedded))
	for _, ce := range embedded {
		rec, err := store.NewChunkRecord(ce.Chunk, ce.Embedding, userID)
		if err != nil {
			return fmt.Errorf("build chunk record: %w", err)
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		log.Warn().Str("document", documentPath).Msg("No embeddings generated, clearing stored chunks")
	}

	if err := p.chunks.ReplaceDocumentChunks(ctx, userID, documentPath, records); err != nil {
		return fmt.Errorf("store chunks: %w", err)
	}

	log.Info().Str("document", documentPath).Int("stored", len(records)).Msg("Chunks stored")
	return nil
}

// ProcessDetached runs Process on its own goroutine. The upload path must
// not block on ingestion or fail because of it, so errors and panics stop
// here with a log line.
func (p *Pipeline) ProcessDetached(ctx context.Context, data []byte, documentPath, documentName, userID string) {
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error().Interface("panic", rec).Str("document", documentPath).
					Msg("Ingestion panicked")
			}
		}()
		if err := p.Process(ctx, data, documentPath, documentName, userID); err != nil {
			log.Error().Err(err).Str("document", documentPath).Msg("Background ingestion failed")
		}
	}()
}
