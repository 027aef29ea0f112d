package store

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"docchat/internal/helper"
	"docchat/internal/models"
)

// SearchParams scope a similarity search. UserID is mandatory: chunk
// records are exclusively owned by the uploading user. DocumentPath
// narrows the search to a single document when set.
type SearchParams struct {
	Embedding    []float32
	UserID       string
	DocumentPath string
	Limit        int
	Threshold    float64
}

// Retriever answers similarity searches with matches ordered by
// descending similarity, capped at the limit.
type Retriever interface {
	Search(ctx context.Context, params SearchParams) ([]models.SimilarityMatch, error)
}

// ChunkStore persists document chunks with their embeddings.
// ReplaceDocumentChunks removes any prior records for the same
// (user, document) scope before inserting, so exactly one chunk set per
// document exists at any time.
type ChunkStore interface {
	Retriever
	ReplaceDocumentChunks(ctx context.Context, userID, documentPath string, records []ChunkRecord) error
	DeleteDocument(ctx context.Context, userID, documentPath string) error
}

// ChunkRecord is the persisted form of a DocumentChunk.
type ChunkRecord struct {
	bun.BaseModel `bun:"table:document_chunks,alias:c"`

	ID           string               `bun:"id,pk"`
	UserID       string               `bun:"user_id,notnull"`
	DocumentPath string               `bun:"document_path,notnull"`
	DocumentName string               `bun:"document_name,notnull"`
	PageNumber   int                  `bun:"page_number,notnull"`
	ChunkIndex   int                  `bun:"chunk_index,notnull"`
	Text         string               `bun:"text,notnull"`
	ChunkSize    int                  `bun:"chunk_size,notnull"`
	Metadata     models.ChunkMetadata `bun:"metadata,type:jsonb"`
	Embedding    Vector               `bun:"embedding,notnull"`
	CreatedAt    time.Time            `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// NewChunkRecord builds the persisted record for a chunk and its vector.
func NewChunkRecord(chunk models.DocumentChunk, vector []float32, userID string) (ChunkRecord, error) {
	id, err := helper.GenerateUUID()
	if err != nil {
		return ChunkRecord{}, err
	}
	return ChunkRecord{
		ID:           id,
		UserID:       userID,
		DocumentPath: chunk.Metadata.DocumentPath,
		DocumentName: chunk.Metadata.DocumentName,
		PageNumber:   chunk.PageNumber,
		ChunkIndex:   chunk.ChunkIndex,
		Text:         chunk.Text,
		ChunkSize:    len(chunk.Text),
		Metadata:     chunk.Metadata,
		Embedding:    Vector(vector),
		CreatedAt:    time.Now().UTC(),
	}, nil
}
