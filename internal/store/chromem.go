package store

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"docchat/internal/models"
)

const chromemCollection = "document_chunks"

// ChromemStore is an embedded ChunkStore for local mode and tests, no
// Postgres required. Scoping is enforced through metadata filters.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
}

// NewChromemStore opens a persistent store at dbPath, or an in-memory one
// when dbPath is empty.
func NewChromemStore(dbPath string) (*ChromemStore, error) {
	var db *chromem.DB
	var err error
	if dbPath == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(dbPath, false)
		if err != nil {
			return nil, fmt.Errorf("failed to create database: %v", err)
		}
	}

	collection, err := db.GetOrCreateCollection(chromemCollection, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %v", err)
	}
	return &ChromemStore{db: db, collection: collection}, nil
}

func (s *ChromemStore) ReplaceDocumentChunks(ctx context.Context, userID, documentPath string, records []ChunkRecord) error {
	if err := s.DeleteDocument(ctx, userID, documentPath); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	docs := make([]chromem.Document, len(records))
	for i, rec := range records {
		meta, err := json.Marshal(rec.Metadata)
		if err != nil {
			return fmt.Errorf("marshal chunk metadata: %v", err)
		}
		docs[i] = chromem.Document{
			ID:        rec.ID,
			Content:   rec.Text,
			Embedding: rec.Embedding,
			Metadata: map[string]string{
				"user_id":       rec.UserID,
				"document_path": rec.DocumentPath,
				"document_name": rec.DocumentName,
				"page_number":   strconv.Itoa(rec.PageNumber),
				"chunk_index":   strconv.Itoa(rec.ChunkIndex),
				"metadata":      string(meta),
			},
		}
	}

	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %v", err)
	}
	return nil
}

func (s *ChromemStore) DeleteDocument(ctx context.Context, userID, documentPath string) error {
	where := map[string]string{"user_id": userID, "document_path": documentPath}
	if err := s.collection.Delete(ctx, where, nil); err != nil {
		return fmt.Errorf("failed to delete documents: %v", err)
	}
	return nil
}

func (s *ChromemStore) Search(ctx context.Context, params SearchParams) ([]models.SimilarityMatch, error) {
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	n := params.Limit
	if n > count {
		n = count
	}

	where := map[string]string{"user_id": params.UserID}
	if params.DocumentPath != "" {
		where["document_path"] = params.DocumentPath
	}

	results, err := s.collection.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: params.Embedding,
		NResults:       n,
		Where:          where,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %v", err)
	}

	var matches []models.SimilarityMatch
	for _, res := range results {
		similarity := float64(res.Similarity)
		if similarity < params.Threshold {
			continue
		}

		var meta models.ChunkMetadata
		if raw := res.Metadata["metadata"]; raw != "" {
			if err := json.Unmarshal([]byte(raw), &meta); err != nil {
				log.Warn().Err(err).Str("id", res.ID).Msg("Invalid chunk metadata, skipping decode")
			}
		}
		pageNumber, _ := strconv.Atoi(res.Metadata["page_number"])
		chunkIndex, _ := strconv.Atoi(res.Metadata["chunk_index"])

		matches = append(matches, models.SimilarityMatch{
			ID:           res.ID,
			DocumentPath: res.Metadata["document_path"],
			DocumentName: res.Metadata["document_name"],
			PageNumber:   pageNumber,
			ChunkIndex:   chunkIndex,
			Text:         res.Content,
			Metadata:     meta,
			Similarity:   similarity,
		})
	}
	return matches, nil
}
