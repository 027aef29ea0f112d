package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"docchat/internal/config"
	"docchat/internal/models"
)

// PostgresStore is the production ChunkStore, backed by Postgres with the
// pgvector extension.
type PostgresStore struct {
	db *bun.DB
}

func ConnectDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	opts := []pgdriver.Option{pgdriver.WithDSN(cfg.DSN)}
	if cfg.Password != "" {
		opts = append(opts, pgdriver.WithPassword(cfg.Password))
	}
	return sql.OpenDB(pgdriver.NewConnector(opts...)), nil
}

func NewDB(sqldb *sql.DB, debug bool) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

func NewPostgresStore(db *bun.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// InitDB creates the chunk table and its indexes. vectorSize must match
// the embedding model's output dimension.
func InitDB(ctx context.Context, db *bun.DB, vectorSize int) error {
	ddl := fmt.Sprintf(`
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS document_chunks (
    id            TEXT PRIMARY KEY,
    user_id       TEXT NOT NULL,
    document_path TEXT NOT NULL,
    document_name TEXT NOT NULL,
    page_number   INTEGER NOT NULL,
    chunk_index   INTEGER NOT NULL,
    text          TEXT NOT NULL,
    chunk_size    INTEGER NOT NULL,
    metadata      JSONB NOT NULL DEFAULT '{}',
    embedding     vector(%d) NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS document_chunks_user_doc_idx
    ON document_chunks (user_id, document_path);
`, vectorSize)

	_, err := db.ExecContext(ctx, ddl)
	return err
}

// ReplaceDocumentChunks deletes all records for (userID, documentPath) and
// inserts the new set inside one transaction, so a re-ingestion can never
// leave a mixed chunk set behind.
func (s *PostgresStore) ReplaceDocumentChunks(ctx context.Context, userID, documentPath string, records []ChunkRecord) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().
			Model((*ChunkRecord)(nil)).
			Where("user_id = ?", userID).
			Where("document_path = ?", documentPath).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete existing chunks: %w", err)
		}

		if len(records) == 0 {
			return nil
		}
		if _, err := tx.NewInsert().Model(&records).Exec(ctx); err != nil {
			return fmt.Errorf("insert chunks: %w", err)
		}
		return nil
	})
}

// DeleteDocument removes all chunk records for a document.
func (s *PostgresStore) DeleteDocument(ctx context.Context, userID, documentPath string) error {
	_, err := s.db.NewDelete().
		Model((*ChunkRecord)(nil)).
		Where("user_id = ?", userID).
		Where("document_path = ?", documentPath).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete document chunks: %w", err)
	}
	return nil
}

// similarityRow extends the record with its read-time similarity score.
type similarityRow struct {
	ChunkRecord `bun:",extend"`

	Similarity float64 `bun:"similarity"`
}

// Search returns chunks scoped to the user (and document, when given)
// whose cosine similarity against the query embedding meets the
// threshold, ordered by descending similarity.
func (s *PostgresStore) Search(ctx context.Context, params SearchParams) ([]models.SimilarityMatch, error) {
	vec := Vector(params.Embedding).String()

	var rows []similarityRow
	q := s.db.NewSelect().
		Model(&rows).
		ColumnExpr("c.*").
		ColumnExpr("1 - (c.embedding <=> ?::vector) AS similarity", vec).
		Where("c.user_id = ?", params.UserID).
		Where("1 - (c.embedding <=> ?::vector) >= ?", vec, params.Threshold).
		OrderExpr("c.embedding <=> ?::vector ASC", vec).
		Limit(params.Limit)
	if params.DocumentPath != "" {
		q = q.Where("c.document_path = ?", params.DocumentPath)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	matches := make([]models.SimilarityMatch, len(rows))
	for i, row := range rows {
		matches[i] = models.SimilarityMatch{
			ID:           row.ID,
			DocumentPath: row.DocumentPath,
			DocumentName: row.DocumentName,
			PageNumber:   row.PageNumber,
			ChunkIndex:   row.ChunkIndex,
			Text:         row.Text,
			Metadata:     row.Metadata,
			Similarity:   row.Similarity,
		}
	}
	log.Debug().Int("matches", len(matches)).Float64("threshold", params.Threshold).
		Msg("Vector search completed")
	return matches, nil
}
