package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat/internal/models"
)

func newTestRecord(id, userID, documentPath string, chunkIndex int, text string, embedding []float32) ChunkRecord {
	return ChunkRecord{
		ID:           id,
		UserID:       userID,
		DocumentPath: documentPath,
		DocumentName: "doc.pdf",
		PageNumber:   1,
		ChunkIndex:   chunkIndex,
		Text:         text,
		ChunkSize:    len(text),
		Metadata: models.ChunkMetadata{
			DocumentPath: documentPath,
			DocumentName: "doc.pdf",
			PageNumber:   1,
		},
		Embedding: embedding,
	}
}

func TestChromemReplaceIsIdempotent(t *testing.T) {
	s, err := NewChromemStore("")
	require.NoError(t, err)
	ctx := context.Background()

	records := []ChunkRecord{
		newTestRecord("c1", "alice", "alice/doc.pdf", 0, "first chunk", []float32{1, 0, 0}),
		newTestRecord("c2", "alice", "alice/doc.pdf", 1, "second chunk", []float32{0, 1, 0}),
	}

	require.NoError(t, s.ReplaceDocumentChunks(ctx, "alice", "alice/doc.pdf", records))
	require.NoError(t, s.ReplaceDocumentChunks(ctx, "alice", "alice/doc.pdf", records))

	assert.Equal(t, 2, s.collection.Count())
}

func TestChromemSearchThresholdAndOrder(t *testing.T) {
	s, err := NewChromemStore("")
	require.NoError(t, err)
	ctx := context.Background()

	records := []ChunkRecord{
		newTestRecord("c1", "alice", "alice/doc.pdf", 0, "matching chunk", []float32{1, 0, 0}),
		newTestRecord("c2", "alice", "alice/doc.pdf", 1, "orthogonal chunk", []float32{0, 1, 0}),
	}
	require.NoError(t, s.ReplaceDocumentChunks(ctx, "alice", "alice/doc.pdf", records))

	matches, err := s.Search(ctx, SearchParams{
		Embedding:    []float32{1, 0, 0},
		UserID:       "alice",
		DocumentPath: "alice/doc.pdf",
		Limit:        5,
		Threshold:    0.5,
	})

	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "c1", matches[0].ID)
	assert.Equal(t, "matching chunk", matches[0].Text)
	assert.InDelta(t, 1.0, matches[0].Similarity, 0.001)
	assert.Equal(t, 1, matches[0].PageNumber)
	assert.Equal(t, "doc.pdf", matches[0].Metadata.DocumentName)
}

func TestChromemSearchScopedToUser(t *testing.T) {
	s, err := NewChromemStore("")
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.ReplaceDocumentChunks(ctx, "alice", "alice/doc.pdf", []ChunkRecord{
		newTestRecord("a1", "alice", "alice/doc.pdf", 0, "alice chunk", []float32{1, 0, 0}),
	}))
	require.NoError(t, s.ReplaceDocumentChunks(ctx, "bob", "bob/doc.pdf", []ChunkRecord{
		newTestRecord("b1", "bob", "bob/doc.pdf", 0, "bob chunk", []float32{1, 0, 0}),
	}))

	matches, err := s.Search(ctx, SearchParams{
		Embedding: []float32{1, 0, 0},
		UserID:    "alice",
		Limit:     5,
		Threshold: 0.1,
	})

	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "a1", matches[0].ID)
}

func TestChromemSearchEmptyCollection(t *testing.T) {
	s, err := NewChromemStore("")
	require.NoError(t, err)

	matches, err := s.Search(context.Background(), SearchParams{
		Embedding: []float32{1, 0, 0},
		UserID:    "alice",
		Limit:     5,
		Threshold: 0.2,
	})

	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestChromemDeleteDocument(t *testing.T) {
	s, err := NewChromemStore("")
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.ReplaceDocumentChunks(ctx, "alice", "alice/a.pdf", []ChunkRecord{
		newTestRecord("a1", "alice", "alice/a.pdf", 0, "chunk a", []float32{1, 0, 0}),
	}))
	require.NoError(t, s.ReplaceDocumentChunks(ctx, "alice", "alice/b.pdf", []ChunkRecord{
		newTestRecord("b1", "alice", "alice/b.pdf", 0, "chunk b", []float32{0, 1, 0}),
	}))

	require.NoError(t, s.DeleteDocument(ctx, "alice", "alice/a.pdf"))
	assert.Equal(t, 1, s.collection.Count())
}
