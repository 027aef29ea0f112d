package models

// Rect is an axis-aligned rectangle in page coordinate space.
type Rect struct {
	PageNumber int     `json:"page_number"`
	Left       float64 `json:"left"`
	Top        float64 `json:"top"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
}

// PositionRun is a single positioned text run extracted from a page.
// TextIndex is the run's starting character offset within the page's
// concatenated text.
type PositionRun struct {
	Text       string    `json:"text"`
	PageNumber int       `json:"page_number"`
	Left       float64   `json:"left"`
	Top        float64   `json:"top"`
	Width      float64   `json:"width"`
	Height     float64   `json:"height"`
	Transform  []float64 `json:"transform"`
	TextIndex  int       `json:"text_index"`
}

// PageContent holds one page's concatenated text plus its position runs.
type PageContent struct {
	PageNumber int
	Text       string
	Runs       []PositionRun
}

// SectionHeader is a heuristically detected heading line. Index is the
// zero-based line number within the page's line-split text.
type SectionHeader struct {
	Text       string
	PageNumber int
	Index      int
}

// ChunkPosition carries the geometry needed to render highlight overlays:
// the minimal enclosing rectangle of the chunk's runs plus the individual
// run rectangles.
type ChunkPosition struct {
	BoundingRect Rect   `json:"bounding_rect"`
	TextRanges   []Rect `json:"text_ranges,omitempty"`
}

// ChunkMetadata is the strongly-typed metadata attached to every chunk and
// validated at the storage boundary.
type ChunkMetadata struct {
	DocumentPath string        `json:"document_path"`
	DocumentName string        `json:"document_name"`
	PageNumber   int           `json:"page_number"`
	SectionTitle string        `json:"section_title,omitempty"`
	IsTable      bool          `json:"is_table"`
	Position     ChunkPosition `json:"position"`
}

// DocumentChunk is a contiguous, bounded span of a document's text.
// ChunkIndex values are contiguous and unique within a document, assigned
// in extraction order. Chunks are immutable once created.
type DocumentChunk struct {
	Text       string
	PageNumber int
	ChunkIndex int
	Metadata   ChunkMetadata
}

// SimilarityMatch is a stored chunk plus its similarity score against a
// query embedding, computed at read time. Ephemeral, never persisted.
type SimilarityMatch struct {
	ID           string
	DocumentPath string
	DocumentName string
	PageNumber   int
	ChunkIndex   int
	Text         string
	Metadata     ChunkMetadata
	Similarity   float64
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Citation points at a user-selected span of the document. Citations are
// produced by the UI's text-selection path, not by answer post-processing.
type Citation struct {
	Text     string        `json:"text"`
	Position ChunkPosition `json:"position"`
}

// ConversationTurn is one prior message of a chat. The answer generator
// treats prior turns as opaque context text.
type ConversationTurn struct {
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	Citations []Citation `json:"citations,omitempty"`
}

// Answer is a generated chat turn returned to the UI.
type Answer struct {
	Text      string     `json:"text"`
	Citations []Citation `json:"citations,omitempty"`
}
