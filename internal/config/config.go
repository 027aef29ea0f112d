package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// DatabaseConfig contains Postgres connection details for the chunk store.
type DatabaseConfig struct {
	DSN      string `yaml:"dsn"`
	Password string `yaml:"password"`
	Debug    bool   `yaml:"debug"`
}

// EmbedderConfig configures the OpenAI-compatible embedding model.
type EmbedderConfig struct {
	BaseURL    string `yaml:"base_url"`
	APIKeyEnv  string `yaml:"api_key_env"`
	Model      string `yaml:"model"`
	BatchSize  int    `yaml:"batch_size"`
	VectorSize int    `yaml:"vector_size"`
}

// ChatModelConfig configures the generative model used for answers and
// document info extraction.
type ChatModelConfig struct {
	APIKeyEnv   string  `yaml:"api_key_env"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	TopP        float64 `yaml:"top_p"`
	TopK        int     `yaml:"top_k"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// RAGConfig tunes chunking and retrieval.
type RAGConfig struct {
	ChunkSize        int     `yaml:"chunk_size"`
	ChunkOverlap     int     `yaml:"chunk_overlap"`
	SearchLimit      int     `yaml:"search_limit"`
	SearchThreshold  float64 `yaml:"search_threshold"`
	RelaxedThreshold float64 `yaml:"relaxed_threshold"`
}

// StorageConfig selects where document bytes are fetched from.
type StorageConfig struct {
	Type    string `yaml:"type"` // "local" or "http"
	BaseDir string `yaml:"base_dir"`
	BaseURL string `yaml:"base_url"`
}

type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Embedder  EmbedderConfig  `yaml:"embedder"`
	ChatModel ChatModelConfig `yaml:"chat_model"`
	RAG       RAGConfig       `yaml:"rag"`
	Storage   StorageConfig   `yaml:"storage"`
}

const (
	DefaultChunkSize        = 1000
	DefaultChunkOverlap     = 200
	DefaultBatchSize        = 20
	DefaultVectorSize       = 1536
	DefaultSearchLimit      = 5
	DefaultSearchThreshold  = 0.2
	DefaultRelaxedThreshold = 0.1
)

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills zero-valued tuning fields after unmarshal.
func (c *Config) ApplyDefaults() {
	if c.RAG.ChunkSize == 0 {
		c.RAG.ChunkSize = DefaultChunkSize
	}
	if c.RAG.ChunkOverlap == 0 {
		c.RAG.ChunkOverlap = DefaultChunkOverlap
	}
	if c.RAG.SearchLimit == 0 {
		c.RAG.SearchLimit = DefaultSearchLimit
	}
	if c.RAG.SearchThreshold == 0 {
		c.RAG.SearchThreshold = DefaultSearchThreshold
	}
	if c.RAG.RelaxedThreshold == 0 {
		c.RAG.RelaxedThreshold = DefaultRelaxedThreshold
	}
	if c.Embedder.BatchSize == 0 {
		c.Embedder.BatchSize = DefaultBatchSize
	}
	if c.Embedder.VectorSize == 0 {
		c.Embedder.VectorSize = DefaultVectorSize
	}
	if c.Embedder.Model == "" {
		c.Embedder.Model = "text-embedding-3-small"
	}
	if c.ChatModel.Model == "" {
		c.ChatModel.Model = "gemini-2.0-flash"
	}
	if c.ChatModel.Temperature == 0 {
		c.ChatModel.Temperature = 0.2
	}
	if c.ChatModel.TopP == 0 {
		c.ChatModel.TopP = 0.95
	}
	if c.ChatModel.TopK == 0 {
		c.ChatModel.TopK = 40
	}
	if c.ChatModel.MaxTokens == 0 {
		c.ChatModel.MaxTokens = 4096
	}
	if c.Storage.Type == "" {
		c.Storage.Type = "local"
	}
	if c.Storage.BaseDir == "" {
		c.Storage.BaseDir = "./uploads"
	}
}
