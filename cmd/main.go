package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"docchat/internal/chatbot"
	"docchat/internal/config"
	"docchat/internal/docinfo"
	"docchat/internal/embedding"
	"docchat/internal/helper"
	"docchat/internal/ingest"
	"docchat/internal/llmservice"
	"docchat/internal/storage"
	"docchat/internal/store"
)

const (
	defaultConfigPath = "./configs/config.yaml"
	chromemDBPath     = "./chromemdb"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found")
	}

	configPath := flag.String("config", defaultConfigPath, "Path to the config file")
	filePath := flag.String("file", "", "Path to a PDF file to ingest")
	docPath := flag.String("doc", "", "Stored document path (defaults to <user>/<filename> on ingest)")
	userID := flag.String("user", "", "User ID owning the document")
	query := flag.String("query", "", "Question to ask about the document")
	info := flag.Bool("info", false, "Extract document metadata, summary and suggested questions")
	remove := flag.Bool("delete", false, "Delete the document's chunks")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}

	ctx := context.Background()

	switch {
	case *filePath != "" && *info:
		extractInfo(ctx, cfg, *filePath)
	case *filePath != "":
		requireUser(*userID)
		ingestDocument(ctx, cfg, *filePath, *docPath, *userID)
	case *query != "":
		requireUser(*userID)
		requireDoc(*docPath)
		askQuestion(ctx, cfg, *docPath, *userID, *query)
	case *remove:
		requireUser(*userID)
		requireDoc(*docPath)
		deleteDocument(ctx, cfg, *docPath, *userID)
	default:
		log.Fatal().Msg("Please provide a document file using the -file flag or a question using the -query flag")
	}
}

func requireUser(userID string) {
	if userID == "" {
		log.Fatal().Msg("Please provide a user ID with the -user flag")
	}
}

func requireDoc(docPath string) {
	if docPath == "" {
		log.Fatal().Msg("Please provide the document path with the -doc flag")
	}
}

// newChunkStore picks Postgres when a DSN is configured and falls back to a
// persistent chromem database otherwise. The caller runs close when done.
func newChunkStore(ctx context.Context, cfg *config.Config) (store.ChunkStore, func(), error) {
	if cfg.Database.DSN != "" {
		sqldb, err := store.ConnectDB(&cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("connect database: %w", err)
		}
		db := store.NewDB(sqldb, cfg.Database.Debug)
		if err := store.InitDB(ctx, db, cfg.Embedder.VectorSize); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("init database: %w", err)
		}
		return store.NewPostgresStore(db), func() { db.Close() }, nil
	}

	if err := helper.CreateFolder(chromemDBPath); err != nil {
		return nil, nil, fmt.Errorf("create chromem folder: %w", err)
	}
	cs, err := store.NewChromemStore(chromemDBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open chromem store: %w", err)
	}
	return cs, func() {}, nil
}

func newFetcher(cfg *config.Config) storage.Fetcher {
	if cfg.Storage.Type == "http" {
		return storage.NewHTTPStore(cfg.Storage.BaseURL)
	}
	return storage.NewLocalStore(cfg.Storage.BaseDir)
}

func ingestDocument(ctx context.Context, cfg *config.Config, filePath, docPath, userID string) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error reading document file")
	}

	name := filepath.Base(filePath)
	if docPath == "" {
		docPath = path.Join(userID, name)
	}

	chunks, closeStore, err := newChunkStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening chunk store")
	}
	defer closeStore()

	embedder, err := embedding.NewEmbedder(&cfg.Embedder)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	pipeline := ingest.NewPipeline(embedder, chunks, cfg)
	if err := pipeline.Process(ctx, data, docPath, name, userID); err != nil {
		log.Fatal().Err(err).Msg("Error ingesting document")
	}

	log.Info().Str("document", docPath).Msg("Document ingested")
}

func askQuestion(ctx context.Context, cfg *config.Config, docPath, userID, query string) {
	chunks, closeStore, err := newChunkStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening chunk store")
	}
	defer closeStore()

	embedder, err := embedding.NewEmbedder(&cfg.Embedder)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	model, err := llmservice.NewChatModel(ctx, &cfg.ChatModel)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing chat model")
	}

	retriever := store.NewRetryingRetriever(chunks, cfg.RAG.RelaxedThreshold)
	bot := chatbot.NewService(model, embedder, retriever, newFetcher(cfg), cfg)

	answer := bot.Answer(ctx, docPath, userID, query, nil)

	log.Info().Msg("Query: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", query)

	log.Info().Msg("Assistant: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", answer.Text)

	for _, c := range answer.Citations {
		log.Info().Int("page", c.Position.BoundingRect.PageNumber).Str("text", c.Text).Msg("Citation")
	}
}

func extractInfo(ctx context.Context, cfg *config.Config, filePath string) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error reading document file")
	}

	model, err := llmservice.NewChatModel(ctx, &cfg.ChatModel)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing chat model")
	}

	inf := docinfo.Extract(ctx, model, &cfg.ChatModel, data)
	helper.PrettyPrint(inf)
}

func deleteDocument(ctx context.Context, cfg *config.Config, docPath, userID string) {
	chunks, closeStore, err := newChunkStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening chunk store")
	}
	defer closeStore()

	if err := chunks.DeleteDocument(ctx, userID, docPath); err != nil {
		log.Fatal().Err(err).Msg("Error deleting document")
	}
	log.Info().Str("document", docPath).Msg("Document chunks deleted")
}
