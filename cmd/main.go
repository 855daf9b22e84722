package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"impact-rag/internal/auth"
	"impact-rag/internal/config"
	"impact-rag/internal/embedding"
	"impact-rag/internal/helper"
	"impact-rag/internal/ingest"
	"impact-rag/internal/llmservice"
	"impact-rag/internal/models"
	"impact-rag/internal/parser"
	"impact-rag/internal/rag"
	"impact-rag/internal/store"
	"impact-rag/internal/vectorindex"
)

const configFilePath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found")
	}

	configPath := flag.String("config", configFilePath, "Path to the config file")
	filePath := flag.String("file", "", "Path to a document file to ingest")
	dirPath := flag.String("dir", "", "Path to a directory of documents to ingest")
	query := flag.String("query", "", "Question to be answered")
	conversationID := flag.String("conversation", "", "Conversation ID to continue")
	token := flag.String("token", "", "Bearer token identifying the user")
	userID := flag.String("user", "", "User ID (bypasses token verification)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}

	ctx := context.Background()

	switch {
	case *filePath != "":
		ingestFiles(ctx, cfg, []string{*filePath})
	case *dirPath != "":
		paths, err := supportedFiles(*dirPath)
		if err != nil {
			log.Fatal().Err(err).Msg("Error listing documents")
		}
		ingestFiles(ctx, cfg, paths)
	case *query != "":
		answerQuery(ctx, cfg, *query, *conversationID, *token, *userID)
	default:
		log.Fatal().Msg("Please provide a document using -file or -dir, or a question using -query")
	}
}

func ingestFiles(ctx context.Context, cfg *config.Config, paths []string) {
	embedder, err := embedding.New(&cfg.EmbedLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	index, err := vectorindex.New(cfg.Index.Path, cfg.Index.Collection, cfg.EmbedLLM.Model)
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening vector index")
	}

	pipeline := ingest.NewPipeline(embedder, index, cfg)
	reports, err := pipeline.IngestBatch(ctx, paths)
	if err != nil {
		log.Fatal().Err(err).Msg("Error ingesting documents")
	}

	helper.PrettyPrint(reports)
}

func answerQuery(ctx context.Context, cfg *config.Config, query, conversationID, token, userID string) {
	embedder, err := embedding.New(&cfg.EmbedLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	index, err := vectorindex.New(cfg.Index.Path, cfg.Index.Collection, cfg.EmbedLLM.Model)
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening vector index")
	}

	generator, err := llmservice.NewClient(&cfg.InferenceLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing inference client")
	}

	if token != "" {
		verifier := auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Audience)
		userID, err = verifier.UserID(token)
		if err != nil {
			log.Fatal().Err(err).Msg("Error verifying token")
		}
	}

	var st store.Store
	if cfg.Database.DSN != "" {
		sqldb := store.ConnectDB(&cfg.Database)
		db := store.NewDB(sqldb, cfg.Database.Debug)
		defer db.Close()

		pg := store.NewPostgres(db)
		if err := pg.Init(ctx); err != nil {
			log.Fatal().Err(err).Msg("Error initializing conversation table")
		}
		st = pg
	} else {
		st = store.NewMemory()
	}

	service := rag.NewService(embedder, index, generator, st, cfg)

	var response *models.ChatResponse
	if userID != "" {
		response, err = service.Chat(ctx, userID, query, conversationID)
	} else {
		response, err = service.Ask(ctx, query)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Error answering question")
	}

	log.Info().Msg("Query: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", query)

	log.Info().Msg("Sources: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	for _, source := range response.Sources {
		fmt.Printf("%s (págs. %s)\n", source.File, source.PageList())
	}
	fmt.Println()

	log.Info().Msg("Assistant: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", response.Answer)

	if response.ConversationID != "" {
		log.Info().Str("conversation_id", response.ConversationID).Msg("conversation saved")
	}
}

func supportedFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if parser.KindForFile(entry.Name()) == "" {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	return paths, nil
}
