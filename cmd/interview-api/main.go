package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	httpadapter "github.com/prepwise/interview-agent/internal/adapters/http"
	"github.com/prepwise/interview-agent/internal/adapters/oracle"
	firestorestore "github.com/prepwise/interview-agent/internal/adapters/storage/firestore"
	memstore "github.com/prepwise/interview-agent/internal/adapters/storage/memory"
	sqlitestore "github.com/prepwise/interview-agent/internal/adapters/storage/sqlite"
	"github.com/prepwise/interview-agent/internal/adapters/transcribe"
	"github.com/prepwise/interview-agent/internal/app/interview"
	"github.com/prepwise/interview-agent/internal/app/transcript"
	"github.com/prepwise/interview-agent/internal/config"
	"github.com/prepwise/interview-agent/internal/domain"
)

func main() {
	ctx := context.Background()

	// .env is optional; env vars always win.
	_ = godotenv.Load()

	cfg := config.Load()

	oracleClient := buildOracle(ctx, cfg)
	store := buildStore(ctx, cfg)

	interviews := interview.NewService(oracleClient, store, interview.Options{
		QuestionCap:   cfg.QuestionCap,
		OracleTimeout: cfg.OracleTimeout,
	})

	transcriber := transcribe.NewWhisperClient(cfg.WhisperURL, cfg.WhisperAPIKey)
	transcripts := transcript.NewService(transcriber, os.TempDir())

	handler := httpadapter.NewServer(interviews, transcripts)

	addr := ":" + cfg.Port
	log.Println("Interview API listening on", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatal(err)
	}
}

func buildOracle(ctx context.Context, cfg *config.Config) domain.OracleClient {
	static, err := oracle.NewStatic()
	if err != nil {
		log.Fatalf("error loading question bank: %v", err)
	}

	if cfg.UseMockOracle || cfg.Mode == config.ModeLocal {
		log.Println("[ORACLE] Using offline question bank")
		return static
	}

	log.Println("[ORACLE] Using Gemini oracle")
	gemini, err := oracle.NewGeminiClient(ctx, cfg.GCPProjectID, cfg.GCPLocation, cfg.ModelName)
	if err != nil {
		log.Fatalf("error initializing Gemini oracle: %v", err)
	}

	// Static bank backs up question generation when Gemini misbehaves.
	return oracle.NewResilient(gemini, static)
}

func buildStore(ctx context.Context, cfg *config.Config) domain.SessionStore {
	switch cfg.StorageBackend {
	case "firestore":
		log.Printf("[STORE] Using Firestore storage (project=%s)", cfg.GCPProjectID)
		store, err := firestorestore.NewStore(ctx, cfg.GCPProjectID)
		if err != nil {
			log.Fatalf("error initializing Firestore store: %v", err)
		}
		return store

	case "sqlite":
		log.Printf("[STORE] Using SQLite storage (path=%s)", cfg.SQLitePath)
		store, err := sqlitestore.NewStore(cfg.SQLitePath)
		if err != nil {
			log.Fatalf("error initializing SQLite store: %v", err)
		}
		return store

	default:
		log.Println("[STORE] Using in-memory storage")
		return memstore.NewStore()
	}
}
