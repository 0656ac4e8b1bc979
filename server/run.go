package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/rs/cors"

	"supplyguard/agents"
	"supplyguard/llm"
	"supplyguard/store"
)

// Run is the exported entry point for the SupplyGuard API service. It
// wires the store, AI client, rulebook, and orchestrator from the
// environment, then serves HTTP until the process exits.
func Run() {
	port := getEnv("PORT", "8000")

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	st := initStore(ctx)
	ai := initAI()
	rb := initRulebook()

	orch := agents.NewOrchestrator(st, ai, rb)

	var limiter *RateLimiter
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		perMinute, err := strconv.Atoi(getEnv("RATE_LIMIT_PER_MINUTE", "60"))
		if err != nil || perMinute <= 0 {
			log.Fatalf("Invalid RATE_LIMIT_PER_MINUTE: %v", err)
		}
		limiter, err = NewRateLimiter(redisURL, perMinute)
		if err != nil {
			log.Printf("⚠️  Redis unavailable, rate limiting disabled: %v", err)
		} else {
			log.Printf("✅ Redis rate limiting enabled (%d req/min)", perMinute)
			defer func() {
				if err := limiter.Close(); err != nil {
					log.Printf("Error closing Redis: %v", err)
				}
			}()
		}
	} else {
		log.Println("ℹ️  REDIS_URL not set - rate limiting disabled")
	}

	srv := NewServer(st, orch, limiter)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	log.Printf("🚀 SupplyGuard API starting on port %s", port)
	if err := http.ListenAndServe(":"+port, corsHandler.Handler(srv.Router())); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// initStore opens PostgreSQL when configured and falls back to the
// in-memory store otherwise, so the service always starts.
func initStore(ctx context.Context) store.Store {
	dsn := databaseURL()
	if dsn == "" {
		log.Println("ℹ️  DATABASE_URL not set - using in-memory store")
		return seededMemory(ctx)
	}

	pg, err := store.Open(ctx, dsn)
	if err != nil {
		log.Printf("⚠️  Database connection failed: %v", err)
		log.Println("Falling back to in-memory store")
		return seededMemory(ctx)
	}

	if err := pg.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to ensure database schema: %v", err)
	}
	log.Println("✅ PostgreSQL connected, schema ensured")

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := store.Seed(ctx, pg); err != nil {
			log.Printf("⚠️  Failed to seed demo data: %v", err)
		} else {
			log.Println("✅ Demo data seeded")
		}
	}
	return pg
}

func seededMemory(ctx context.Context) store.Store {
	m := store.NewMemory()
	if err := store.Seed(ctx, m); err != nil {
		log.Printf("⚠️  Failed to seed in-memory store: %v", err)
	}
	return m
}

// databaseURL builds the connection string from DATABASE_URL or from the
// separate DATABASE_* env vars (12-Factor App methodology).
func databaseURL() string {
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		return dbURL
	}

	host := os.Getenv("DATABASE_HOST")
	password := os.Getenv("DATABASE_PASSWORD")
	if host == "" || password == "" {
		return ""
	}

	port := getEnv("DATABASE_PORT", "5432")
	name := getEnv("DATABASE_NAME", "supplyguard")
	user := getEnv("DATABASE_USER", "supplyguard_app")
	sslMode := getEnv("DATABASE_SSLMODE", "require")

	// URL-encode credentials so special characters survive URI parsing.
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		url.QueryEscape(user), url.QueryEscape(password), host, port, name, sslMode)
}

func initAI() llm.Client {
	client, err := llm.New(llm.Config{
		APIKey:  os.Getenv("OPENROUTER_API_KEY"),
		BaseURL: os.Getenv("OPENROUTER_BASE_URL"),
		Model:   os.Getenv("OPENROUTER_MODEL"),
	})
	if err != nil {
		log.Printf("ℹ️  AI analysis disabled: %v", err)
		return nil
	}
	log.Println("✅ AI analysis enabled via OpenRouter")
	return client
}

func initRulebook() *agents.Rulebook {
	path := os.Getenv("RULEBOOK_PATH")
	if path == "" {
		return agents.DefaultRulebook()
	}

	rb, err := agents.LoadRulebook(path)
	if err != nil {
		log.Fatalf("Failed to load rulebook %s: %v", path, err)
	}
	log.Printf("✅ Rulebook loaded from %s", path)
	return rb
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
