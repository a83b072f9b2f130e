package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/ayuushisaha/ai-twitter-bot/internal/brain"
	"github.com/ayuushisaha/ai-twitter-bot/internal/core/ports"
	"github.com/ayuushisaha/ai-twitter-bot/internal/feed"
	"github.com/ayuushisaha/ai-twitter-bot/internal/gateway"
	"github.com/ayuushisaha/ai-twitter-bot/internal/reconciler"
	"github.com/ayuushisaha/ai-twitter-bot/internal/session"
	"github.com/ayuushisaha/ai-twitter-bot/internal/storage"
	"github.com/ayuushisaha/ai-twitter-bot/internal/ui/telegram"
	"github.com/ayuushisaha/ai-twitter-bot/internal/ui/term"
)

func main() {
	godotenv.Load()
	fmt.Println("🐦 AI tweet agent starting...")

	ctx := context.Background()

	store := openStore(ctx)

	gw := gateway.NewClient(os.Getenv("BACKEND_BASE_URL"), nil)
	gw.PublicOrigin = os.Getenv("PUBLIC_ORIGIN") == "1"
	if apiKey := os.Getenv("MIRROR_API_KEY"); apiKey != "" {
		gw.Mirror = gateway.NewMirrorClient(os.Getenv("MIRROR_BASE_URL"), apiKey)
	}
	sessions := session.NewManager(store, gw)
	gw.Tokens = sessions

	if err := sessions.Restore(); err != nil {
		log.Printf("restoring session: %v", err)
	}

	var myBrain ports.Brain
	if os.Getenv("GEMINI_API_KEY") != "" {
		gemini, err := brain.NewGeminiBrain(ctx, os.Getenv("GEMINI_API_KEY"))
		if err != nil {
			log.Fatalf("gemini brain: %v", err)
		}
		myBrain = gemini
		fmt.Println("🧠 Brain: Gemini (direct)")
	} else {
		myBrain = brain.NewRemote(gw)
		fmt.Println("🧠 Brain: backend /generate")
	}

	feeds := feed.NewAggregator()
	rec := reconciler.New(store, myBrain, gw, sessions, feeds)
	sessions.OnReset(func() {
		if err := rec.Reset(); err != nil {
			log.Printf("resetting drafts: %v", err)
		}
		feeds.ResetMine()
	})

	if err := rec.LoadInitial(); err != nil {
		log.Printf("loading drafts: %v", err)
	}

	var approver ports.Approver
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		tg, err := telegram.NewApprover(token, os.Getenv("TELEGRAM_CHAT_ID"))
		if err != nil {
			log.Printf("telegram approver disabled: %v", err)
		} else {
			approver = tg
			fmt.Println("📨 Approvals: Telegram")
		}
	}

	ui := term.New(rec, sessions, gw, feeds, store, approver)
	if err := ui.Run(ctx); err != nil {
		log.Fatal(err)
	}
}

// openStore picks the durable backend: Postgres when DATABASE_URL is
// set, SQLite when SQLITE_PATH is set, a local JSON file otherwise.
func openStore(ctx context.Context) ports.Store {
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		store, err := storage.NewPostgresStore(ctx, dbURL)
		if err == nil {
			fmt.Println("🐘 Storage: PostgreSQL")
			return store
		}
		log.Printf("postgres unavailable, falling back: %v", err)
	}
	if path := os.Getenv("SQLITE_PATH"); path != "" {
		store, err := storage.NewSQLiteStore(path)
		if err == nil {
			fmt.Println("🗄  Storage: SQLite")
			return store
		}
		log.Printf("sqlite unavailable, falling back: %v", err)
	}

	store, err := storage.NewJSONStore("data/agent.json")
	if err != nil {
		log.Fatalf("json storage: %v", err)
	}
	fmt.Println("📄 Storage: JSON file")
	return store
}
