package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "modernc.org/sqlite"

	"xgrowth/internal/ai"
	"xgrowth/internal/audit"
	"xgrowth/internal/auth"
	"xgrowth/internal/config"
	"xgrowth/internal/content"
	"xgrowth/internal/feedback"
	"xgrowth/internal/httpapi"
	"xgrowth/internal/intel"
	"xgrowth/internal/notify"
	"xgrowth/internal/onboarding"
	"xgrowth/internal/persona"
	"xgrowth/internal/replyguy"
	"xgrowth/internal/sched"
	"xgrowth/internal/store"
	"xgrowth/internal/targets"
	"xgrowth/internal/trends"
	"xgrowth/internal/xapi"
)

const shutdownTimeout = 10 * time.Second

// #region main

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.Auth.Secret == "" {
		log.Fatal("AUTH_SECRET must be set")
	}
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := os.MkdirAll(cfg.Data.Dir, 0o755); err != nil {
		log.Fatalf("create data dir: %v", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(cfg.Data.Dir, "xgrowth.db"))
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	docs, err := store.NewDocStore(filepath.Join(cfg.Data.Dir, "personas"))
	if err != nil {
		log.Fatalf("open doc store: %v", err)
	}
	trail, err := audit.NewLog(db)
	if err != nil {
		log.Fatalf("open audit log: %v", err)
	}

	authSvc, err := auth.NewService(db, cfg.Auth.Secret)
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}

	personas := persona.NewManager(docs, trail)
	learn := feedback.NewProcessor(personas)

	aiClient := ai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model, nil)
	if cfg.OpenAI.BaseURL != "" {
		aiClient.BaseURL = cfg.OpenAI.BaseURL
	}
	xClient := xapi.NewClient(cfg.X.BearerToken, nil)

	telegram, err := notify.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	if err != nil {
		log.Fatalf("telegram: %v", err)
	}

	schedule, err := content.NewScheduleStore(db)
	if err != nil {
		log.Fatalf("schedule store: %v", err)
	}
	machine := content.NewMachine(aiClient, personas, schedule, learn)

	replyStore, err := replyguy.NewStore(db)
	if err != nil {
		log.Fatalf("reply store: %v", err)
	}
	replies := replyguy.NewEngine(xClient, aiClient, personas, replyStore, telegram, learn)

	activity, err := targets.NewActivityStore(db)
	if err != nil {
		log.Fatalf("activity store: %v", err)
	}
	planner := targets.NewPlanner(personas, activity, schedule, replyStore, xClient, learn)

	analyzer := intel.NewAnalyzer(xClient, aiClient, personas)
	guided := feedback.NewOnboardingProcessor(personas, aiClient)
	flow := onboarding.NewFlow(authSvc, xClient, aiClient, personas, guided)

	jobs := sched.New(authSvc, xClient, planner, replies, schedule, telegram)
	if err := jobs.Register(cfg.Jobs); err != nil {
		log.Fatalf("register jobs: %v", err)
	}
	jobs.Start()
	defer jobs.Stop()

	api := httpapi.New(authSvc, personas, learn, flow, machine, schedule, planner, replies, analyzer, xClient)
	api.SetTrends(trends.NewCollector(xClient, trends.DefaultConfig()))
	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: api.Router(),
	}

	go func() {
		log.Printf("[SERVER] listening on %s", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Println("[SERVER] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[SERVER] shutdown: %v", err)
	}
}

// #endregion main
