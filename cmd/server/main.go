// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/havenpath/outreach-backend/internal/campaign"
	"github.com/havenpath/outreach-backend/internal/chat"
	"github.com/havenpath/outreach-backend/internal/config"
	"github.com/havenpath/outreach-backend/internal/controller"
	"github.com/havenpath/outreach-backend/internal/db"
	"github.com/havenpath/outreach-backend/internal/handler"
	"github.com/havenpath/outreach-backend/internal/mailer"
	"github.com/havenpath/outreach-backend/internal/queue"
	"github.com/havenpath/outreach-backend/internal/quota"
	"github.com/havenpath/outreach-backend/internal/repository"
	"github.com/havenpath/outreach-backend/internal/scheduler"
	"github.com/havenpath/outreach-backend/internal/service"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on OS environment variables")
	}
	cfg := config.Load()

	logger := buildLogger(cfg.Debug)
	defer logger.Sync()
	sugar := logger.Sugar()

	conn, err := db.Open(cfg)
	if err != nil {
		sugar.Fatalw("database connection failed", "error", err)
	}
	defer conn.Close()
	sugar.Infow("connected to database", "db", cfg.DBName)

	leadRepo := &repository.LeadRepository{DB: conn}
	interactionRepo := &repository.InteractionRepository{DB: conn}

	catalog, err := campaign.LoadCatalog(cfg.CampaignsFile)
	if err != nil {
		sugar.Fatalw("campaign catalog load failed", "file", cfg.CampaignsFile, "error", err)
	}

	quotaMgr := quota.NewManager(quota.Config{
		MaxDaily:           cfg.MaxDailySends,
		MaxHourly:          cfg.MaxHourlySends,
		BusinessHoursStart: cfg.BusinessHoursStart,
		BusinessHoursEnd:   cfg.BusinessHoursEnd,
	})
	sessions := chat.NewManager()
	sched := scheduler.New(sugar)
	mail := mailer.NewFromConfig(cfg, sugar)

	nurture := &service.NurtureService{
		Leads:           leadRepo,
		Interactions:    interactionRepo,
		Catalog:         catalog,
		Sequencer:       campaign.NewSequencer(catalog),
		Quota:           quotaMgr,
		Scheduler:       sched,
		Sessions:        sessions,
		Mailer:          mail,
		Log:             sugar,
		SendPause:       cfg.SendPause,
		SessionTimeout:  cfg.SessionTimeout,
		ReportRecipient: cfg.ReportRecipient,
	}
	nurture.RegisterSchedulerJobs(cfg.SweepInterval)

	engagement := &service.EngagementService{
		Leads:        leadRepo,
		Interactions: interactionRepo,
		Log:          sugar,
	}

	// With a broker configured, events cross to cmd/worker; without one,
	// the in-memory queue keeps everything in this process.
	var q queue.Queue
	if cfg.AMQPURL != "" {
		aq, err := queue.DialAMQP(cfg.AMQPURL, sugar)
		if err != nil {
			sugar.Fatalw("rabbitmq connection failed", "error", err)
		}
		defer aq.Close()
		q = aq
		sugar.Infow("publishing engagement events to rabbitmq")
	} else {
		mq := queue.NewInMemoryQueue(sugar)
		if err := mq.Subscribe(queue.TopicEngagement, engagement.HandleRaw); err != nil {
			sugar.Fatalw("queue subscribe failed", "error", err)
		}
		q = mq
		sugar.Infow("no AMQP_URL set, handling engagement events in-process")
	}

	chatService := &service.ChatService{
		Sessions:     sessions,
		Responder:    chat.NewResponder(),
		Leads:        leadRepo,
		Interactions: interactionRepo,
		Log:          sugar,
	}

	leadController := &controller.LeadController{
		Leads:        leadRepo,
		Interactions: interactionRepo,
		Nurture:      nurture,
		Log:          sugar,
	}
	chatController := &controller.ChatController{Chat: chatService, Log: sugar}
	webhooks := &handler.WebhookHandler{Queue: q, Log: sugar}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})

	// Lead and chat routes
	r.Post("/api/leads", leadController.CreateLead)
	r.Get("/api/leads/{id}", leadController.GetLead)
	r.Get("/api/stats", leadController.GetStats)
	r.Post("/api/chat/messages", chatController.PostMessage)

	// Provider callbacks
	r.Post("/webhooks/email/events", webhooks.EmailEvents)
	r.Post("/webhooks/sms", webhooks.InboundSMS)
	r.Post("/webhooks/voice", webhooks.InboundVoice)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sugar.Infow("server running", "port", cfg.Port)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return sched.Run(ctx)
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		sugar.Fatalw("server exited", "error", err)
	}
	sugar.Infow("shutdown complete")
}

func buildLogger(debug bool) *zap.Logger {
	zapCfg := zap.NewProductionConfig()
	if debug {
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, err := zapCfg.Build()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	return logger
}
