// cmd/worker/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/havenpath/outreach-backend/internal/config"
	"github.com/havenpath/outreach-backend/internal/db"
	"github.com/havenpath/outreach-backend/internal/queue"
	"github.com/havenpath/outreach-backend/internal/repository"
	"github.com/havenpath/outreach-backend/internal/service"
)

// The worker drains engagement events from RabbitMQ and records them as
// interactions. Run it alongside cmd/server whenever AMQP_URL is set; the
// server only publishes in that mode.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on OS environment variables")
	}
	cfg := config.Load()

	logger := buildLogger(cfg.Debug)
	defer logger.Sync()
	sugar := logger.Sugar()

	if cfg.AMQPURL == "" {
		sugar.Fatalw("AMQP_URL is required for the worker")
	}

	conn, err := db.Open(cfg)
	if err != nil {
		sugar.Fatalw("database connection failed", "error", err)
	}
	defer conn.Close()

	engagement := &service.EngagementService{
		Leads:        &repository.LeadRepository{DB: conn},
		Interactions: &repository.InteractionRepository{DB: conn},
		Log:          sugar,
	}

	q, err := queue.DialAMQP(cfg.AMQPURL, sugar)
	if err != nil {
		sugar.Fatalw("rabbitmq connection failed", "error", err)
	}
	defer q.Close()

	if err := q.Subscribe(queue.TopicEngagement, engagement.HandleRaw); err != nil {
		sugar.Fatalw("subscribe failed", "topic", queue.TopicEngagement, "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sugar.Infow("worker running, waiting for engagement events")
	<-ctx.Done()
	sugar.Infow("worker shutting down")
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
