package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pnu-aid/campus-faq/internal/bootstrap"
	"github.com/pnu-aid/campus-faq/internal/config"
	"github.com/pnu-aid/campus-faq/internal/core/domain"
	"github.com/pnu-aid/campus-faq/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, "campus-faq-worker", cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	m := metrics.NewWorkerMetrics("campus-faq-worker")
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		log.Printf("worker metrics on :%s", cfg.WorkerMetricsPort)
		if err := http.ListenAndServe(":"+cfg.WorkerMetricsPort, mux); err != nil && err != http.ErrServerClosed {
			log.Printf("worker metrics server error: %v", err)
		}
	}()

	log.Printf("worker subscribed to %s", cfg.NATSSubject)
	err = app.Queue.SubscribeDocumentStored(ctx, func(handlerCtx context.Context, kind domain.DocumentKind, documentID int64) error {
		indexCtx, cancel := context.WithTimeout(handlerCtx, 5*time.Minute)
		defer cancel()

		m.StartDocument()
		start := time.Now()
		indexErr := app.IndexUC.Index(indexCtx, kind, documentID)
		m.FinishDocument("campus-faq-worker", string(kind), time.Since(start), indexErr)
		return indexErr
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}
