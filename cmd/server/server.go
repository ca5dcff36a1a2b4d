package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"answerdesk/chat-api/internal/config"
	"answerdesk/chat-api/internal/infrastructure/crontab"
	"answerdesk/chat-api/internal/infrastructure/logger"
	"answerdesk/chat-api/internal/infrastructure/metrics"
	"answerdesk/chat-api/internal/infrastructure/observability"
	"answerdesk/chat-api/internal/interfaces/httpserver"

	_ "net/http/pprof"
)

type Application struct {
	httpServer *httpserver.HTTPServer
	crontab    *crontab.Crontab
	config     *config.Config
}

func (application *Application) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var eg errgroup.Group
	eg.Go(func() error {
		err := http.ListenAndServe(fmt.Sprintf("0.0.0.0:%d", application.config.PprofPort), nil)
		if err != nil {
			cancel()
		}
		return err
	})
	eg.Go(func() error {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		err := http.ListenAndServe(fmt.Sprintf("0.0.0.0:%d", application.config.MetricsPort), mux)
		if err != nil {
			cancel()
		}
		return err
	})
	eg.Go(func() error {
		err := application.crontab.Run(ctx)
		if err != nil {
			cancel()
		}
		return err
	})
	eg.Go(func() error {
		err := application.httpServer.Run()
		if err != nil {
			cancel()
		}
		return err
	})

	if err := eg.Wait(); err != nil {
		panic(err)
	}
}

// @title AnswerDesk Chat API
// @version 1.0
// @description Multi-tenant AI support assistant: tenant-scoped retrieval, confidence-scored answers, and human escalation.
// @BasePath /
func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.GetLogger()
		bootLog.Fatal().Err(err).Msg("load config")
	}
	log, _ := logger.New(cfg.LogLevel, cfg.LogFormat)

	otelShutdown, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("initialize observability")
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := otelShutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("shutdown telemetry")
			}
		}()
	}

	application, err := CreateApplication(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("create application")
	}

	application.Start()
}
