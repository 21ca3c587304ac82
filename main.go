package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
	"github.com/joho/godotenv"

	"github.com/example/chat-relay/modules/activity"
	"github.com/example/chat-relay/modules/httpserver"
	"github.com/example/chat-relay/modules/media"
	"github.com/example/chat-relay/modules/presence"
	"github.com/example/chat-relay/modules/relay"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn(".env file not found, using system environment variables")
	}

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Create modules. The session registry is constructed at startup and
	// handed explicitly to the relay and the HTTP adapter.
	presenceModule := presence.NewModule()
	mediaModule := media.NewModule()
	relayModule := relay.NewModule(presenceModule.Registry())
	activityModule := activity.NewModule()
	httpModule := httpserver.NewModule(presenceModule.Registry(), mediaModule, activityModule)

	// Inject the broadcast hub into the HTTP module.
	// (Done manually because the hub is not exposed via ServiceContainer.)
	httpModule.SetHub(relayModule.Hub())

	// Register modules: independent modules first, then dependents.
	for _, m := range []mono.Module{
		presenceModule,
		mediaModule,
		relayModule,
		activityModule,
		httpModule,
	} {
		if err := app.Register(m); err != nil {
			log.Fatalf("Failed to register %s module: %v", m.Name(), err)
		}
	}

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				slog.Info("graceful shutdown initiated")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	slog.Info("application exited", "code", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	slog.Info("chat relay started", "url", "http://localhost:"+port)
	slog.Info("endpoints",
		"ws", "/ws",
		"upload", "POST /upload",
		"media", "/uploads/:name",
		"roster", "/api/roster",
		"activity", "/api/activity",
		"health", "/health")
}
