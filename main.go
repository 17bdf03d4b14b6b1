package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/example/task-tracker/modules/api"
	"github.com/example/task-tracker/modules/task"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

// application is the mono app together with its modules.
type application struct {
	mono.MonoApplication
	tasks *task.Module
	api   *api.Module
}

// newApplication creates the mono app and registers the task and api modules.
// The api module declares its dependency on task, which fixes the start order.
func newApplication(cfg Config, opts ...mono.MonoFrameworkOption) (*application, error) {
	opts = append([]mono.MonoFrameworkOption{
		mono.WithShutdownTimeout(cfg.ShutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	}, opts...)

	app, err := mono.NewMonoApplication(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create mono application: %w", err)
	}

	logger := app.Logger()
	taskModule := task.NewModule(cfg.Task, logger)
	apiModule := api.NewModule(cfg.API, taskModule, logger)

	if err := app.Register(taskModule); err != nil {
		return nil, fmt.Errorf("failed to register task module: %w", err)
	}
	if err := app.Register(apiModule); err != nil {
		return nil, fmt.Errorf("failed to register api module: %w", err)
	}

	return &application{MonoApplication: app, tasks: taskModule, api: apiModule}, nil
}

func main() {
	log.Println("Starting task-tracker...")

	cfg := loadConfig()

	app, err := newApplication(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(cfg)

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo(cfg Config) {
	log.Println("Task tracker started successfully!")
	log.Printf("  Database driver: %s", cfg.Task.Driver)
	log.Printf("  HTTP API:        http://localhost%s/api/tasks", cfg.API.Addr)
	log.Printf("  Health:          http://localhost%s/health", cfg.API.Addr)
	if cfg.API.RateLimitMax > 0 {
		log.Printf("  Rate limit:      %d requests per %s", cfg.API.RateLimitMax, cfg.API.RateLimitWindow)
	}
	log.Printf("NATS services: services.task.{%s}", strings.Join(task.ServiceNames, ","))
	log.Println("Press Ctrl+C to trigger graceful shutdown")
}
