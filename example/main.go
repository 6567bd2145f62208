package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/st-keller/hostfacts"
	"github.com/st-keller/hostfacts/fact"
	"github.com/st-keller/hostfacts/options"
	"github.com/st-keller/hostfacts/registry"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	opts := options.Default()
	opts.ApplyEnv()

	// Built-in facts are registered automatically; extra definitions add
	// application facts next to them.
	client, err := hostfacts.New(hostfacts.Config{
		Options: opts,
		Logger:  logger,
		Definitions: []registry.Definition{
			{
				Name: "app.deploy",
				Provider: func(context.Context, *registry.Cache) []fact.Resolved {
					return []fact.Resolved{fact.New("app.deploy", map[string]any{
						"environment": "staging",
						"replicas":    3,
					})}
				},
			},
		},
	})
	if err != nil {
		logger.Fatal("failed to create hostfacts client", zap.Error(err))
	}

	// Example 1: single facts and sub-values
	result, err := client.Resolve(ctx, "os.name", "os.release.major", "app.deploy.replicas", "memory.system.capacity")
	if err != nil {
		logger.Fatal("failed to resolve facts", zap.Error(err))
	}
	for query, value := range result.Values() {
		logger.Info("fact", zap.String("query", query), zap.Any("value", value))
	}

	// Example 2: a whole group; the uname probe behind kernel and
	// os.architecture already ran and is not repeated
	result, err = client.Resolve(ctx, "os")
	if err != nil {
		logger.Fatal("failed to resolve facts", zap.Error(err))
	}
	osFacts, _ := result.Lookup("os")
	logger.Info("os group", zap.Any("os", osFacts))

	// Example 3: probe timings
	for _, timing := range client.Timings() {
		logger.Info("probe",
			zap.String("resolver", timing.Resolver),
			zap.Int("calls", timing.Calls),
			zap.Int("failures", timing.Failures),
			zap.Duration("total", timing.Total),
		)
	}
}
