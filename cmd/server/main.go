package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/thisisjab/mongozilla/api"
	"github.com/thisisjab/mongozilla/compiler"
	"github.com/thisisjab/mongozilla/config"
	"gopkg.in/yaml.v3"
)

func main() {
	// Create a context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())

	cfgPath := flag.String("config", "./.config.yaml", "path to config file")
	flag.Parse()

	fileContent, err := os.ReadFile(*cfgPath)
	if err != nil {
		panic(fmt.Errorf("cannot read config file content: %w", err))
	}

	var cfg config.Config
	if err := yaml.Unmarshal(fileContent, &cfg); err != nil {
		panic(fmt.Errorf("cannot parse config file: %w", err))
	}

	components, logger, err := cfg.Parse()
	if err != nil {
		if logger != nil {
			logger.Error("cannot parse config file", "error", err)
			os.Exit(1)
		}
		panic(fmt.Errorf("cannot parse config file: %w", err))
	}

	// Setup signal handling to catch Ctrl+C (SIGINT) or Terminate (SIGTERM)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("received signal. shutting down.", "signal", sig)
		cancel()
	}()

	if err := components.Storage.Connect(ctx); err != nil {
		logger.Error("storage error.", "error", err)
		os.Exit(1)
	}
	defer components.Storage.Close(context.Background()) //nolint:errcheck

	// Reload schemas when the schema file changes
	if components.Schemas != nil {
		go func() {
			if err := components.Schemas.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("schema watcher stopped.", "error", err)
			}
		}()
	}

	// Create server
	server, err := api.NewServer(components.API, logger, api.Services{
		Storage:    components.Storage,
		Translator: compiler.NewTranslator(logger),
		Schemas:    components.Schemas,
		Transforms: components.Transforms,
	})

	if err != nil {
		logger.Error("server error.", "error", err)
		os.Exit(1)
	}

	// Run server
	if err := server.Serve(ctx); err != nil {
		logger.Error("server error.", "error", err)
		cancel()
		os.Exit(1)
	}

	logger.Info("server stopped.")
}
