package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/handiism/releasedash/internal/config"
	apphttp "github.com/handiism/releasedash/internal/http"
	"github.com/handiism/releasedash/internal/pipeline"
	"github.com/handiism/releasedash/internal/store"
	"github.com/handiism/releasedash/internal/tui"
	"github.com/hashicorp/go-hclog"
)

func main() {
	var (
		configFlag = flag.String("config", config.DefaultPath(), "Path to config file")
		logFlag    = flag.String("log", "", "Write debug logs to this file")
	)
	flag.Parse()

	if err := run(*configFlag, *logFlag); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, logPath string) error {
	settings, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	// the terminal belongs to the dashboard, so logs go to a file or nowhere
	var logOutput io.Writer = io.Discard
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return err
		}
		defer f.Close()
		logOutput = f
	}
	logger := hclog.New(&hclog.LoggerOptions{
		Name:   "releasedash-tui",
		Level:  hclog.Debug,
		Output: logOutput,
	})

	ctx := context.Background()
	client := apphttp.NewClient()
	st, closeStore, err := store.Open(ctx, settings, client, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	onProgress, events := tui.EventChannel()
	manager := pipeline.FromSettings(settings, st, client, logger, onProgress)
	return tui.Run(settings, manager, events)
}
