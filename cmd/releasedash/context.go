package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/handiism/releasedash/internal/config"
	apphttp "github.com/handiism/releasedash/internal/http"
	"github.com/handiism/releasedash/internal/pipeline"
	"github.com/handiism/releasedash/internal/progress"
	"github.com/handiism/releasedash/internal/store"
	"github.com/hashicorp/go-hclog"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

type commandContext struct {
	configFlag  *string
	verboseFlag *bool

	configOnce sync.Once
	config     *config.Settings
	configErr  error

	loggerOnce sync.Once
	logger     hclog.Logger
}

func newCommandContext(configFlag *string, verboseFlag *bool) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		verboseFlag: verboseFlag,
	}
}

func (c *commandContext) configPath() string {
	if c.configFlag != nil {
		if path := strings.TrimSpace(*c.configFlag); path != "" {
			return path
		}
	}
	return config.DefaultPath()
}

func (c *commandContext) verbose() bool {
	return c.verboseFlag != nil && *c.verboseFlag
}

func (c *commandContext) ensureConfig() (*config.Settings, error) {
	c.configOnce.Do(func() {
		path := c.configPath()
		settings, err := config.Load(path)
		if err != nil {
			c.configErr = fmt.Errorf("load config %s: %w", path, err)
			return
		}
		if err := settings.Validate(); err != nil {
			c.configErr = fmt.Errorf("invalid config %s: %w", path, err)
			return
		}
		c.config = settings
	})
	return c.config, c.configErr
}

func (c *commandContext) log() hclog.Logger {
	c.loggerOnce.Do(func() {
		level := hclog.Warn
		if c.verbose() {
			level = hclog.Debug
		}
		color := hclog.ColorOff
		if isTerminal(os.Stderr) {
			color = hclog.ForceColor
		}
		c.logger = hclog.New(&hclog.LoggerOptions{
			Name:   "releasedash",
			Level:  level,
			Output: os.Stderr,
			Color:  color,
		})
	})
	return c.logger
}

// printer returns a progress callback that writes human-readable events.
func (c *commandContext) printer(w io.Writer) progress.Func {
	verbose := c.verbose()
	return func(e progress.Event) {
		if e.Level == progress.LevelVerbose && !verbose {
			return
		}

		prefix := "  "
		switch e.Level {
		case progress.LevelError:
			prefix = "✗ "
		case progress.LevelWarning:
			prefix = "! "
		case progress.LevelSuccess:
			prefix = "✓ "
		case progress.LevelInfo:
			prefix = "› "
		}
		fmt.Fprintln(w, prefix+e.Message)
	}
}

// withPipeline opens the cache and builds a refresh Manager around it.
func (c *commandContext) withPipeline(ctx context.Context, onProgress progress.Func, fn func(*pipeline.Manager) error) error {
	settings, err := c.ensureConfig()
	if err != nil {
		return err
	}

	client := apphttp.NewClient()
	st, closeStore, err := store.Open(ctx, settings, client, c.log())
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer closeStore()

	return fn(pipeline.FromSettings(settings, st, client, c.log(), onProgress))
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func isTerminalWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isTerminal(f)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
