package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/asasingh14/novastream/internal/config"
	"github.com/asasingh14/novastream/internal/download"
	"github.com/asasingh14/novastream/internal/logging"
	"github.com/asasingh14/novastream/internal/queue"
)

type commandContext struct {
	configFlag   *string
	queueFlag    *string
	logLevelFlag *string
	verboseFlag  *bool

	configOnce sync.Once
	settings   *config.Settings
	configErr  error
}

func newCommandContext(configFlag, queueFlag, logLevelFlag *string, verboseFlag *bool) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		queueFlag:    queueFlag,
		logLevelFlag: logLevelFlag,
		verboseFlag:  verboseFlag,
	}
}

// ensureConfig loads .env, the config file and flag overrides once.
func (c *commandContext) ensureConfig() (*config.Settings, error) {
	c.configOnce.Do(func() {
		if err := config.LoadDotEnv(); err != nil {
			c.configErr = err
			return
		}

		path := config.DefaultPath()
		if c.configFlag != nil && strings.TrimSpace(*c.configFlag) != "" {
			path = strings.TrimSpace(*c.configFlag)
		}
		settings, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			settings.LogLevel = strings.TrimSpace(*c.logLevelFlag)
		}
		if c.queueFlag != nil && strings.TrimSpace(*c.queueFlag) != "" {
			settings.QueueFile = strings.TrimSpace(*c.queueFlag)
		}
		if err := settings.Validate(); err != nil {
			c.configErr = fmt.Errorf("config %s: %w", path, err)
			return
		}
		c.settings = settings
	})
	return c.settings, c.configErr
}

func (c *commandContext) verbose() bool {
	return c.verboseFlag != nil && *c.verboseFlag
}

func (c *commandContext) logger(w io.Writer) *slog.Logger {
	level := "info"
	if c.settings != nil {
		level = c.settings.LogLevel
	}
	if c.verbose() {
		level = "debug"
	}
	return logging.NewConsole(w, level)
}

func (c *commandContext) openQueue() (*queue.Store, error) {
	settings, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return queue.Open(settings.QueueFile)
}

// session bundles a manager with its console reporter.
type session struct {
	settings *config.Settings
	manager  *download.Manager
	reporter *reporter
	logger   *slog.Logger
}

// newSession wires a download manager that reports to the command's
// output. total answers the episode-count prompt non-interactively when
// positive.
func (c *commandContext) newSession(cmd *cobra.Command, total int) (*session, error) {
	settings, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger := c.logger(cmd.ErrOrStderr())
	rep := newReporter(cmd.OutOrStdout(), c.verbose())
	deps := download.NewDeps(settings, logger)
	manager := download.NewManager(settings, deps, newPrompter(total), rep.event)
	return &session{settings: settings, manager: manager, reporter: rep, logger: logger}, nil
}

// run downloads one request with progress tracking.
func (s *session) run(ctx context.Context, req download.Request) (*download.Summary, error) {
	stop := s.reporter.track(s.manager)
	defer stop()
	return s.manager.Run(ctx, req)
}

// withInterrupt returns a context cancelled by SIGINT or SIGTERM. The first
// signal also calls onSignal, which kills running transcoders.
func withInterrupt(parent context.Context, w io.Writer, onSignal func()) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(w, "\nInterrupted, cancelling...")
			if onSignal != nil {
				onSignal()
			}
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigCh)
		cancel()
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

// sessionRunner runs requests through a session's progress tracking.
type sessionRunner struct {
	sess *session
}

func (r sessionRunner) Run(ctx context.Context, req download.Request) (*download.Summary, error) {
	return r.sess.run(ctx, req)
}
