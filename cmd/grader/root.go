package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kitbuilder587/webarch-grader/internal/config"
	"github.com/kitbuilder587/webarch-grader/internal/render/chrome"
	"github.com/kitbuilder587/webarch-grader/internal/rubric"
)

var rubricFile string

var rootCmd = &cobra.Command{
	Use:   "grader",
	Short: "HTML/CSS exercise grading engine",
	Long: `grader checks learner submissions for the HTML/CSS course.

Each exercise has a rubric. Structure exercises are checked statically,
style, layout and project exercises are rendered in headless Chrome and
inspected through computed styles.

Configuration comes from the environment (LOG_LEVEL, CHROME_PATH,
VIEWPORT_WIDTH, DATABASE_URL, ...). Flags override the rubric source.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rubricFile, "rubrics", "", "YAML rubric catalog (defaults to RUBRIC_FILE or the built-in catalog)")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(rubricsCmd)
}

// loadCatalog: флаг, затем fallback (RUBRIC_FILE), затем встроенный каталог
func loadCatalog(fallback string) (*rubric.Catalog, string, error) {
	path := rubricFile
	if path == "" {
		path = fallback
	}
	if path == "" {
		return rubric.Default(), "", nil
	}
	c, err := rubric.LoadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("load rubrics from %s: %w", path, err)
	}
	return c, path, nil
}

func newLauncher(cfg *config.Config, logger *zap.Logger) *chrome.Launcher {
	return chrome.NewLauncher(chrome.Config{
		ExecPath:        cfg.Browser.ExecPath,
		Headless:        cfg.Browser.Headless,
		Width:           cfg.Browser.ViewportWidth,
		Height:          cfg.Browser.ViewportHeight,
		PageLoadTimeout: cfg.Browser.PageLoadTimeout,
		ScriptTimeout:   cfg.Browser.ScriptTimeout,
		SessionTimeout:  cfg.Browser.SessionTimeout,
		SettleDelay:     cfg.Browser.SettleDelay,
	}, logger)
}

func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}
	return cfg, logger, nil
}
