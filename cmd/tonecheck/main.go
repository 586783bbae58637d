// Command tonecheck analyzes one message and prints the result to the
// terminal. The text comes from the arguments or, when there are none,
// from stdin.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/xaenox/tonebuddy/internal/analyzer"
	"github.com/xaenox/tonebuddy/internal/render"
	"github.com/xaenox/tonebuddy/pkg/config"
)

var styleError = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the config file")
	raw := flag.Bool("json", false, "print the model answer as JSON")
	verbose := flag.Bool("v", false, "log provider calls to stderr")
	flag.Parse()

	if err := run(*configPath, *raw, *verbose, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, styleError.Render("Ошибка: "+err.Error()))
		os.Exit(1)
	}
}

func run(configPath string, raw, verbose bool, args []string) error {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}

	logger := zap.NewNop()
	if verbose {
		if logger, err = zap.NewDevelopment(); err != nil {
			return err
		}
	}
	defer logger.Sync()

	text, err := readText(args, os.Stdin)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := analyzer.NewGPTAnalyzer(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model, cfg.OpenAI.Temperature, logger)
	analysis, err := a.Analyze(ctx, text)
	if err != nil {
		return err
	}

	if raw {
		_, err = fmt.Fprintln(os.Stdout, string(analysis.Raw))
		return err
	}
	_, err = fmt.Fprint(os.Stdout, render.Terminal(render.NewView(&analysis.Result)))
	return err
}

func readText(args []string, stdin io.Reader) (string, error) {
	text := strings.Join(args, " ")
	if len(args) == 0 {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		text = string(data)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("no text")
	}
	return text, nil
}
