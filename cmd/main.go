// Package main is the entry point for the bot platform API gateway.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/term"

	"github.com/compresr/bot-gateway/internal/config"
	"github.com/compresr/bot-gateway/internal/gateway"
	"github.com/compresr/bot-gateway/internal/monitoring"
	"github.com/compresr/bot-gateway/internal/tui"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "serve", "start":
			runServe(os.Args[2:])
			return
		case "setup", "init":
			runSetup(os.Args[2:])
			return
		case "version", "-v", "--version":
			printVersion()
			return
		case "help", "-h", "--help":
			printHelp()
			return
		}
		tui.PrintError(fmt.Sprintf("unknown command %q", os.Args[1]))
		printHelp()
		os.Exit(1)
	}

	if term.IsTerminal(int(os.Stdin.Fd())) {
		runCommandPicker()
		return
	}
	printHelp()
}

// runCommandPicker is shown when the binary is run with no arguments
// from an interactive terminal, letting an operator pick a command
// with arrow keys instead of re-reading the help text every time.
func runCommandPicker() {
	tui.PrintBanner()
	items := []tui.MenuItem{
		{Label: "serve", Description: "start the gateway"},
		{Label: "setup", Description: "generate a config.yaml"},
		{Label: "version", Description: "print version information"},
		{Label: "help", Description: "show full usage"},
	}
	choice, err := tui.SelectMenu("What would you like to do?", items)
	if err != nil {
		tui.PrintError("cancelled")
		os.Exit(1)
	}
	switch items[choice].Label {
	case "serve":
		runServe(nil)
	case "setup":
		runSetup(nil)
	case "version":
		printVersion()
	case "help":
		printHelp()
	}
}

// loadEnvFiles loads .env from standard locations: a local .env
// overrides the per-user config directory's one. godotenv never
// overrides a variable that is already set, so the local file is
// loaded first, and neither file overrides the real environment.
func loadEnvFiles() {
	_ = godotenv.Load()
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return
	}
	userEnv := filepath.Join(homeDir, ".config", "bot-gateway", ".env")
	if _, err := os.Stat(userEnv); err == nil {
		_ = godotenv.Load(userEnv)
	}
}

func runServe(args []string) {
	loadEnvFiles()

	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	debug := fs.Bool("debug", false, "enable debug logging")
	noBanner := fs.Bool("no-banner", false, "suppress startup banner")
	_ = fs.Parse(args)

	if !*noBanner {
		tui.PrintBanner()
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		tui.PrintError(fmt.Sprintf("failed to load configuration: %v", err))
		os.Exit(1)
	}
	if *debug {
		cfg.Debug = true
		cfg.Logging.Level = "debug"
	}

	loggerCfg := monitoring.LoggerConfig{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Output: cfg.Logging.Output}
	logger := monitoring.New(loggerCfg)
	monitoring.Global(loggerCfg)

	logger.Info().
		Interface("config", cfg.SafeView()).
		Msg("bot gateway starting")

	gw := gateway.New(cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info().Msg("shutdown signal received")
		cancel()
	}()

	if err := gw.Run(ctx); err != nil && err != context.Canceled {
		logger.Error().Err(err).Msg("gateway exited with error")
		os.Exit(1)
	}
	logger.Info().Msg("bot gateway stopped")
}

func runSetup(args []string) {
	fs := flag.NewFlagSet("setup", flag.ExitOnError)
	outPath := fs.String("out", "config.yaml", "path to write the generated config file")
	_ = fs.Parse(args)

	if err := runSetupWizard(*outPath); err != nil {
		tui.PrintError(fmt.Sprintf("setup failed: %v", err))
		os.Exit(1)
	}
}

func printHelp() {
	tui.PrintBanner()
	fmt.Println("Bot Gateway - resilient API gateway for a remote bot platform")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  bot-gateway <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  serve        Start the gateway (tool surface + webhook receiver)")
	fmt.Println("  setup        Interactive wizard to generate a config.yaml")
	fmt.Println("  version      Print version information")
	fmt.Println("  help         Show this help message")
	fmt.Println()
	fmt.Println("Serve options:")
	fmt.Println("  --config FILE   path to config.yaml (falls back to environment variables)")
	fmt.Println("  --debug         enable debug logging")
	fmt.Println("  --no-banner     suppress the startup banner")
	fmt.Println()
	fmt.Println("Setup options:")
	fmt.Println("  --out FILE      where to write the generated config (default config.yaml)")
}
