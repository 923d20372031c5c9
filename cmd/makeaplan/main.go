package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jlawman/makeaplan-cli/internal/app"
	"github.com/jlawman/makeaplan-cli/internal/tui"
)

const version = "1.0.0"

// runtime bundles the pieces every command needs.
type runtime struct {
	cfg      app.Config
	cfgPath  string
	store    *app.FileSessionStore
	exporter *app.Exporter
	logger   *app.Logger
}

func newRuntime() (*runtime, error) {
	cfgPath := app.DefaultConfigPath()
	cfg, err := app.LoadConfig(cfgPath)
	if err != nil {
		return nil, err
	}

	logger := app.NewLogger(openLogFile())
	return &runtime{
		cfg:      cfg,
		cfgPath:  cfgPath,
		store:    app.NewFileSessionStore(cfg.SessionsDir, logger),
		exporter: app.NewExporter(""),
		logger:   logger,
	}, nil
}

func openLogFile() *os.File {
	path := app.DefaultLogPath()
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil
	}
	return f
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println()
		tui.WarningMsg("Interrupted. Session saved.")
		os.Exit(0)
	}()

	root := &cobra.Command{
		Use:     "makeaplan",
		Short:   "AI-powered product specification generator",
		Long:    "makeaplan guides you from a raw product idea to a technical specification\nand file structure through rounds of AI-generated questions.",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMenu(ctx)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	newCmd := &cobra.Command{
		Use:   "new",
		Short: "Start a new product specification",
		RunE: func(cmd *cobra.Command, args []string) error {
			idea, _ := cmd.Flags().GetString("idea")
			skip, _ := cmd.Flags().GetBool("skip-questions")
			mock, _ := cmd.Flags().GetBool("mock")
			return runNew(ctx, newOptions{idea: idea, skipQuestions: skip, mock: mock})
		},
	}
	newCmd.Flags().StringP("idea", "i", "", "Product idea to start with")
	newCmd.Flags().BoolP("skip-questions", "s", false, "Skip configuration questions and use defaults")
	newCmd.Flags().Bool("mock", false, "Use a mock generator (no API calls)")
	root.AddCommand(newCmd)

	resumeCmd := &cobra.Command{
		Use:   "resume",
		Short: "Resume a previous session",
		RunE: func(cmd *cobra.Command, args []string) error {
			mock, _ := cmd.Flags().GetBool("mock")
			return runResume(ctx, mock)
		},
	}
	resumeCmd.Flags().Bool("mock", false, "Use a mock generator (no API calls)")
	root.AddCommand(resumeCmd)

	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList()
		},
	}
	root.AddCommand(listCmd)

	exportCmd := &cobra.Command{
		Use:   "export [sessionId]",
		Short: "Export a session to markdown or JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := ""
			if len(args) > 0 {
				id = args[0]
			}
			format, _ := cmd.Flags().GetString("format")
			return runExport(id, format)
		},
	}
	exportCmd.Flags().StringP("format", "f", "", "Export format: markdown, json, or both")
	root.AddCommand(exportCmd)

	cleanCmd := &cobra.Command{
		Use:   "clean",
		Short: "Clean old sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			days, _ := cmd.Flags().GetInt("days")
			force, _ := cmd.Flags().GetBool("force")
			return runClean(days, force)
		},
	}
	cleanCmd.Flags().IntP("days", "d", 30, "Keep sessions newer than this many days")
	cleanCmd.Flags().BoolP("force", "f", false, "Skip confirmation prompt")
	root.AddCommand(cleanCmd)

	configCmd := &cobra.Command{
		Use:   "config [reset|keys]",
		Short: "Manage configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			action := ""
			if len(args) > 0 {
				action = args[0]
			}
			return runConfig(action)
		},
	}
	root.AddCommand(configCmd)

	if err := root.Execute(); err != nil {
		if errors.Is(err, tui.ErrInterrupted) {
			fmt.Println()
			tui.WarningMsg("Interrupted. Session saved.")
			os.Exit(0)
		}
		tui.ErrorMsg(err.Error())
		os.Exit(1)
	}
}
