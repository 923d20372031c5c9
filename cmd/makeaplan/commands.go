package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/muesli/reflow/truncate"

	"github.com/jlawman/makeaplan-cli/internal/app"
	"github.com/jlawman/makeaplan-cli/internal/tui"
)

type newOptions struct {
	idea          string
	skipQuestions bool
	mock          bool
}

func runNew(ctx context.Context, opts newOptions) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}

	tui.Banner()

	idea := strings.TrimSpace(opts.idea)
	if idea == "" {
		if idea, err = tui.AskForIdea(); err != nil {
			return err
		}
	}

	var sessCfg app.SessionConfig
	if opts.skipQuestions {
		sessCfg = app.DefaultSessionConfig(rt.cfg.DefaultProvider)
	} else {
		tui.Header("Configuration")
		if sessCfg, err = tui.AskSessionConfig(rt.cfg.DefaultProvider); err != nil {
			return err
		}
	}

	sess, err := rt.store.Create(idea, sessCfg)
	if err != nil {
		return err
	}
	tui.SuccessMsg("Session created: " + sess.ID)

	gen, err := rt.buildGenerator(sessCfg, opts.mock)
	if err != nil {
		return err
	}

	return rt.runWorkflow(ctx, sess, gen)
}

func runResume(ctx context.Context, mock bool) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}

	summaries := rt.store.List()
	if len(summaries) == 0 {
		tui.WarningMsg("No sessions found. Starting a new session...")
		return runNew(ctx, newOptions{mock: mock})
	}

	tui.Header("Resume Session")
	id, err := tui.SelectSession(summaries)
	if err != nil {
		return err
	}
	if id == "" {
		return nil
	}

	sess, err := rt.store.Load(id)
	if err != nil {
		return err
	}
	tui.SuccessMsg("Resuming session: " + truncate.StringWithTail(sess.Idea, 50, "..."))

	gen, err := rt.buildGenerator(sess.Config, mock)
	if err != nil {
		return err
	}

	return rt.runWorkflow(ctx, sess, gen)
}

func (rt *runtime) runWorkflow(ctx context.Context, sess *app.Session, gen app.Generator) error {
	engine := &app.Engine{
		Store:    rt.store,
		Gen:      gen,
		Prompt:   tui.NewTerminalPrompter(),
		Exporter: rt.exporter,
		UI:       tui.NewConsoleReporter(),
		Logger:   rt.logger,
	}
	if err := engine.Run(ctx, sess); err != nil {
		return err
	}
	tui.Goodbye()
	return nil
}

// buildGenerator resolves the provider client, prompting for an API key when
// neither the environment nor the stored config has one.
func (rt *runtime) buildGenerator(sessCfg app.SessionConfig, mock bool) (app.Generator, error) {
	if mock {
		return tui.WithSpinner(app.NewMockGenerator()), nil
	}

	provider := sessCfg.Provider
	if provider == "" {
		provider = rt.cfg.DefaultProvider
	}
	if err := app.ValidateProvider(provider); err != nil {
		return nil, err
	}

	if rt.cfg.APIKey(provider) == "" {
		key, save, err := tui.AskAPIKey(provider)
		if err != nil {
			return nil, err
		}
		switch provider {
		case app.ProviderAnthropic:
			rt.cfg.AnthropicAPIKey = key
		case app.ProviderOpenAI:
			rt.cfg.OpenAIAPIKey = key
		}
		if save {
			if err := app.SaveConfig(rt.cfg, rt.cfgPath); err != nil {
				return nil, err
			}
			tui.SuccessMsg("API key saved")
		}
	}

	gen, err := app.NewGenerator(rt.cfg, sessCfg)
	if err != nil {
		return nil, err
	}
	return tui.WithSpinner(gen), nil
}

func runList() error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}

	summaries := rt.store.List()
	tui.Header("Your Sessions")

	if len(summaries) == 0 {
		tui.InfoMsg("No sessions found. Start a new session with: makeaplan new")
		return nil
	}

	fmt.Println()
	fmt.Printf("  %-10s %-42s %-18s %s\n", "ID", "Idea", "Status", "Updated")
	fmt.Printf("  %-10s %-42s %-18s %s\n",
		strings.Repeat("─", 8), strings.Repeat("─", 40), strings.Repeat("─", 16), strings.Repeat("─", 9))

	for _, s := range summaries {
		idea := truncate.StringWithTail(s.Idea, 40, "...")
		fmt.Printf("  %-10s %-42s %-18s %s\n",
			s.ID,
			idea,
			tui.StepColor(s.Step).Render(s.Step.Label()),
			tui.FormatRelativeTime(s.UpdatedAt))
	}

	fmt.Println()
	tui.InfoMsg(fmt.Sprintf("Total sessions: %d", len(summaries)))
	fmt.Println()
	fmt.Println("Resume a session with: makeaplan resume")
	fmt.Println("Export a session with: makeaplan export <session-id>")
	return nil
}

func runExport(id, formatFlag string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}

	if id == "" {
		summaries := rt.store.List()
		if len(summaries) == 0 {
			tui.WarningMsg("No sessions found.")
			return nil
		}
		if id, err = tui.SelectSession(summaries); err != nil {
			return err
		}
		if id == "" {
			return nil
		}
	}

	sess, err := rt.store.Load(id)
	if err != nil {
		return err
	}

	tui.Header("Export Session")
	tui.KeyValue("Session ID", sess.ID)
	tui.KeyValue("Idea", truncate.StringWithTail(sess.Idea, 50, "..."))
	tui.KeyValue("Created", sess.CreatedAt.Format("2006-01-02"))
	fmt.Println()

	var format app.ExportFormat
	if formatFlag != "" {
		if format, err = app.ParseExportFormat(formatFlag); err != nil {
			return err
		}
	} else {
		prompter := tui.NewTerminalPrompter()
		if format, err = prompter.SelectExportFormat(); err != nil {
			return err
		}
	}

	files, err := rt.exporter.ExportSession(sess, format)
	if err != nil {
		return err
	}

	lines := append([]string{"Export complete!", ""}, files...)
	tui.Box("Success", lines)
	return nil
}

func runClean(days int, force bool) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	return rt.cleanSessions(days, force, tui.Confirm)
}

// cleanSessions previews stale sessions and deletes them once confirmed.
// Declining the confirmation leaves every session in place.
func (rt *runtime) cleanSessions(days int, force bool, confirm func(prompt string, defaultYes bool) (bool, error)) error {
	if days < 0 {
		return &app.ValidationError{Msg: "invalid days value: must be a positive number"}
	}

	tui.Header("Clean Old Sessions")

	summaries := rt.store.List()
	var stale []app.SessionSummary
	cutoff := cutoffDaysAgo(days)
	for _, s := range summaries {
		if s.UpdatedAt.Before(cutoff) {
			stale = append(stale, s)
		}
	}

	if len(stale) == 0 {
		tui.InfoMsg(fmt.Sprintf("No sessions older than %d days found.", days))
		return nil
	}

	fmt.Println()
	tui.WarningMsg(fmt.Sprintf("Found %d sessions older than %d days:", len(stale), days))
	fmt.Println()
	for _, s := range stale {
		fmt.Printf("  • %s (%s)\n", s.Idea, tui.FormatRelativeTime(s.UpdatedAt))
	}
	fmt.Println()

	confirmed := force
	if !confirmed {
		var err error
		if confirmed, err = confirm(fmt.Sprintf("Delete %d old sessions?", len(stale)), false); err != nil {
			return err
		}
	}
	if !confirmed {
		tui.InfoMsg("Cleanup cancelled.")
		return nil
	}

	deleted, err := rt.store.CleanOlderThan(days)
	if err != nil {
		return err
	}
	tui.SuccessMsg(fmt.Sprintf("Deleted %d old sessions.", deleted))
	return nil
}

func runConfig(action string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}

	switch action {
	case "":
		tui.Header("Configuration")
		tui.KeyValue("Default Provider", rt.cfg.DefaultProvider)
		tui.KeyValue("Sessions Directory", rt.cfg.SessionsDir)
		tui.KeyValue("Output Directory", "Current working directory")
		tui.KeyValue("Anthropic API Key", maskKey(rt.cfg.AnthropicAPIKey))
		tui.KeyValue("OpenAI API Key", maskKey(rt.cfg.OpenAIAPIKey))
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  makeaplan config reset    - Reset all settings")
		fmt.Println("  makeaplan config keys     - Manage API keys")
		return nil

	case "reset":
		confirmed, err := tui.Confirm("Reset all configuration to defaults?", false)
		if err != nil {
			return err
		}
		if !confirmed {
			tui.InfoMsg("Reset cancelled.")
			return nil
		}
		if err := app.SaveConfig(app.DefaultConfig(), rt.cfgPath); err != nil {
			return err
		}
		tui.SuccessMsg("Configuration reset to defaults.")
		return nil

	case "keys":
		return rt.manageKeys()

	default:
		return &app.ValidationError{Msg: fmt.Sprintf("unknown config action %q: use reset or keys", action)}
	}
}

func (rt *runtime) manageKeys() error {
	choice, err := tui.RunMenu("API Key Management:", []tui.MenuItem{
		{Label: "Clear all API keys", Value: "clear"},
		{Label: "Update Anthropic API key", Value: app.ProviderAnthropic},
		{Label: "Update OpenAI API key", Value: app.ProviderOpenAI},
		{Label: "← Back", Value: "back"},
	})
	if err != nil {
		return err
	}

	switch choice {
	case "clear":
		rt.cfg.AnthropicAPIKey = ""
		rt.cfg.OpenAIAPIKey = ""
		if err := app.SaveConfig(rt.cfg, rt.cfgPath); err != nil {
			return err
		}
		tui.SuccessMsg("API keys cleared")
		return nil

	case app.ProviderAnthropic, app.ProviderOpenAI:
		key, _, err := tui.AskAPIKey(choice)
		if err != nil {
			return err
		}
		if choice == app.ProviderAnthropic {
			rt.cfg.AnthropicAPIKey = key
		} else {
			rt.cfg.OpenAIAPIKey = key
		}
		if err := app.SaveConfig(rt.cfg, rt.cfgPath); err != nil {
			return err
		}
		tui.SuccessMsg(choice + " API key updated.")
		return nil

	default:
		return nil
	}
}

func runMenu(ctx context.Context) error {
	tui.Banner()

	choice, err := tui.RunMenu("What would you like to do?", []tui.MenuItem{
		{Label: "Start a new product specification", Value: "new"},
		{Label: "Resume a previous session", Value: "resume"},
		{Label: "List all sessions", Value: "list"},
		{Label: "Configuration", Value: "config"},
		{Label: "Exit", Value: "exit"},
	})
	if err != nil {
		return err
	}

	switch choice {
	case "new":
		return runNew(ctx, newOptions{})
	case "resume":
		return runResume(ctx, false)
	case "list":
		return runList()
	case "config":
		return runConfig("")
	default:
		tui.Goodbye()
		return nil
	}
}

func cutoffDaysAgo(days int) time.Time {
	return time.Now().AddDate(0, 0, -days)
}

func maskKey(key string) string {
	if key == "" {
		return "Not set"
	}
	if len(key) <= 4 {
		return "***"
	}
	return "***" + key[len(key)-4:]
}
