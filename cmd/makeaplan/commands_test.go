package main

import (
	"errors"
	"testing"
	"time"

	"github.com/jlawman/makeaplan-cli/internal/app"
)

func newTestRuntime(t *testing.T) *runtime {
	t.Helper()
	logger := app.NewLogger(nil)
	return &runtime{
		store:    app.NewFileSessionStore(t.TempDir(), logger),
		exporter: app.NewExporter(t.TempDir()),
		logger:   logger,
	}
}

func seedStaleSessions(t *testing.T, rt *runtime, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if _, err := rt.store.Create("old idea", app.DefaultSessionConfig(app.ProviderAnthropic)); err != nil {
			t.Fatal(err)
		}
	}
	// A zero-day clean treats anything saved before "now" as stale.
	time.Sleep(5 * time.Millisecond)
}

func TestCleanSessions_DeclineDeletesNothing(t *testing.T) {
	rt := newTestRuntime(t)
	seedStaleSessions(t, rt, 2)

	confirms := 0
	decline := func(prompt string, defaultYes bool) (bool, error) {
		confirms++
		if defaultYes {
			t.Fatal("deletion confirm must default to no")
		}
		return false, nil
	}

	if err := rt.cleanSessions(0, false, decline); err != nil {
		t.Fatalf("cleanSessions: %v", err)
	}
	if confirms != 1 {
		t.Fatalf("confirm called %d times, want 1", confirms)
	}
	if got := rt.store.List(); len(got) != 2 {
		t.Fatalf("sessions after decline = %d, want 2", len(got))
	}
}

func TestCleanSessions_ConfirmDeletesStale(t *testing.T) {
	rt := newTestRuntime(t)
	seedStaleSessions(t, rt, 2)

	accept := func(string, bool) (bool, error) { return true, nil }
	if err := rt.cleanSessions(0, false, accept); err != nil {
		t.Fatalf("cleanSessions: %v", err)
	}
	if got := rt.store.List(); len(got) != 0 {
		t.Fatalf("sessions after confirm = %d, want 0", len(got))
	}
}

func TestCleanSessions_ForceSkipsConfirm(t *testing.T) {
	rt := newTestRuntime(t)
	seedStaleSessions(t, rt, 1)

	noConfirm := func(string, bool) (bool, error) {
		t.Fatal("force clean must not prompt")
		return false, nil
	}
	if err := rt.cleanSessions(0, true, noConfirm); err != nil {
		t.Fatalf("cleanSessions: %v", err)
	}
	if got := rt.store.List(); len(got) != 0 {
		t.Fatalf("sessions after force clean = %d, want 0", len(got))
	}
}

func TestCleanSessions_NothingStaleSkipsConfirm(t *testing.T) {
	rt := newTestRuntime(t)
	if _, err := rt.store.Create("fresh idea", app.DefaultSessionConfig(app.ProviderAnthropic)); err != nil {
		t.Fatal(err)
	}

	noConfirm := func(string, bool) (bool, error) {
		t.Fatal("nothing stale, must not prompt")
		return false, nil
	}
	if err := rt.cleanSessions(30, false, noConfirm); err != nil {
		t.Fatalf("cleanSessions: %v", err)
	}
	if got := rt.store.List(); len(got) != 1 {
		t.Fatalf("sessions = %d, want 1", len(got))
	}
}

func TestCleanSessions_NegativeDaysRejected(t *testing.T) {
	rt := newTestRuntime(t)

	err := rt.cleanSessions(-1, false, func(string, bool) (bool, error) { return true, nil })
	if err == nil {
		t.Fatal("negative days accepted")
	}
	var ve *app.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error = %T, want *ValidationError", err)
	}
}
