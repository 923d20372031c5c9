package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FileSessionStore persists one JSON snapshot per session under Dir.
// Saves overwrite the whole record; there are no partial or delta writes.
type FileSessionStore struct {
	Dir    string
	Logger *Logger
}

func NewFileSessionStore(dir string, logger *Logger) *FileSessionStore {
	if strings.TrimSpace(dir) == "" {
		dir = DefaultSessionsDir()
	}
	return &FileSessionStore{Dir: dir, Logger: logger}
}

func (s *FileSessionStore) sessionPath(id string) string {
	return filepath.Join(s.Dir, id+".json")
}

func (s *FileSessionStore) ensureDir() error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return &StorageError{Op: "mkdir", Err: err}
	}
	return nil
}

// Create allocates a new session for idea and persists it immediately.
func (s *FileSessionStore) Create(idea string, cfg SessionConfig) (*Session, error) {
	if err := s.ensureDir(); err != nil {
		return nil, err
	}
	now := time.Now()
	sess := &Session{
		ID:          strings.ReplaceAll(uuid.NewString(), "-", "")[:8],
		Idea:        idea,
		CurrentStep: StepInitialIdea,
		CreatedAt:   now,
		UpdatedAt:   now,
		Config:      cfg,
	}
	if err := s.Save(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Save stamps UpdatedAt and writes the full snapshot. The write goes to a
// temp file first and is renamed into place so a concurrent reader never
// observes a half-written record.
func (s *FileSessionStore) Save(sess *Session) error {
	if sess == nil {
		return &StorageError{Op: "save", Err: errors.New("nil session")}
	}
	if strings.TrimSpace(sess.ID) == "" {
		return &StorageError{Op: "save", Err: errors.New("missing session id")}
	}
	if err := s.ensureDir(); err != nil {
		return err
	}
	sess.UpdatedAt = time.Now()
	b, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return &StorageError{Op: "save", Err: err}
	}
	tmp := s.sessionPath(sess.ID) + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return &StorageError{Op: "save", Err: err}
	}
	if err := os.Rename(tmp, s.sessionPath(sess.ID)); err != nil {
		_ = os.Remove(tmp)
		return &StorageError{Op: "save", Err: err}
	}
	return nil
}

// Load reads the snapshot for id. A missing file, an unreadable file, and a
// record that fails to parse all come back as NotFoundError: session files
// are best-effort records and one corrupt file must not block the rest.
func (s *FileSessionStore) Load(id string) (*Session, error) {
	b, err := os.ReadFile(s.sessionPath(id))
	if err != nil {
		return nil, &NotFoundError{ID: id}
	}
	var sess Session
	if err := json.Unmarshal(b, &sess); err != nil {
		return nil, &NotFoundError{ID: id}
	}
	if strings.TrimSpace(sess.ID) == "" {
		return nil, &NotFoundError{ID: id}
	}
	return &sess, nil
}

// List scans every stored record and returns summaries sorted by UpdatedAt
// descending. I/O failures are logged and an empty slice returned.
func (s *FileSessionStore) List() []SessionSummary {
	ents, err := os.ReadDir(s.Dir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.Logger.Error("failed to list sessions", map[string]interface{}{"dir": s.Dir, "error": err.Error()})
		}
		return []SessionSummary{}
	}

	summaries := make([]SessionSummary, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(e.Name(), ".json")
		sess, err := s.Load(id)
		if err != nil {
			continue
		}
		summaries = append(summaries, SessionSummary{
			ID:        sess.ID,
			Idea:      truncateIdea(sess.Idea, 50),
			UpdatedAt: sess.UpdatedAt,
			Step:      sess.CurrentStep,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
	})
	return summaries
}

// Delete removes the record for id. Best effort: returns whether a record
// existed and was removed, never an error for "did not exist".
func (s *FileSessionStore) Delete(id string) bool {
	return os.Remove(s.sessionPath(id)) == nil
}

// CleanOlderThan deletes every session whose UpdatedAt precedes now-days and
// returns the number deleted. This is the only bulk-mutating operation.
func (s *FileSessionStore) CleanOlderThan(days int) (int, error) {
	if days < 0 {
		return 0, &ValidationError{Msg: fmt.Sprintf("invalid days value %d: must not be negative", days)}
	}
	cutoff := time.Now().AddDate(0, 0, -days)
	deleted := 0
	for _, summary := range s.List() {
		if summary.UpdatedAt.Before(cutoff) {
			if s.Delete(summary.ID) {
				deleted++
			}
		}
	}
	return deleted, nil
}

func truncateIdea(idea string, max int) string {
	runes := []rune(idea)
	if len(runes) <= max {
		return idea
	}
	return string(runes[:max]) + "..."
}
