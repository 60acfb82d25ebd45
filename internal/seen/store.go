package seen

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// LedgerFileName is the ledger file kept under the output directory.
const LedgerFileName = "seen_jobs.json"

// Ledger is the persisted set of job identities.
type Ledger struct {
	Hashes      []string `json:"hashes"`
	LastUpdated *string  `json:"last_updated"`
}

func emptyLedger() Ledger {
	return Ledger{Hashes: []string{}}
}

// Store loads and persists the ledger. Only the Deduplicator talks to it.
type Store interface {
	Load() (Ledger, error)
	Save(Ledger) error
	Reset() error
}

// FileStore keeps the ledger as JSON on disk. Writes go through a temp file
// and a rename, so a crash never leaves a torn ledger. There is no locking:
// two processes sharing a path are last-writer-wins.
type FileStore struct {
	Path string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{Path: filepath.Join(dir, LedgerFileName)}
}

// Load returns an empty ledger for a missing or blank file and an error for
// an unreadable or corrupt one.
func (s *FileStore) Load() (Ledger, error) {
	if strings.TrimSpace(s.Path) == "" {
		return emptyLedger(), fmt.Errorf("ledger path is required")
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return emptyLedger(), nil
		}
		return emptyLedger(), err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return emptyLedger(), nil
	}

	var ledger Ledger
	if err := json.Unmarshal(data, &ledger); err != nil {
		return emptyLedger(), fmt.Errorf("decode %s: %w", s.Path, err)
	}
	if ledger.Hashes == nil {
		ledger.Hashes = []string{}
	}
	return ledger, nil
}

func (s *FileStore) Save(ledger Ledger) error {
	if strings.TrimSpace(s.Path) == "" {
		return fmt.Errorf("ledger path is required")
	}
	if ledger.Hashes == nil {
		ledger.Hashes = []string{}
	}
	data, err := json.MarshalIndent(ledger, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".seen_jobs-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, s.Path)
}

// Reset deletes the ledger. A missing file is not an error.
func (s *FileStore) Reset() error {
	err := os.Remove(s.Path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// MemoryStore is an in-process Store, mostly for tests.
type MemoryStore struct {
	mu      sync.Mutex
	ledger  *Ledger
	Saves   int
	LoadErr error
	SaveErr error
}

func (m *MemoryStore) Load() (Ledger, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadErr != nil {
		return emptyLedger(), m.LoadErr
	}
	if m.ledger == nil {
		return emptyLedger(), nil
	}
	out := *m.ledger
	out.Hashes = append([]string{}, m.ledger.Hashes...)
	return out, nil
}

func (m *MemoryStore) Save(ledger Ledger) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	copied := ledger
	copied.Hashes = append([]string{}, ledger.Hashes...)
	m.ledger = &copied
	m.Saves++
	return nil
}

func (m *MemoryStore) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ledger = nil
	return nil
}
