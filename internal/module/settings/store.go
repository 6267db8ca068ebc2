package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	apperrors "github.com/ventrapay/escrow-server/internal/shared/errors"
)

const apiKeyFile = "api_key.json"

// ErrEmptyAPIKey is returned when a rotation submits a blank key.
var ErrEmptyAPIKey = apperrors.Validation("api_key must not be empty")

type apiKeyRecord struct {
	APIKey    string    `json:"api_key"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store holds the runtime-rotatable API key. A rotated key is written to
// a JSON file under the runtime directory so it survives restarts; when
// no file exists the configured default applies. Store implements the
// auth middleware's key provider.
type Store struct {
	dir        string
	defaultKey string

	mu  sync.RWMutex
	key string
}

// NewStore creates a store rooted at dir, loading any previously rotated
// key from disk.
func NewStore(dir, defaultKey string) *Store {
	s := &Store{dir: dir, defaultKey: defaultKey}
	s.key = s.readFile()
	return s
}

// APIKey returns the effective key: the rotated one when present,
// otherwise the configured default.
func (s *Store) APIKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.key != "" {
		return s.key
	}
	return s.defaultKey
}

// SetAPIKey rotates the key and persists it atomically via a temp file
// rename, so a crash mid-write never leaves a truncated key file.
func (s *Store) SetAPIKey(value string) error {
	clean := strings.TrimSpace(value)
	if clean == "" {
		return ErrEmptyAPIKey
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create runtime dir: %w", err)
	}

	record := apiKeyRecord{APIKey: clean, UpdatedAt: time.Now().UTC()}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal api key record: %w", err)
	}

	path := filepath.Join(s.dir, apiKeyFile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write api key file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace api key file: %w", err)
	}

	s.mu.Lock()
	s.key = clean
	s.mu.Unlock()
	return nil
}

// readFile loads the rotated key from disk, tolerating a missing or
// unreadable file.
func (s *Store) readFile() string {
	data, err := os.ReadFile(filepath.Join(s.dir, apiKeyFile))
	if err != nil {
		return ""
	}
	var record apiKeyRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return ""
	}
	return strings.TrimSpace(record.APIKey)
}
