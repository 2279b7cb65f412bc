package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/hammamikhairi/devtimer/internal/domain"
	"github.com/hammamikhairi/devtimer/internal/logger"
)

// Compile-time interface check.
var _ domain.SettingsStore = (*FileStore)(nil)

// SettingsFileName is the file created under the user config directory.
const SettingsFileName = "settings.yaml"

// FileStore keeps settings in a single YAML document. Every Set rewrites the
// file atomically (temp file + rename). An unreadable file is treated as
// empty so a corrupt document never blocks start-up.
type FileStore struct {
	mu       sync.RWMutex
	path     string
	values   map[string]*yaml.Node
	lastHash [sha256.Size]byte // hash of the last document we wrote or read
	log      *logger.Logger
}

// DefaultSettingsPath returns <user config dir>/<appName>/settings.yaml.
func DefaultSettingsPath(appName string) (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(configDir, appName, SettingsFileName), nil
}

// OpenFileStore loads the settings document at path. A missing file is not
// an error; the directory is created on first write.
func OpenFileStore(path string, log *logger.Logger) (*FileStore, error) {
	s := &FileStore{
		path:   path,
		values: make(map[string]*yaml.Node),
		log:    log,
	}
	if err := s.reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the backing file path.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) reload() error {
	_, err := s.reloadChanged()
	return err
}

// reloadChanged replaces the in-memory values with the file contents. It
// reports false when the document is byte-identical to what we already hold.
func (s *FileStore) reloadChanged() (bool, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("read settings file: %w", err)
	}

	hash := sha256.Sum256(raw)

	s.mu.Lock()
	defer s.mu.Unlock()

	if hash == s.lastHash {
		return false, nil
	}
	s.lastHash = hash

	doc, err := parseDocument(raw)
	if err != nil {
		s.log.Warn("settings file %s is corrupt, starting empty: %v", s.path, err)
		doc = make(map[string]*yaml.Node)
	}
	s.values = doc
	s.log.Debug("loaded %d settings from %s", len(doc), s.path)
	return true, nil
}

// parseDocument splits a top-level mapping into one node per key. Values
// stay undecoded until Get asks for a concrete type.
func parseDocument(raw []byte) (map[string]*yaml.Node, error) {
	values := make(map[string]*yaml.Node)
	if len(bytes.TrimSpace(raw)) == 0 {
		return values, nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return values, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: top level is not a mapping", root.Line)
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		if key.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: non-scalar key", key.Line)
		}
		values[key.Value] = value
	}
	return values, nil
}

// Get decodes the value stored under key into out.
func (s *FileStore) Get(ctx context.Context, key string, out any) error {
	s.mu.RLock()
	node, ok := s.values[key]
	s.mu.RUnlock()

	if !ok || node == nil {
		return domain.ErrNotFound
	}
	return decodeValue(node, out)
}

// Set stores a value and rewrites the file.
func (s *FileStore) Set(ctx context.Context, key string, value any) error {
	node, err := encodeValue(value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = node
	return s.flushLocked()
}

// Delete removes a key and rewrites the file.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.values[key]; !ok {
		return domain.ErrNotFound
	}
	delete(s.values, key)
	return s.flushLocked()
}

// Keys returns all stored keys in sorted order.
func (s *FileStore) Keys(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.values))
	for k := range s.values {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

// flushLocked writes the whole document. Must be called with s.mu held.
func (s *FileStore) flushLocked() error {
	serialized, err := yaml.Marshal(s.values)
	if err != nil {
		return fmt.Errorf("marshal settings yaml: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".settings-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp settings file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(serialized); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write settings file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close settings file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace settings file: %w", err)
	}

	s.lastHash = sha256.Sum256(serialized)
	s.log.Debug("wrote %d settings to %s", len(s.values), s.path)
	return nil
}
