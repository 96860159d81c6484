package portstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// FileName is the runtime configuration file kept in the data directory.
const FileName = "runtime-config.json"

const portKey = "runtimePort"

// File stores the port under "runtimePort" in a JSON document. Other keys in
// the document are preserved. The key is seeded only when absent; a value
// that is present but not a valid port is reported instead of overwritten.
type File struct {
	mu   sync.Mutex
	path string
}

func NewFile(path string) *File { return &File{path: path} }

// Path returns the backing file path.
func (s *File) Path() string { return s.path }

func (s *File) Load(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		return 0, err
	}
	if raw, ok := doc[portKey]; ok && string(raw) != "null" {
		p, err := parsePort(raw)
		if err != nil {
			return 0, fmt.Errorf("runtime config %s: %w", s.path, err)
		}
		return p, nil
	}
	if err := s.write(doc, DefaultPort); err != nil {
		return 0, err
	}
	return DefaultPort, nil
}

// parsePort accepts the port as a JSON number or as a numeric string.
func parsePort(raw json.RawMessage) (int, error) {
	var p int
	if err := json.Unmarshal(raw, &p); err != nil {
		var str string
		if serr := json.Unmarshal(raw, &str); serr != nil {
			return 0, fmt.Errorf("invalid %s %s", portKey, raw)
		}
		n, aerr := strconv.Atoi(strings.TrimSpace(str))
		if aerr != nil {
			return 0, fmt.Errorf("invalid %s %q", portKey, str)
		}
		p = n
	}
	if err := validPort(p); err != nil {
		return 0, err
	}
	return p, nil
}

func (s *File) Save(ctx context.Context, port int) error {
	if err := validPort(port); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		return err
	}
	return s.write(doc, port)
}

func (s *File) read() (map[string]json.RawMessage, error) {
	doc := make(map[string]json.RawMessage)
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return doc, nil
		}
		return nil, fmt.Errorf("read runtime config: %w", err)
	}
	if len(b) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse runtime config %s: %w", s.path, err)
	}
	return doc, nil
}

// write replaces the file atomically. A port already stored as a string
// stays a string.
func (s *File) write(doc map[string]json.RawMessage, port int) error {
	var raw []byte
	if prev := strings.TrimSpace(string(doc[portKey])); strings.HasPrefix(prev, `"`) {
		raw, _ = json.Marshal(strconv.Itoa(port))
	} else {
		raw, _ = json.Marshal(port)
	}
	doc[portKey] = raw
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode runtime config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create runtime config directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".runtime-config-*")
	if err != nil {
		return fmt.Errorf("write runtime config: %w", err)
	}
	if _, err := tmp.Write(append(b, '\n')); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write runtime config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write runtime config: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replace runtime config: %w", err)
	}
	return nil
}
