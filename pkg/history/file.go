package history

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"context"

	"github.com/srxprov/srxprov/pkg/provision"
)

// FileStore appends outcomes to a JSON-lines file, one outcome per line.
type FileStore struct {
	path    string
	mu      sync.Mutex
	file    *os.File
	encoder *json.Encoder
}

// NewFileStore opens (or creates) the JSON-lines history file at path.
func NewFileStore(path string) (*FileStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening history file: %w", err)
	}

	return &FileStore{
		path:    path,
		file:    file,
		encoder: json.NewEncoder(file),
	}, nil
}

func (s *FileStore) Append(ctx context.Context, outcome *provision.Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return fmt.Errorf("history file closed")
	}
	return s.encoder.Encode(outcome)
}

func (s *FileStore) Recent(ctx context.Context, n int) ([]*provision.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening history file: %w", err)
	}
	defer f.Close()

	var all []*provision.Outcome
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var o provision.Outcome
		if err := json.Unmarshal(line, &o); err != nil {
			// Skip corrupt lines rather than refusing to report history.
			continue
		}
		all = append(all, &o)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading history file: %w", err)
	}

	if n > len(all) {
		n = len(all)
	}
	out := make([]*provision.Outcome, 0, n)
	for i := len(all) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
