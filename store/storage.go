package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

//
// Storage persists named blobs. Load reports ok == false when nothing has
// been saved under name.
//
type Storage interface {
	Load(name string) (blob []byte, ok bool, err error)
	Save(name string, blob []byte) error
}

// MemoryStorage keeps blobs in memory. It is not persistent; useful for
// tests and when no disk is available.
type MemoryStorage struct {
	mu sync.Mutex
	db map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{db: map[string][]byte{}}
}

func (s *MemoryStorage) Load(name string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	blob, ok := s.db[name]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), blob...), true, nil
}

func (s *MemoryStorage) Save(name string, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.db[name] = append([]byte(nil), blob...)
	return nil
}

// FileStorage keeps one file per name under Dir.
type FileStorage struct {
	Dir string
}

func (s *FileStorage) path(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", errors.New("store: invalid storage name " + name)
	}
	return filepath.Join(s.Dir, name+".json"), nil
}

func (s *FileStorage) Load(name string) ([]byte, bool, error) {
	p, err := s.path(name)
	if err != nil {
		return nil, false, err
	}
	blob, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return blob, true, nil
}

// Save writes blob to a temporary file and renames it into place.
func (s *FileStorage) Save(name string, blob []byte) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.Dir, name+"-tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(blob); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), p)
}
