package service

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
)

const DefaultFilePath = "data/macros.json"

// File: все записи в одном JSON-файле; запись через tmp + rename.
type File struct {
	path string

	mu     sync.Mutex
	cache  map[string][]byte
	loaded bool
}

func NewFile(path string) *File {
	if path == "" {
		path = DefaultFilePath
	}
	return &File{path: path, cache: make(map[string][]byte)}
}

func (f *File) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.loadLocked(); err != nil {
		return nil, err
	}
	v, ok := f.cache[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (f *File) Put(_ context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.loadLocked(); err != nil {
		return err
	}
	f.cache[key] = append([]byte(nil), value...)
	return f.saveLocked()
}

func (f *File) PutMany(_ context.Context, records map[string][]byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.loadLocked(); err != nil {
		return err
	}
	for k, v := range records {
		f.cache[k] = append([]byte(nil), v...)
	}
	return f.saveLocked()
}

func (f *File) All(_ context.Context) (map[string][]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.loadLocked(); err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(f.cache))
	for k, v := range f.cache {
		out[k] = append([]byte(nil), v...)
	}
	return out, nil
}

func (f *File) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.cache = make(map[string][]byte)
	f.loaded = true
	return f.saveLocked()
}

func (f *File) Close() error { return nil }

// ---- storage format ----

type snapshot struct {
	UpdatedAt time.Time                  `json:"updated_at"`
	Records   map[string]json.RawMessage `json:"records"`
}

func (f *File) loadLocked() error {
	if f.loaded {
		return nil
	}

	b, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			f.loaded = true
			return nil
		}
		return errors.Wrapf(err, "read %s", f.path)
	}

	var snap snapshot
	if err := sonic.Unmarshal(b, &snap); err != nil {
		return errors.Wrapf(err, "decode %s", f.path)
	}
	f.cache = make(map[string][]byte, len(snap.Records))
	for k, v := range snap.Records {
		f.cache[k] = []byte(v)
	}
	f.loaded = true
	return nil
}

func (f *File) saveLocked() error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return errors.Wrap(err, "mkdir")
	}

	snap := snapshot{UpdatedAt: time.Now(), Records: make(map[string]json.RawMessage, len(f.cache))}
	for k, v := range f.cache {
		snap.Records[k] = json.RawMessage(v)
	}
	b, err := sonic.ConfigStd.MarshalIndent(&snap, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode snapshot")
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", tmp)
	}
	return errors.Wrap(os.Rename(tmp, f.path), "rename") // атомарно
}
