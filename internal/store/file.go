package store

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	appLog "meetcal/internal/log"
	"meetcal/internal/model"
)

// document is the on-disk shape of the file store.
type document struct {
	Meetings []model.Meeting `json:"meetings"`
}

// FileStore keeps the whole collection in one JSON document. Writes go
// through a temp file + rename so readers never observe a torn document,
// and the final file is 0600.
type FileStore struct {
	path string

	mu   sync.Mutex
	doc  document
	once bool // doc loaded
}

// NewFileStore opens (or lazily creates) the JSON store at path.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("store: file path is empty")
	}
	return &FileStore{path: path}, nil
}

func (s *FileStore) load() error {
	if s.once {
		return nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: start empty; the file appears on first Put.
			s.doc = document{Meetings: []model.Meeting{}}
			s.once = true
			return nil
		}
		return err
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	if doc.Meetings == nil {
		doc.Meetings = []model.Meeting{}
	}
	s.doc = doc
	s.once = true
	return nil
}

func (s *FileStore) save() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(&s.doc, "", "  ")
	if err != nil {
		return err
	}

	// Atomic write: temp file in same directory, then rename.
	tmp, err := os.CreateTemp(dir, ".meetcal-store-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, s.path)
}

func (s *FileStore) List(_ context.Context) ([]model.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return nil, err
	}
	out := make([]model.Meeting, len(s.doc.Meetings))
	copy(out, s.doc.Meetings)
	return out, nil
}

func (s *FileStore) Get(_ context.Context, id string) (model.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return model.Meeting{}, err
	}
	for _, m := range s.doc.Meetings {
		if m.ID == id {
			return m, nil
		}
	}
	return model.Meeting{}, ErrNotFound
}

func (s *FileStore) Put(_ context.Context, m model.Meeting) error {
	if err := m.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return err
	}

	replaced := false
	for i := range s.doc.Meetings {
		if s.doc.Meetings[i].ID == m.ID {
			s.doc.Meetings[i] = m
			replaced = true
			break
		}
	}
	if !replaced {
		s.doc.Meetings = append(s.doc.Meetings, m)
	}
	return s.save()
}

func (s *FileStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return err
	}

	for i := range s.doc.Meetings {
		if s.doc.Meetings[i].ID == id {
			s.doc.Meetings = append(s.doc.Meetings[:i], s.doc.Meetings[i+1:]...)
			return s.save()
		}
	}
	return ErrNotFound
}

func (s *FileStore) Close() error { return nil }

// Watch invokes onChange whenever the store file is rewritten by another
// process (e.g. a manual edit or a second instance). Events are debounced
// so one logical save does not fire repeatedly. Blocks until ctx is done.
func (s *FileStore) Watch(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory; editors and our own atomic rename replace the
	// file node, which a direct file watch would lose.
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		return err
	}

	var lastFire time.Time
	const debounce = 500 * time.Millisecond

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return errors.New("store: watcher event channel closed")
			}
			if event.Name != s.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if time.Since(lastFire) < debounce {
				continue
			}
			lastFire = time.Now()

			s.mu.Lock()
			s.once = false // force reload on next access
			s.mu.Unlock()

			appLog.Debug("store: file changed on disk, cache invalidated", "path", s.path)
			onChange()

		case werr, ok := <-watcher.Errors:
			if !ok {
				return errors.New("store: watcher error channel closed")
			}
			appLog.Error("store: watcher error", werr, "path", s.path)
		}
	}
}
