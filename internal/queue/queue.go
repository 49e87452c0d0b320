package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/asasingh14/novastream/internal/config"
	"github.com/asasingh14/novastream/internal/download"
	ioutils "github.com/asasingh14/novastream/internal/io"
)

// ErrNotFound is returned for an unknown entry ID.
var ErrNotFound = errors.New("queue entry not found")

// Entry statuses. An empty status means pending.
const (
	StatusPending = ""
	StatusRunning = "running"
	StatusDone    = "done"
	StatusFailed  = "failed"
)

// Entry is one queued drama download.
type Entry struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	Name        string `json:"name"`
	Output      string `json:"output"`
	DownloadAll bool   `json:"download_all"`
	EpisodeList string `json:"episode_list"`
	Workers     int    `json:"workers"`
	// Throttle is in kbps and is informational only.
	Throttle int    `json:"throttle"`
	Retries  int    `json:"retries"`
	Status   string `json:"status,omitempty"`
}

// Label is the display text for an entry: its name, or its URL when unnamed.
func (e Entry) Label() string {
	if name := strings.TrimSpace(e.Name); name != "" {
		return name
	}
	return e.URL
}

// Request converts the entry to a download request, filling blanks from
// settings.
func (e Entry) Request(settings *config.Settings) download.Request {
	req := download.NewRequest(settings, e.URL)
	req.Name = e.Name
	req.DownloadAll = e.DownloadAll
	req.Episodes = e.EpisodeList
	req.Throttle = e.Throttle
	req.Retries = e.Retries
	if strings.TrimSpace(e.Output) != "" {
		req.BaseOutput = e.Output
	}
	if e.Workers > 0 {
		req.Workers = e.Workers
	}
	return req
}

// Store is an ordered list of entries persisted as a JSON array.
//
// Every mutation rewrites the whole file atomically while holding an
// exclusive lock on "<path>.lock", so a CLI and a TUI sharing the file never
// interleave writes.
type Store struct {
	path    string
	lock    *flock.Flock
	mu      sync.Mutex
	entries []Entry
}

// Open creates a Store for path and loads it. A missing file is an empty
// queue.
func Open(path string) (*Store, error) {
	s := &Store{
		path: path,
		lock: flock.New(path + ".lock"),
	}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
}

// Load re-reads the file, replacing the in-memory entries.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ioutils.EnsureDir(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("ensure queue directory: %w", err)
	}
	if err := s.lock.RLock(); err != nil {
		return fmt.Errorf("lock queue: %w", err)
	}
	defer s.lock.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.entries = nil
		return nil
	}
	if err != nil {
		return fmt.Errorf("read queue: %w", err)
	}

	var entries []Entry
	if len(strings.TrimSpace(string(data))) > 0 {
		if err := json.Unmarshal(data, &entries); err != nil {
			return fmt.Errorf("parse queue %s: %w", s.path, err)
		}
	}
	for i := range entries {
		if entries[i].ID == "" {
			entries[i].ID = uuid.NewString()
		}
	}
	s.entries = entries
	return nil
}

// List returns a copy of the entries in queue order.
func (s *Store) List() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.entries...)
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Get returns the entry with id.
func (s *Store) Get(id string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(id); i >= 0 {
		return s.entries[i], true
	}
	return Entry{}, false
}

// Add appends e with a fresh ID and saves.
func (s *Store) Add(e Entry) (Entry, error) {
	if strings.TrimSpace(e.URL) == "" {
		return Entry{}, errors.New("queue entry needs a url")
	}
	e.ID = uuid.NewString()
	e.Status = StatusPending

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	if err := s.save(); err != nil {
		s.entries = s.entries[:len(s.entries)-1]
		return Entry{}, err
	}
	return e, nil
}

// Remove deletes the entry with id and saves.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	return s.save()
}

// Move shifts the entry with id by offset positions (negative is towards
// the front). A move past either end leaves the order unchanged. It returns
// the entry's new index.
func (s *Store) Move(id string, offset int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return -1, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	j := i + offset
	if j < 0 || j >= len(s.entries) || j == i {
		return i, nil
	}

	e := s.entries[i]
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	s.entries = append(s.entries[:j], append([]Entry{e}, s.entries[j:]...)...)
	return j, s.save()
}

// SetStatus records the status of the entry with id and saves.
func (s *Store) SetStatus(id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.entries[i].Status = status
	return s.save()
}

func (s *Store) index(id string) int {
	for i, e := range s.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// save writes the entries; callers hold s.mu.
func (s *Store) save() error {
	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return err
	}
	if s.entries == nil {
		data = []byte("[]")
	}

	if err := ioutils.EnsureDir(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("ensure queue directory: %w", err)
	}
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock queue: %w", err)
	}
	defer s.lock.Unlock()

	if err := ioutils.WriteFileAtomic(s.path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("save queue: %w", err)
	}
	return nil
}
