package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/yourname/macrotracker/internal"
)

// FileStorage keeps sessions in memory and flushes them to a JSON file from a
// background worker, batching bursts of writes.
type FileStorage struct {
	sessions     map[string]*internal.Session
	mu           sync.RWMutex
	file         string
	ttl          time.Duration
	saveChan     chan struct{}
	shutdownChan chan struct{}
	doneChan     chan struct{}
	saveDelay    time.Duration
	closeOnce    sync.Once
	logger       internal.Logger
}

func NewFileStorage(file string, ttl time.Duration, logger internal.Logger) (*FileStorage, error) {
	s := &FileStorage{
		sessions:     make(map[string]*internal.Session),
		file:         file,
		ttl:          ttl,
		saveChan:     make(chan struct{}, 1),
		shutdownChan: make(chan struct{}),
		doneChan:     make(chan struct{}),
		saveDelay:    500 * time.Millisecond,
		logger:       logger,
	}

	if dir := filepath.Dir(file); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	if err := s.loadSessions(); err != nil {
		logger.Errorf("storage: failed to load sessions: %v", err)
		return nil, err
	}

	go s.saveWorker()

	return s, nil
}

func (s *FileStorage) loadSessions() error {
	file, err := os.Open(s.file)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	var sessions []*internal.Session
	if err := json.NewDecoder(file).Decode(&sessions); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}

	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range sessions {
		if expired(sess, s.ttl, now) {
			continue
		}
		s.sessions[sess.ID] = sess
	}
	return nil
}

func atomicWriteFileJSON(filePath string, data interface{}) error {
	tempFile := filePath + ".tmp"
	f, err := os.Create(tempFile)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}

	if err := f.Close(); err != nil {
		os.Remove(tempFile)
		return err
	}

	return os.Rename(tempFile, filePath)
}

func (s *FileStorage) saveSessions() error {
	now := time.Now()
	s.mu.RLock()
	sessions := make([]*internal.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		if expired(sess, s.ttl, now) {
			continue
		}
		sessions = append(sessions, sess)
	}
	s.mu.RUnlock()

	return atomicWriteFileJSON(s.file, sessions)
}

func (s *FileStorage) saveWorker() {
	defer close(s.doneChan)
	timer := time.NewTimer(s.saveDelay)
	defer timer.Stop()

	for {
		select {
		case <-s.saveChan:
			timer.Reset(s.saveDelay)
		case <-timer.C:
			if err := s.saveSessions(); err != nil {
				s.logger.Errorf("storage: error saving sessions: %v", err)
			}
		case <-s.shutdownChan:
			return
		}
	}
}

func (s *FileStorage) signalSave() {
	select {
	case s.saveChan <- struct{}{}:
	default:
	}
}

// Close stops the worker and writes pending sessions synchronously.
func (s *FileStorage) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.shutdownChan)
		<-s.doneChan
		err = s.saveSessions()
	})
	return err
}

// --- SessionRepository ---
func (s *FileStorage) GetSession(ctx context.Context, id string) (*internal.Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, internal.ErrSessionNotFound
	}
	if expired(sess, s.ttl, time.Now()) {
		_ = s.DeleteSession(ctx, id)
		return nil, internal.ErrSessionNotFound
	}
	return cloneSession(sess), nil
}

func (s *FileStorage) SaveSession(ctx context.Context, session *internal.Session) error {
	s.mu.Lock()
	s.sessions[session.ID] = cloneSession(session)
	s.mu.Unlock()
	s.signalSave()
	return nil
}

func (s *FileStorage) DeleteSession(ctx context.Context, id string) error {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	s.signalSave()
	return nil
}

func (s *FileStorage) PurgeExpired(ctx context.Context) (int64, error) {
	now := time.Now()
	var n int64
	s.mu.Lock()
	for id, sess := range s.sessions {
		if expired(sess, s.ttl, now) {
			delete(s.sessions, id)
			n++
		}
	}
	s.mu.Unlock()
	if n > 0 {
		s.signalSave()
	}
	return n, nil
}

// cloneSession copies the food log so callers never share the stored slice.
func cloneSession(s *internal.Session) *internal.Session {
	c := *s
	c.Totals.Foods = append([]string{}, s.Totals.Foods...)
	return &c
}

var _ SessionRepository = (*FileStorage)(nil)
