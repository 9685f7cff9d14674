// Package storage persists campaign history. Each campaign (series) lives in
// its own SQLite database file; the Manager hands out one Store per series
// and serializes snapshot writes within it, so concurrent imports of
// different campaigns never contend with each other.
package storage

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/eliasdoehne/stellaris-dashboard-sub000/db"
	"github.com/eliasdoehne/stellaris-dashboard-sub000/errors"
	"github.com/eliasdoehne/stellaris-dashboard-sub000/logger"
)

// Manager owns the per-series database handles.
type Manager struct {
	dbDir string

	mu     sync.Mutex
	stores map[string]*Store
}

func NewManager(dbDir string) *Manager {
	return &Manager{dbDir: dbDir, stores: make(map[string]*Store)}
}

// GetStore returns the Store for a series, opening (and migrating) its
// database on first use. The same Store is returned for repeated calls with
// the same name.
func (m *Manager) GetStore(seriesName string) (*Store, error) {
	if seriesName == "" {
		return nil, errors.Wrap(errors.ErrInvalidRequest, "series name must not be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.stores[seriesName]; ok {
		return s, nil
	}

	if err := os.MkdirAll(m.dbDir, 0750); err != nil {
		return nil, errors.Wrap(err, "failed to create database directory")
	}

	path := m.DBPath(seriesName)
	conn, err := db.OpenWithMigrations(path, logger.Logger)
	if err != nil {
		return nil, err
	}

	s, err := newStore(conn, seriesName)
	if err != nil {
		conn.Close()
		return nil, err
	}
	m.stores[seriesName] = s
	return s, nil
}

// DBPath returns the database file path for a series.
func (m *Manager) DBPath(seriesName string) string {
	return filepath.Join(m.dbDir, seriesName+".db")
}

// ListSeries returns the names of all series that have a database file,
// sorted alphabetically. It includes series whose Store is not currently
// open.
func (m *Manager) ListSeries() ([]string, error) {
	entries, err := os.ReadDir(m.dbDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to list database directory")
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".db") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".db"))
	}
	sort.Strings(names)
	return names, nil
}

// Close closes all open stores. The Manager must not be used afterwards.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error
	for name, s := range m.stores {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = errors.Wrapf(err, "failed to close store for %s", name)
		}
		delete(m.stores, name)
	}
	return firstErr
}
