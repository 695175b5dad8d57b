// Package archive stores a record of every dispatch that changed the
// document.
//
// A Record holds the event that triggered the dispatch, the patch that was
// applied and the markup of the document afterwards, so a session can be
// replayed or audited later. Records are kept per session and ordered by
// sequence number.
package archive

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/vango-dev/reconcile/internal/errors"
)

// ErrNotFound is returned by Get for an unknown record.
var ErrNotFound = errors.New(errors.CodeArchiveNotFound)

// Record is one archived dispatch.
type Record struct {
	SessionID string          `json:"session_id"`
	Seq       uint64          `json:"seq"`
	Kind      string          `json:"kind"`
	Path      []int           `json:"path"`
	Patches   json.RawMessage `json:"patches"`
	Markup    string          `json:"markup"`
	Time      time.Time       `json:"time"`
}

// Store persists records.
type Store interface {
	// Put stores r, replacing any record with the same session and seq.
	Put(ctx context.Context, r Record) error

	// Get returns the record for sessionID and seq, or ErrNotFound.
	Get(ctx context.Context, sessionID string, seq uint64) (Record, error)

	// List returns the records of sessionID ordered by seq.
	List(ctx context.Context, sessionID string) ([]Record, error)
}

// MemoryStore keeps records in memory. It is safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]map[uint64]Record
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]map[uint64]Record)}
}

// Put implements Store.
func (m *MemoryStore) Put(ctx context.Context, r Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.SessionID == "" {
		return errors.New(errors.CodeArchiveWrite).WithDetail("record has no session id")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	recs := m.sessions[r.SessionID]
	if recs == nil {
		recs = make(map[uint64]Record)
		m.sessions[r.SessionID] = recs
	}
	recs[r.Seq] = r
	return nil
}

// Get implements Store.
func (m *MemoryStore) Get(ctx context.Context, sessionID string, seq uint64) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.sessions[sessionID][seq]
	if !ok {
		return Record{}, notFound(sessionID, seq)
	}
	return r, nil
}

// List implements Store.
func (m *MemoryStore) List(ctx context.Context, sessionID string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	out := make([]Record, 0, len(m.sessions[sessionID]))
	for _, r := range m.sessions[sessionID] {
		out = append(out, r)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

func notFound(sessionID string, seq uint64) *errors.Error {
	return errors.New(errors.CodeArchiveNotFound).
		With("session", sessionID).
		With("seq", seq)
}
