// Package docstore holds the raw bytes of uploaded application documents.
// The orchestration core never touches document content directly; it works
// from the metadata on core.Document. The blob store exists for the protocol
// surface, so callers can attach real files to an application and retrieve
// them later, and for extraction backends that want the original bytes.
package docstore

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"sync"
	"time"

	"github.com/hupe1980/mortgagemesh/core"
)

// Meta describes one stored document blob.
type Meta struct {
	DocumentID  string    `json:"document_id"`
	ContentType string    `json:"content_type,omitempty"`
	Size        int64     `json:"size"`
	SHA256      string    `json:"sha256"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// Store persists document content keyed by application and document id.
// Implementations must copy data on the way in and out so callers cannot
// mutate stored bytes.
type Store interface {
	Put(applicationID, documentID, contentType string, data []byte) (*Meta, error)
	Get(applicationID, documentID string) (*Meta, []byte, error)
	List(applicationID string) ([]*Meta, error)
	Delete(applicationID, documentID string) error
}

type entry struct {
	meta Meta
	data []byte
}

// InMemoryStore is the in-process Store implementation. It keeps all blobs in
// a nested map guarded by an RWMutex and is sufficient for single-process
// deployments; it enforces no quotas or eviction.
type InMemoryStore struct {
	mu    sync.RWMutex
	blobs map[string]map[string]entry // applicationID -> documentID -> blob
}

// NewInMemoryStore returns an empty in-memory document store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{blobs: make(map[string]map[string]entry)}
}

// Put stores (or overwrites) the document bytes and returns the resulting
// metadata. The input slice is copied before storage.
func (s *InMemoryStore) Put(applicationID, documentID, contentType string, data []byte) (*Meta, error) {
	if applicationID == "" {
		return nil, core.NewValidationError("application_id", "application id is required")
	}
	if documentID == "" {
		return nil, core.NewValidationError("document_id", "document id is required")
	}

	cp := make([]byte, len(data))
	copy(cp, data)

	sum := sha256.Sum256(cp)
	meta := Meta{
		DocumentID:  documentID,
		ContentType: contentType,
		Size:        int64(len(cp)),
		SHA256:      hex.EncodeToString(sum[:]),
		UploadedAt:  time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[applicationID]; !ok {
		s.blobs[applicationID] = make(map[string]entry)
	}
	s.blobs[applicationID][documentID] = entry{meta: meta, data: cp}

	return &meta, nil
}

// Get returns the metadata and a copy of the stored bytes.
func (s *InMemoryStore) Get(applicationID, documentID string) (*Meta, []byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.blobs[applicationID][documentID]
	if !ok {
		return nil, nil, core.NewNotFoundError("document", applicationID+"/"+documentID)
	}

	cp := make([]byte, len(e.data))
	copy(cp, e.data)
	meta := e.meta
	return &meta, cp, nil
}

// List returns the metadata of all blobs stored for the application, ordered
// by document id.
func (s *InMemoryStore) List(applicationID string) ([]*Meta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := s.blobs[applicationID]
	out := make([]*Meta, 0, len(docs))
	for _, e := range docs {
		meta := e.meta
		out = append(out, &meta)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DocumentID < out[j].DocumentID })
	return out, nil
}

// Delete removes the blob if present.
func (s *InMemoryStore) Delete(applicationID, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, ok := s.blobs[applicationID]
	if !ok {
		return core.NewNotFoundError("document", applicationID+"/"+documentID)
	}
	if _, ok := docs[documentID]; !ok {
		return core.NewNotFoundError("document", applicationID+"/"+documentID)
	}
	delete(docs, documentID)
	if len(docs) == 0 {
		delete(s.blobs, applicationID)
	}
	return nil
}
