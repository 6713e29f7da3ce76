// Package vectorstore is a brute-force cosine-similarity vector store.
// Documents live in memory for scanning and are mirrored to SQLite so the
// index survives restarts. Search is an exhaustive linear scan on purpose:
// the catalog is small and an ANN index would buy nothing but complexity.
package vectorstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"shopmate/internal/db"
	"shopmate/internal/embedding"
)

// Document is one stored (id, text, vector, metadata) tuple. IDs are stable
// and derived from the source entity, e.g. "product-42"; re-adding an
// existing id replaces the document.
type Document struct {
	ID        string
	Content   string
	Embedding []float32
	Metadata  map[string]string
	CreatedAt time.Time
}

// Result is one similarity match. Score is raw cosine similarity in [-1, 1].
type Result struct {
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata"`
	Score    float32           `json:"score"`
}

// Store holds documents in memory and mirrors writes to SQLite. All writes
// are serialized by the mutex; concurrent turns from different conversations
// may read and write the same store.
type Store struct {
	mu   sync.RWMutex
	docs map[string]Document
	conn *sql.DB // nil for a memory-only store
}

// New creates a memory-only store. Used by tests and the seed command.
func New() *Store {
	return &Store{docs: make(map[string]Document)}
}

// Open creates a store backed by the given database and loads every
// persisted document into memory.
func Open(database *db.DB) (*Store, error) {
	s := &Store{docs: make(map[string]Document), conn: database.Conn()}

	rows, err := s.conn.Query(`SELECT id, content, embedding, metadata, created_at FROM vector_documents`)
	if err != nil {
		return nil, fmt.Errorf("loading vector documents: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			doc      Document
			blob     []byte
			metaJSON string
		)
		if err := rows.Scan(&doc.ID, &doc.Content, &blob, &metaJSON, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning vector document: %w", err)
		}
		doc.Embedding = embedding.BytesToFloat32s(blob)
		if err := json.Unmarshal([]byte(metaJSON), &doc.Metadata); err != nil {
			doc.Metadata = nil
		}
		s.docs[doc.ID] = doc
	}
	return s, rows.Err()
}

// Add upserts a single document.
func (s *Store) Add(ctx context.Context, doc Document) error {
	return s.AddBatch(ctx, []Document{doc})
}

// AddBatch upserts documents by id. The in-memory map and the SQLite mirror
// are updated under one lock so concurrent searches never see a partial
// batch.
func (s *Store) AddBatch(ctx context.Context, docs []Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range docs {
		if docs[i].CreatedAt.IsZero() {
			docs[i].CreatedAt = time.Now().UTC()
		}
		if err := s.persist(ctx, docs[i]); err != nil {
			return err
		}
		s.docs[docs[i].ID] = docs[i]
	}
	return nil
}

func (s *Store) persist(ctx context.Context, doc Document) error {
	if s.conn == nil {
		return nil
	}
	meta, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("encoding metadata for %s: %w", doc.ID, err)
	}
	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO vector_documents (id, content, embedding, metadata, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			content = excluded.content,
			embedding = excluded.embedding,
			metadata = excluded.metadata,
			created_at = excluded.created_at`,
		doc.ID, doc.Content, embedding.Float32sToBytes(doc.Embedding), string(meta), doc.CreatedAt)
	if err != nil {
		return fmt.Errorf("persisting vector document %s: %w", doc.ID, err)
	}
	return nil
}

// Get returns the stored document for id.
func (s *Store) Get(id string) (Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	return doc, ok
}

// Delete removes a document by id. Deleting an unknown id is a no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		if _, err := s.conn.ExecContext(ctx, `DELETE FROM vector_documents WHERE id = ?`, id); err != nil {
			return fmt.Errorf("deleting vector document %s: %w", id, err)
		}
	}
	delete(s.docs, id)
	return nil
}

// Clear removes every document.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		if _, err := s.conn.ExecContext(ctx, `DELETE FROM vector_documents`); err != nil {
			return fmt.Errorf("clearing vector documents: %w", err)
		}
	}
	s.docs = make(map[string]Document)
	return nil
}

// Count returns the number of stored documents.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Search scans every stored vector, optionally pre-filtered by exact-match
// metadata predicates, and returns the topK matches sorted by descending
// cosine similarity.
func (s *Store) Search(query []float32, topK int, filter map[string]string) []Result {
	if topK <= 0 {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]Result, 0, len(s.docs))
	for _, doc := range s.docs {
		if !matches(doc.Metadata, filter) {
			continue
		}
		results = append(results, Result{
			ID:       doc.ID,
			Content:  doc.Content,
			Metadata: doc.Metadata,
			Score:    embedding.CosineSimilarity(query, doc.Embedding),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results
}

func matches(metadata, filter map[string]string) bool {
	for k, want := range filter {
		if metadata[k] != want {
			return false
		}
	}
	return true
}
