// Package document holds the in-memory session state: uploaded documents
// with their extracted content, and the running chat history. Nothing here
// touches disk; closing the server discards the session.
package document

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ==================== Document ====================

// Document is one uploaded file after extraction.
type Document struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	MIMEType   string    `json:"mime_type"`
	Size       int64     `json:"size"`
	Content    string    `json:"content,omitempty"`   // extracted text or a data URL for images
	Kind       string    `json:"kind"`                // extractor.KindText, KindImage, ...
	Pages      int       `json:"pages,omitempty"`     // PDFs only
	Thumbnail  string    `json:"thumbnail,omitempty"` // data URL preview for images
	UploadedAt time.Time `json:"uploaded_at"`
}

// ==================== Message ====================

// Message is a single chat turn. Assistant messages carry the source
// attribution and the model that produced them.
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Sources   []string  `json:"sources,omitempty"`
	Model     string    `json:"model,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ==================== Store ====================

// Store is the session-scoped container for documents and chat history.
// All methods are safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	docs     []Document
	messages []Message
}

func NewStore() *Store {
	return &Store{}
}

// ==================== Document CRUD ====================

// AddDocument assigns an ID and upload time, stores the document, and
// returns the stored copy.
func (s *Store) AddDocument(doc Document) Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now()
	}
	s.docs = append(s.docs, doc)
	return doc
}

// Documents returns a copy of all documents in upload order.
func (s *Store) Documents() []Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Document, len(s.docs))
	copy(result, s.docs)
	return result
}

func (s *Store) Document(id string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.docs {
		if s.docs[i].ID == id {
			d := s.docs[i]
			return &d, nil
		}
	}
	return nil, fmt.Errorf("document not found: %s", id)
}

func (s *Store) RemoveDocument(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.docs {
		if s.docs[i].ID == id {
			s.docs = append(s.docs[:i], s.docs[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("document not found: %s", id)
}

func (s *Store) ClearDocuments() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = nil
}

// DocumentCount reports how many documents are loaded.
func (s *Store) DocumentCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Names returns the document names in upload order, for attribution and
// prompt context.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.docs))
	for i, d := range s.docs {
		names[i] = d.Name
	}
	return names
}

// HasName reports whether a document with the given name (case-insensitive)
// is already loaded.
func (s *Store) HasName(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, d := range s.docs {
		if strings.EqualFold(d.Name, name) {
			return true
		}
	}
	return false
}

// ==================== Messages ====================

// AppendMessage adds a chat turn and returns the stored copy.
func (s *Store) AppendMessage(msg Message) Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	s.messages = append(s.messages, msg)
	return msg
}

// Messages returns a copy of the chat history in order.
func (s *Store) Messages() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Message, len(s.messages))
	copy(result, s.messages)
	return result
}

func (s *Store) ClearMessages() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
}

// Clear drops both documents and chat history.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = nil
	s.messages = nil
}
