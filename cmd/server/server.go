package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"

	"doclens/internal/answer"
	"doclens/internal/crypto"
	"doclens/internal/document"
	"doclens/internal/llm"
	"doclens/internal/search"
)

// Server holds all shared state for the session.
type Server struct {
	mu    sync.RWMutex
	store *document.Store
	index *search.Index
	hub   *wsHub

	providerKeys map[string]string
	defaultLLM   string
	// defaultModel is the LLM_MODEL env pin for the default provider.
	defaultModel string
	// adopted maps provider name to the model that actually answered after
	// a fallback. Session-scoped; never written to disk.
	adopted map[string]string

	minContentLen int
	maxUploadMB   int64
	tesseractOk   bool

	lastCombined *answer.CombinedOCR

	// newProvider is swapped for a fake in tests.
	newProvider func(name, key string) (llm.Provider, error)
}

// ----- Request / Response types -----

type ChatRequest struct {
	Question string `json:"question"`
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
}

type ChatResponse struct {
	Answer      string   `json:"answer"`
	Sources     []string `json:"sources"`
	Provider    string   `json:"provider"`
	Model       string   `json:"model"`
	TimeSeconds float64  `json:"time_seconds"`
}

type OCRRequest struct {
	Provider    string   `json:"provider,omitempty"`
	Model       string   `json:"model,omitempty"`
	DocumentIDs []string `json:"document_ids,omitempty"` // empty = all documents
}

// UploadResult tracks the per-file outcome of an upload batch.
type UploadResult struct {
	Name   string `json:"name"`
	Status string `json:"status"` // "ok" or "rejected"
	Error  string `json:"error,omitempty"`
	ID     string `json:"id,omitempty"`
	Kind   string `json:"kind,omitempty"`
	Pages  int    `json:"pages,omitempty"`
}

// ========== Settings Persistence ==========

const settingsFile = "data/settings.json"

type SavedSettings struct {
	GeminiKey     string `json:"gemini_key"`
	OpenAIKey     string `json:"openai_key"`
	AnthropicKey  string `json:"anthropic_key"`
	DefaultLLM    string `json:"default_llm"`
	MinContentLen int    `json:"min_content_length,omitempty"`
}

func loadSavedSettings() *SavedSettings {
	data, err := os.ReadFile(settingsFile)
	if err != nil {
		return nil
	}
	var s SavedSettings
	if err := json.Unmarshal(data, &s); err != nil {
		log.Printf("Warning: could not parse %s: %v", settingsFile, err)
		return nil
	}

	// Decrypt API key fields (backward-compatible: if decryption fails, use raw value)
	s.GeminiKey = decryptOrPassthrough(s.GeminiKey)
	s.OpenAIKey = decryptOrPassthrough(s.OpenAIKey)
	s.AnthropicKey = decryptOrPassthrough(s.AnthropicKey)

	return &s
}

// decryptOrPassthrough tries to decrypt a value; if it fails (e.g. legacy
// plaintext), returns the original value unchanged.
func decryptOrPassthrough(val string) string {
	if val == "" {
		return ""
	}
	decrypted, err := crypto.Decrypt(val)
	if err != nil {
		return val
	}
	return decrypted
}

func persistSettings(s SavedSettings) error {
	_ = os.MkdirAll("data", 0755)

	// Encrypt API key fields before writing to disk
	toSave := s
	var err error
	if toSave.GeminiKey, err = crypto.Encrypt(s.GeminiKey); err != nil {
		log.Printf("Warning: failed to encrypt Gemini key: %v", err)
		toSave.GeminiKey = s.GeminiKey
	}
	if toSave.OpenAIKey, err = crypto.Encrypt(s.OpenAIKey); err != nil {
		log.Printf("Warning: failed to encrypt OpenAI key: %v", err)
		toSave.OpenAIKey = s.OpenAIKey
	}
	if toSave.AnthropicKey, err = crypto.Encrypt(s.AnthropicKey); err != nil {
		log.Printf("Warning: failed to encrypt Anthropic key: %v", err)
		toSave.AnthropicKey = s.AnthropicKey
	}

	data, err := json.MarshalIndent(toSave, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(settingsFile, data, 0644)
}

// ========== Middleware ==========

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ========== Helpers ==========

// getProvider resolves the provider name and builds a fresh client for
// this request. Catching a missing key here keeps the handlers simple.
func (s *Server) getProvider(requested string) (string, llm.Provider, error) {
	name := strings.ToLower(requested)
	if name == "" {
		s.mu.RLock()
		name = s.defaultLLM
		s.mu.RUnlock()
	}
	s.mu.RLock()
	apiKey := s.providerKeys[name]
	s.mu.RUnlock()
	if apiKey == "" || strings.HasPrefix(apiKey, "your_") {
		return name, nil, fmt.Errorf("no API key configured for provider: %s", name)
	}
	p, err := s.newProvider(name, apiKey)
	return name, p, err
}

// modelFor picks the model to submit: an explicit request wins, then the
// session-adopted model for that provider, then the env-pinned model when
// this is the default provider, then empty (the resolver fills in the
// catalog default).
func (s *Server) modelFor(provider, requested string) string {
	if requested != "" {
		return requested
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if m := s.adopted[provider]; m != "" {
		return m
	}
	if provider == s.defaultLLM {
		return s.defaultModel
	}
	return ""
}

// adoptModel records the model that actually answered, so the rest of
// the session goes straight to it.
func (s *Server) adoptModel(provider, model string) {
	s.mu.Lock()
	s.adopted[provider] = model
	s.mu.Unlock()
	log.Printf("Adopted model %q for provider %s after fallback", model, provider)
}

func (s *Server) minContentLenSnapshot() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.minContentLen
}

func (s *Server) setLastCombined(c answer.CombinedOCR) {
	s.mu.Lock()
	s.lastCombined = &c
	s.mu.Unlock()
}

func jsonResp(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func jsonErr(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
