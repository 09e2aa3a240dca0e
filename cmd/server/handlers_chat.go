package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"doclens/internal/answer"
	"doclens/internal/document"
	"doclens/internal/llm"
	"doclens/internal/prompt"
)

// ========== Chat Endpoints ==========

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		jsonResp(w, map[string]interface{}{"messages": s.store.Messages()})

	case http.MethodDelete:
		s.store.ClearMessages()
		jsonResp(w, map[string]string{"status": "cleared"})

	case http.MethodPost:
		s.handleAsk(w, r)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonErr(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	question := strings.TrimSpace(req.Question)
	if question == "" {
		jsonErr(w, "Question is required", http.StatusBadRequest)
		return
	}
	if s.store.DocumentCount() == 0 {
		jsonErr(w, "No documents uploaded. Upload documents first.", http.StatusBadRequest)
		return
	}

	providerName, provider, err := s.getProvider(req.Provider)
	if err != nil {
		jsonErr(w, err.Error(), http.StatusBadRequest)
		return
	}

	docs := s.store.Documents()
	pr, err := prompt.Build(question, docs, s.minContentLenSnapshot())
	if err != nil {
		if errors.Is(err, prompt.ErrNoReadableContent) {
			jsonErr(w, "None of the uploaded documents have readable content. Try re-uploading them, or install Tesseract for scanned files.", http.StatusBadRequest)
			return
		}
		jsonErr(w, err.Error(), http.StatusInternalServerError)
		return
	}

	model := s.modelFor(providerName, req.Model)
	log.Printf("Chat: provider=%s model=%q docs=%d", providerName, model, len(docs))

	start := time.Now()
	resolved, text, err := llm.Resolve(r.Context(), provider, model, pr)
	if err != nil {
		jsonErr(w, err.Error(), llmStatus(err))
		return
	}

	// A fallback or discovery answer arrives on a different model than was
	// submitted. Adopt it for the rest of the session so later requests
	// skip the dead name.
	submitted := model
	if submitted == "" {
		submitted = provider.Catalog().Default
	}
	if resolved != submitted {
		s.adoptModel(providerName, resolved)
	}

	sources := answer.AttributeSources(text, s.store.Names())

	s.store.AppendMessage(document.Message{Role: "user", Content: question})
	s.store.AppendMessage(document.Message{
		Role:    "assistant",
		Content: text,
		Sources: sources,
		Model:   resolved,
	})

	jsonResp(w, ChatResponse{
		Answer:      text,
		Sources:     sources,
		Provider:    providerName,
		Model:       resolved,
		TimeSeconds: time.Since(start).Seconds(),
	})
}

// llmStatus maps resolver failures onto HTTP codes the frontend can act
// on: 401 sends the user to Settings, 429 tells them to wait.
func llmStatus(err error) int {
	switch {
	case errors.Is(err, llm.ErrAuth):
		return http.StatusUnauthorized
	case errors.Is(err, llm.ErrQuota):
		return http.StatusTooManyRequests
	default:
		return http.StatusBadGateway
	}
}
