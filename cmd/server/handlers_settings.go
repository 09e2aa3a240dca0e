package main

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"doclens/internal/llm"
)

// ========== Settings Endpoints ==========

type settingsUpdate struct {
	GeminiKey     string `json:"gemini_key"`
	OpenAIKey     string `json:"openai_key"`
	AnthropicKey  string `json:"anthropic_key"`
	DefaultLLM    string `json:"default_llm"`
	MinContentLen int    `json:"min_content_length"`
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.mu.RLock()
		resp := map[string]interface{}{
			"gemini_key":          llm.MaskKey(s.providerKeys["gemini"]),
			"openai_key":          llm.MaskKey(s.providerKeys["openai"]),
			"anthropic_key":       llm.MaskKey(s.providerKeys["anthropic"]),
			"default_llm":         s.defaultLLM,
			"min_content_length":  s.minContentLen,
			"max_upload_mb":       s.maxUploadMB,
			"tesseract_available": s.tesseractOk,
		}
		s.mu.RUnlock()
		jsonResp(w, resp)

	case http.MethodPost:
		var upd settingsUpdate
		if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
			jsonErr(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		if upd.DefaultLLM != "" {
			if _, ok := llm.Catalogs()[strings.ToLower(upd.DefaultLLM)]; !ok {
				jsonErr(w, "Unknown provider: "+upd.DefaultLLM, http.StatusBadRequest)
				return
			}
		}

		s.mu.Lock()
		// A masked key echoed back from the GET response is not a new
		// key. Only overwrite when the user typed a real value.
		if upd.GeminiKey != "" && !strings.Contains(upd.GeminiKey, "...") {
			s.providerKeys["gemini"] = upd.GeminiKey
		}
		if upd.OpenAIKey != "" && !strings.Contains(upd.OpenAIKey, "...") {
			s.providerKeys["openai"] = upd.OpenAIKey
		}
		if upd.AnthropicKey != "" && !strings.Contains(upd.AnthropicKey, "...") {
			s.providerKeys["anthropic"] = upd.AnthropicKey
		}
		if upd.DefaultLLM != "" {
			s.defaultLLM = strings.ToLower(upd.DefaultLLM)
		}
		if upd.MinContentLen > 0 {
			s.minContentLen = upd.MinContentLen
		}
		saved := SavedSettings{
			GeminiKey:     s.providerKeys["gemini"],
			OpenAIKey:     s.providerKeys["openai"],
			AnthropicKey:  s.providerKeys["anthropic"],
			DefaultLLM:    s.defaultLLM,
			MinContentLen: s.minContentLen,
		}
		s.mu.Unlock()

		if err := persistSettings(saved); err != nil {
			log.Printf("Failed to persist settings: %v", err)
		}

		log.Printf("Settings updated: default_llm=%s min_content_length=%d", saved.DefaultLLM, saved.MinContentLen)
		jsonResp(w, map[string]string{"status": "saved"})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
