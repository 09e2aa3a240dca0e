package main

import (
	"net/http"
	"strings"

	"doclens/internal/extractor"
	"doclens/internal/llm"
)

// ========== Search & Model Endpoints ==========

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		jsonErr(w, "Query parameter 'q' is required", http.StatusBadRequest)
		return
	}

	hits, err := s.index.Search(query, 20)
	if err != nil {
		jsonErr(w, "Search failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	type searchResult struct {
		ID      string  `json:"id"`
		Name    string  `json:"name"`
		Score   float64 `json:"score"`
		Snippet string  `json:"snippet,omitempty"`
	}
	results := make([]searchResult, 0, len(hits))
	for _, hit := range hits {
		doc, err := s.store.Document(hit.ID)
		if err != nil {
			// Index briefly ahead of the store after a delete.
			continue
		}
		results = append(results, searchResult{
			ID:      doc.ID,
			Name:    doc.Name,
			Score:   hit.Score,
			Snippet: snippetAround(doc.Content, doc.Kind, query),
		})
	}

	jsonResp(w, map[string]interface{}{
		"query":   query,
		"results": results,
		"count":   len(results),
	})
}

// snippetAround pulls a short window of content centered on the first
// occurrence of the query. Non-text documents carry data URLs or
// diagnostics instead of prose, so they get no snippet.
func snippetAround(content, kind, query string) string {
	if kind == extractor.KindImage || kind == extractor.KindUnreadable {
		return ""
	}
	lower := strings.ToLower(content)
	pos := strings.Index(lower, strings.ToLower(query))
	if pos < 0 {
		if len(content) > 120 {
			return content[:120] + "..."
		}
		return content
	}
	start := pos - 80
	if start < 0 {
		start = 0
	}
	end := pos + len(query) + 80
	if end > len(content) {
		end = len(content)
	}
	snippet := content[start:end]
	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(content) {
		snippet = snippet + "..."
	}
	return snippet
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.RLock()
	adopted := make(map[string]string, len(s.adopted))
	for k, v := range s.adopted {
		adopted[k] = v
	}
	defaultLLM := s.defaultLLM
	s.mu.RUnlock()

	jsonResp(w, map[string]interface{}{
		"providers": llm.Catalogs(),
		"default":   defaultLLM,
		"adopted":   adopted,
	})
}
