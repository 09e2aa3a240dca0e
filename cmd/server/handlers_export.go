package main

import (
	"fmt"
	"net/http"

	"doclens/internal/export"
)

// ========== Export Endpoints ==========

func (s *Server) handleExportJSON(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.RLock()
	combined := s.lastCombined
	s.mu.RUnlock()
	if combined == nil {
		jsonErr(w, "No extraction results to export. Run Extract All first.", http.StatusNotFound)
		return
	}

	name, data, err := export.JSONReport(*combined)
	if err != nil {
		jsonErr(w, "Failed to build export: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Write(data)
}

func (s *Server) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	messages := s.store.Messages()
	if len(messages) == 0 {
		jsonErr(w, "No chat history to export.", http.StatusNotFound)
		return
	}

	name, data, err := export.PDFTranscript(messages, s.store.Documents())
	if err != nil {
		jsonErr(w, "Failed to build PDF: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Write(data)
}
