package main

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"doclens/internal/document"
	"doclens/internal/extractor"
)

// ========== Document Endpoints ==========

// docMeta is the list shape: everything about a document except its
// extracted content, which can be megabytes of text or base64.
type docMeta struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	MIMEType   string    `json:"mime_type"`
	Size       int64     `json:"size"`
	Kind       string    `json:"kind"`
	Pages      int       `json:"pages,omitempty"`
	Thumbnail  string    `json:"thumbnail,omitempty"`
	UploadedAt time.Time `json:"uploaded_at"`
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		docs := s.store.Documents()
		metas := make([]docMeta, 0, len(docs))
		for _, d := range docs {
			metas = append(metas, docMeta{
				ID:         d.ID,
				Name:       d.Name,
				MIMEType:   d.MIMEType,
				Size:       d.Size,
				Kind:       d.Kind,
				Pages:      d.Pages,
				Thumbnail:  d.Thumbnail,
				UploadedAt: d.UploadedAt,
			})
		}
		jsonResp(w, map[string]interface{}{
			"documents": metas,
			"count":     len(metas),
		})

	case http.MethodPost:
		s.handleUpload(w, r)

	case http.MethodDelete:
		if id := r.URL.Query().Get("id"); id != "" {
			if err := s.store.RemoveDocument(id); err != nil {
				jsonErr(w, err.Error(), http.StatusNotFound)
				return
			}
			if err := s.index.Remove(id); err != nil {
				log.Printf("Failed to deindex %s: %v", id, err)
			}
			jsonResp(w, map[string]string{"status": "deleted"})
			return
		}
		// No id clears the whole document set. Chat history stays; it can
		// still be exported afterwards.
		s.store.ClearDocuments()
		if err := s.index.Reset(); err != nil {
			log.Printf("Failed to reset search index: %v", err)
		}
		s.mu.Lock()
		s.lastCombined = nil
		s.mu.Unlock()
		jsonResp(w, map[string]string{"status": "cleared"})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(64 << 20); err != nil {
		jsonErr(w, "Failed to parse upload: "+err.Error(), http.StatusBadRequest)
		return
	}

	mode := r.FormValue("mode")
	if mode == "" {
		mode = "qa"
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		files = r.MultipartForm.File["file"]
	}
	if len(files) == 0 {
		jsonErr(w, "No files uploaded", http.StatusBadRequest)
		return
	}

	s.mu.RLock()
	maxBytes := s.maxUploadMB << 20
	minLen := s.minContentLen
	tessOk := s.tesseractOk
	s.mu.RUnlock()

	// Files are processed strictly one at a time, in the order they were
	// sent, so progress events and results line up with the upload list.
	results := make([]UploadResult, 0, len(files))
	added := 0
	for i, fh := range files {
		name := fh.Filename

		if fh.Size > maxBytes {
			results = append(results, UploadResult{
				Name:   name,
				Status: "rejected",
				Error:  fmt.Sprintf("file exceeds the %d MB size limit", maxBytes>>20),
			})
			continue
		}

		mimeType := extractor.DetectMIME(name, fh.Header.Get("Content-Type"))
		if !mimeAllowed(mode, mimeType) {
			results = append(results, UploadResult{
				Name:   name,
				Status: "rejected",
				Error:  fmt.Sprintf("file type %s is not supported in %s mode", mimeType, mode),
			})
			continue
		}

		if s.store.HasName(name) {
			results = append(results, UploadResult{
				Name:   name,
				Status: "rejected",
				Error:  "a document with this name is already loaded",
			})
			continue
		}

		src, err := fh.Open()
		if err != nil {
			results = append(results, UploadResult{Name: name, Status: "rejected", Error: "could not open upload: " + err.Error()})
			continue
		}
		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			results = append(results, UploadResult{Name: name, Status: "rejected", Error: "could not read upload: " + err.Error()})
			continue
		}

		log.Printf("Extracting %s (%s)...", name, mimeType)
		start := time.Now()
		res := extractor.Extract(r.Context(), extractor.File{Name: name, MIME: mimeType, Data: data}, &extractor.Config{
			MinContentLen: minLen,
			TesseractOk:   tessOk,
			Progress: func(done, total int) {
				s.hub.Broadcast("extract_progress", ExtractProgress{Name: name, Done: done, Total: total})
			},
		})
		log.Printf("Extracted %s: kind=%s in %v", name, res.Kind, time.Since(start))

		thumb := ""
		if res.Kind == extractor.KindImage {
			thumb = res.Content
		}
		doc := s.store.AddDocument(document.Document{
			Name:      name,
			MIMEType:  mimeType,
			Size:      fh.Size,
			Content:   res.Content,
			Kind:      res.Kind,
			Pages:     res.Pages,
			Thumbnail: thumb,
		})

		// Images and unreadable files index by name only; their content
		// is a data URL or a diagnostic, not searchable prose.
		indexed := res.Content
		if res.Kind == extractor.KindImage || res.Kind == extractor.KindUnreadable {
			indexed = ""
		}
		if err := s.index.Add(doc.ID, doc.Name, indexed); err != nil {
			log.Printf("Failed to index %s: %v", name, err)
		}

		added++
		results = append(results, UploadResult{
			Name:   name,
			Status: "ok",
			ID:     doc.ID,
			Kind:   doc.Kind,
			Pages:  doc.Pages,
		})
		s.hub.Broadcast("upload_progress", ExtractProgress{Name: name, Done: i + 1, Total: len(files)})
	}

	s.hub.Broadcast("upload_done", map[string]interface{}{
		"added": added,
		"total": len(files),
	})
	jsonResp(w, map[string]interface{}{
		"results": results,
		"added":   added,
	})
}

// mimeAllowed applies the per-mode upload allow-list. OCR mode takes only
// what the vision path can consume; QA mode takes everything the
// extractor knows how to degrade gracefully.
func mimeAllowed(mode, mimeType string) bool {
	if strings.HasPrefix(mimeType, "image/") || strings.Contains(mimeType, "pdf") {
		return true
	}
	if mode == "ocr" {
		return false
	}
	switch {
	case strings.HasPrefix(mimeType, "text/"),
		strings.Contains(mimeType, "json"),
		strings.Contains(mimeType, "javascript"),
		strings.Contains(mimeType, "msword"),
		strings.Contains(mimeType, "wordprocessingml"),
		strings.Contains(mimeType, "ms-excel"),
		strings.Contains(mimeType, "spreadsheetml"),
		strings.Contains(mimeType, "ms-powerpoint"),
		strings.Contains(mimeType, "presentationml"),
		mimeType == "application/octet-stream":
		return true
	}
	return false
}
