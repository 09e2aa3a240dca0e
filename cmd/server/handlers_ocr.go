package main

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"doclens/internal/answer"
	"doclens/internal/document"
	"doclens/internal/llm"
	"doclens/internal/prompt"
)

// ========== OCR Endpoints ==========

func (s *Server) handleOCR(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req OCRRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonErr(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	docs := s.ocrTargets(req.DocumentIDs)
	if len(docs) == 0 {
		jsonErr(w, "No documents to extract. Upload documents first.", http.StatusBadRequest)
		return
	}

	providerName, provider, err := s.getProvider(req.Provider)
	if err != nil {
		jsonErr(w, err.Error(), http.StatusBadRequest)
		return
	}

	log.Printf("OCR batch: provider=%s documents=%d", providerName, len(docs))

	// One document per model call, in upload order. A failed document
	// contributes an error-shaped result and the batch moves on, so the
	// response always has one entry per input.
	results := make([]answer.OCRResult, 0, len(docs))
	for i, doc := range docs {
		s.hub.Broadcast("ocr_progress", OCRProgress{Name: doc.Name, Index: i + 1, Total: len(docs), Status: "processing"})

		start := time.Now()
		pr, err := prompt.BuildOCR(doc)
		if err != nil {
			results = append(results, answer.ErrorResult(doc.Name, doc.MIMEType, err, time.Since(start)))
			s.hub.Broadcast("ocr_progress", OCRProgress{Name: doc.Name, Index: i + 1, Total: len(docs), Status: "failed"})
			continue
		}

		model := s.modelFor(providerName, req.Model)
		resolved, text, err := llm.Resolve(r.Context(), provider, model, pr)
		if err != nil {
			log.Printf("OCR failed for %s: %v", doc.Name, err)
			results = append(results, answer.ErrorResult(doc.Name, doc.MIMEType, err, time.Since(start)))
			s.hub.Broadcast("ocr_progress", OCRProgress{Name: doc.Name, Index: i + 1, Total: len(docs), Status: "failed"})
			continue
		}

		submitted := model
		if submitted == "" {
			submitted = provider.Catalog().Default
		}
		if resolved != submitted {
			s.adoptModel(providerName, resolved)
		}

		data := answer.ParseStructured(text)
		raw := ""
		if _, fell := data["error"]; fell {
			if _, hasRaw := data["rawText"]; hasRaw {
				raw = text
			}
		}
		results = append(results, answer.OCRResult{
			SourceName:    doc.Name,
			MIMEType:      doc.MIMEType,
			ExtractedData: data,
			RawText:       raw,
			Confidence:    answer.Confidence(data),
			ProcessingMS:  time.Since(start).Milliseconds(),
		})
		s.hub.Broadcast("ocr_progress", OCRProgress{Name: doc.Name, Index: i + 1, Total: len(docs), Status: "done"})
	}

	combined := answer.Combine(results)
	s.setLastCombined(combined)
	s.hub.Broadcast("ocr_batch_done", map[string]interface{}{"documents": combined.TotalDocuments})

	jsonResp(w, combined)
}

// ocrTargets selects the documents for a batch: the requested ids in
// store order, or every document when no ids were given. Unknown ids are
// ignored rather than failing the batch.
func (s *Server) ocrTargets(ids []string) []document.Document {
	all := s.store.Documents()
	if len(ids) == 0 {
		return all
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	picked := make([]document.Document, 0, len(ids))
	for _, d := range all {
		if want[d.ID] {
			picked = append(picked, d)
		}
	}
	return picked
}
