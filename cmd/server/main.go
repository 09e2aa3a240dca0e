package main

import (
	"log"
	"net/http"
	"os"
	"strconv"

	"doclens/internal/document"
	"doclens/internal/extractor"
	"doclens/internal/llm"
	"doclens/internal/search"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	providerKeys := map[string]string{
		"gemini":    os.Getenv("GEMINI_API_KEY"),
		"openai":    os.Getenv("OPENAI_API_KEY"),
		"anthropic": os.Getenv("ANTHROPIC_API_KEY"),
	}

	defaultLLM := os.Getenv("LLM_PROVIDER")
	if defaultLLM == "" {
		defaultLLM = "gemini"
	}
	defaultModel := os.Getenv("LLM_MODEL")

	minContentLen := extractor.DefaultMinContentLen
	if v := os.Getenv("MIN_CONTENT_LENGTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			minContentLen = n
		}
	}

	maxUploadMB := int64(50)
	if v := os.Getenv("MAX_UPLOAD_MB"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			maxUploadMB = n
		}
	}

	// Saved settings win over .env so changes made in the UI survive
	// restarts.
	if saved := loadSavedSettings(); saved != nil {
		log.Printf("Loading saved settings from %s", settingsFile)
		if saved.GeminiKey != "" {
			providerKeys["gemini"] = saved.GeminiKey
		}
		if saved.OpenAIKey != "" {
			providerKeys["openai"] = saved.OpenAIKey
		}
		if saved.AnthropicKey != "" {
			providerKeys["anthropic"] = saved.AnthropicKey
		}
		if saved.DefaultLLM != "" {
			defaultLLM = saved.DefaultLLM
		}
		if saved.MinContentLen > 0 {
			minContentLen = saved.MinContentLen
		}
	}

	tesseractOk := extractor.DetectTesseract()
	switch {
	case tesseractOk && extractor.DetectPdftoppm():
		log.Printf("OCR ready: Tesseract + PDF rasterizer detected")
	case tesseractOk:
		log.Printf("OCR WARNING: Tesseract found but no PDF rasterizer (pdftoppm or magick) - scanned PDFs cannot be converted to images")
		log.Printf("  Install Poppler (pdftoppm) or ImageMagick to OCR scanned PDFs")
	default:
		log.Printf("OCR: Tesseract not found (scanned PDFs will be reported as unreadable)")
		log.Printf("  Install Tesseract and Poppler for local OCR of scanned files")
	}

	idx, err := search.New()
	if err != nil {
		log.Fatalf("Failed to init search index: %v", err)
	}

	srv := &Server{
		store:         document.NewStore(),
		index:         idx,
		hub:           newWSHub(),
		providerKeys:  providerKeys,
		defaultLLM:    defaultLLM,
		defaultModel:  defaultModel,
		adopted:       make(map[string]string),
		minContentLen: minContentLen,
		maxUploadMB:   maxUploadMB,
		tesseractOk:   tesseractOk,
		newProvider:   llm.NewProvider,
	}

	mux := http.NewServeMux()

	// Document & search endpoints
	mux.HandleFunc("/api/documents", srv.handleDocuments)
	mux.HandleFunc("/api/search", srv.handleSearch)

	// Chat & extraction endpoints
	mux.HandleFunc("/api/chat", srv.handleChat)
	mux.HandleFunc("/api/ocr", srv.handleOCR)

	// Export endpoints
	mux.HandleFunc("/api/export/json", srv.handleExportJSON)
	mux.HandleFunc("/api/export/pdf", srv.handleExportPDF)

	// Settings & models
	mux.HandleFunc("/api/settings", srv.handleSettings)
	mux.HandleFunc("/api/models", srv.handleModels)

	// Live progress
	mux.HandleFunc("/ws", srv.hub.HandleWS)

	// Static files
	mux.Handle("/", http.FileServer(http.Dir("web")))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("DocLens server starting on http://localhost:%s", port)
	if err := http.ListenAndServe(":"+port, corsMiddleware(mux)); err != nil {
		log.Fatal(err)
	}
}
