package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"doclens/internal/extractor"

	"github.com/joho/godotenv"
)

// Standalone extraction runner. Feeds files through the same pipeline
// the server uses and prints the result, which makes it easy to check
// what a document will look like to the model before uploading it.
func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: extract <file> [file...]")
		os.Exit(1)
	}

	minLen := extractor.DefaultMinContentLen
	if v := os.Getenv("MIN_CONTENT_LENGTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			minLen = n
		}
	}

	tesseractOk := extractor.DetectTesseract()
	if !tesseractOk {
		log.Printf("Tesseract not found: scanned PDFs will be reported as unreadable")
	}

	start := time.Now()
	for _, path := range os.Args[1:] {
		name := filepath.Base(path)

		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("Failed to read %s: %v", path, err)
			continue
		}

		mimeType := extractor.DetectMIME(name, "")
		fmt.Printf("Processing %s (%s)...\n", name, mimeType)

		res := extractor.Extract(context.Background(), extractor.File{Name: name, MIME: mimeType, Data: data}, &extractor.Config{
			MinContentLen: minLen,
			TesseractOk:   tesseractOk,
			Progress: func(done, total int) {
				fmt.Printf("  OCR page %d/%d\n", done, total)
			},
		})

		fmt.Printf("  kind=%s pages=%d chars=%d\n", res.Kind, res.Pages, len(res.Content))
		if res.Kind == extractor.KindText || res.Kind == extractor.KindPlaceholder || res.Kind == extractor.KindUnreadable {
			fmt.Printf("---- %s ----\n%s\n", name, res.Content)
		}
	}
	fmt.Printf("Finished in %v\n", time.Since(start))
}
