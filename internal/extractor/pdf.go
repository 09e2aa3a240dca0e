package extractor

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// PDF diagnosis outcomes.
type pdfDiag int

const (
	pdfOK pdfDiag = iota
	pdfEncrypted
	pdfCorrupted
)

// extractPDF pulls text out of a PDF, preferring the embedded text layer
// and falling back to OCR for scanned documents. Password-protected,
// corrupted, and image-only files each degrade to their own message so
// the user knows what to fix.
func extractPDF(ctx context.Context, f File, cfg *Config) Result {
	tmpPath, cleanup, err := writeTemp(f.Data, "doclens-*.pdf")
	if err != nil {
		return Result{
			Kind:    KindUnreadable,
			Content: fmt.Sprintf("[File: %s] The PDF could not be staged for processing: %v.", f.Name, err),
		}
	}
	defer cleanup()

	pages, diag := diagnosePDF(tmpPath)
	switch diag {
	case pdfEncrypted:
		return Result{
			Kind:    KindPlaceholder,
			Pages:   pages,
			Content: fmt.Sprintf("[File: %s] This PDF is password-protected and cannot be read. Remove the password and upload it again.", f.Name),
		}
	case pdfCorrupted:
		return Result{
			Kind:    KindPlaceholder,
			Content: fmt.Sprintf("[File: %s] This PDF appears to be corrupted or is not a valid PDF file.", f.Name),
		}
	}

	text, textPages := pdfTextLayer(f.Data)
	if pages == 0 {
		pages = textPages
	}
	if len(strings.TrimSpace(text)) >= cfg.minLen() {
		return Result{Kind: KindText, Content: text, Pages: pages}
	}

	// No usable text layer: treat as a scanned document.
	return resolveScanned(f.Name, pages, cfg, func() (string, error) {
		return ocrPDF(ctx, tmpPath, f.Name, cfg)
	})
}

// resolveScanned decides what a PDF without a usable text layer becomes:
// OCR text when the tooling is present and finds something, otherwise a
// message distinguishing missing tooling from genuinely unreadable pages.
func resolveScanned(name string, pages int, cfg *Config, runOCR func() (string, error)) Result {
	if !cfg.tesseractOk() {
		return Result{
			Kind:  KindUnreadable,
			Pages: pages,
			Content: fmt.Sprintf("[File: %s] This PDF has no embedded text layer and OCR tooling is not installed. Install Tesseract (plus Poppler or ImageMagick) to read scanned PDFs.",
				name),
		}
	}

	text, err := runOCR()
	if err != nil {
		log.Printf("OCR failed for %s: %v", name, err)
		return Result{
			Kind:    KindUnreadable,
			Pages:   pages,
			Content: fmt.Sprintf("[File: %s] This PDF appears to be image-based and OCR could not process it: %v.", name, err),
		}
	}
	if strings.TrimSpace(text) == "" {
		return Result{
			Kind:    KindUnreadable,
			Pages:   pages,
			Content: fmt.Sprintf("[File: %s] This PDF appears to be image-based and no readable text could be recognized in it.", name),
		}
	}
	return Result{Kind: KindText, Content: text, Pages: pages}
}

// diagnosePDF opens the file structurally to distinguish a healthy PDF
// from an encrypted or corrupted one before any text extraction runs.
func diagnosePDF(path string) (int, pdfDiag) {
	pdfCtx, err := api.ReadContextFile(path)
	if err != nil {
		if looksEncrypted(err) {
			return 0, pdfEncrypted
		}
		return 0, pdfCorrupted
	}
	if pdfCtx.Encrypt != nil {
		return pdfCtx.PageCount, pdfEncrypted
	}
	return pdfCtx.PageCount, pdfOK
}

func looksEncrypted(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "password") ||
		strings.Contains(msg, "encrypt") ||
		strings.Contains(msg, "protect")
}

// pdfTextLayer reads the embedded text of every page. Pages that fail
// individually are skipped rather than failing the document.
func pdfTextLayer(data []byte) (text string, pages int) {
	// The parser panics on some malformed files; degrade to no text.
	defer func() {
		if r := recover(); r != nil {
			text, pages = "", 0
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0
	}

	var sb strings.Builder
	pages = r.NumPage()
	for i := 1; i <= pages; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		str, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		if strings.TrimSpace(str) != "" {
			sb.WriteString(str)
			sb.WriteString("\n")
		}
	}
	return sb.String(), pages
}

// writeTemp stages bytes as a temp file for tools that need a path on
// disk. The returned cleanup removes the file.
func writeTemp(data []byte, pattern string) (string, func(), error) {
	tmp, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", nil, err
	}
	path := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(path)
		return "", nil, err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(path)
		return "", nil, err
	}
	return path, func() { os.Remove(path) }, nil
}
