// Package extractor turns uploaded files into text the model can read.
// Extraction never fails outright: unsupported or unreadable inputs
// degrade to descriptive placeholder strings, so a batch always yields
// exactly one result per file.
package extractor

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
)

// Result kinds.
const (
	KindText        = "text"        // readable text was extracted
	KindImage       = "image"       // raw image carried as a data URL
	KindPlaceholder = "placeholder" // short note standing in for content that cannot be read
	KindUnreadable  = "unreadable"  // extraction was attempted and failed; excluded from analysis
)

// File is one uploaded input.
type File struct {
	Name string
	MIME string // declared type; may be empty or application/octet-stream
	Data []byte
}

// Result is the outcome of extracting one file.
type Result struct {
	Content string
	Kind    string
	Pages   int // PDFs only
}

// Config tunes extraction.
type Config struct {
	MinContentLen int                   // a PDF text layer shorter than this is treated as empty
	TesseractOk   bool                  // set from DetectTesseract at startup
	Progress      func(done, total int) // optional OCR page progress callback
}

// DefaultMinContentLen is the threshold below which extracted text does
// not count as readable content.
const DefaultMinContentLen = 50

func (c *Config) minLen() int {
	if c == nil || c.MinContentLen <= 0 {
		return DefaultMinContentLen
	}
	return c.MinContentLen
}

func (c *Config) tesseractOk() bool {
	return c != nil && c.TesseractOk
}

func (c *Config) progress(done, total int) {
	if c != nil && c.Progress != nil {
		c.Progress(done, total)
	}
}

// Extract dispatches on the file's effective MIME type and always returns
// a Result, never an error.
func Extract(ctx context.Context, f File, cfg *Config) Result {
	mimeType := DetectMIME(f.Name, f.MIME)

	switch {
	case isTextMIME(mimeType):
		return Result{Kind: KindText, Content: string(f.Data)}
	case strings.Contains(mimeType, "pdf"):
		return extractPDF(ctx, f, cfg)
	case strings.HasPrefix(mimeType, "image/"):
		return extractImage(f, mimeType)
	case isWordMIME(mimeType):
		return extractDOCX(f)
	case isExcelMIME(mimeType):
		return extractXLSX(f)
	case isPowerPointMIME(mimeType):
		return extractPPTX(f)
	}

	return Result{
		Kind: KindPlaceholder,
		Content: fmt.Sprintf("[File: %s (%s)] This file type (%s) cannot be read as text; its contents are not available for analysis.",
			f.Name, humanSize(int64(len(f.Data))), mimeType),
	}
}

// extractImage keeps the raw bytes as a data URL so they can be sent to
// the model inline and previewed by the client.
func extractImage(f File, mimeType string) Result {
	b64 := base64.StdEncoding.EncodeToString(f.Data)
	return Result{Kind: KindImage, Content: "data:" + mimeType + ";base64," + b64}
}

// ==================== MIME handling ====================

// extMIME covers the extensions the tool cares about. Checked before the
// platform MIME database so dispatch stays deterministic across systems.
var extMIME = map[string]string{
	".txt":  "text/plain",
	".md":   "text/markdown",
	".csv":  "text/csv",
	".log":  "text/plain",
	".json": "application/json",
	".js":   "text/javascript",
	".py":   "text/x-python",
	".sh":   "text/x-shellscript",
	".pdf":  "application/pdf",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".ppt":  "application/vnd.ms-powerpoint",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".mp4":  "video/mp4",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
	".zip":  "application/zip",
	".tar":  "application/x-tar",
	".gz":   "application/gzip",
}

// DetectMIME resolves the effective MIME type from the declared value,
// falling back to the file extension when the client sent nothing useful.
func DetectMIME(name, declared string) string {
	declared = strings.ToLower(strings.TrimSpace(declared))
	if i := strings.Index(declared, ";"); i >= 0 {
		declared = strings.TrimSpace(declared[:i])
	}
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}

	ext := strings.ToLower(filepath.Ext(name))
	if m, ok := extMIME[ext]; ok {
		return m
	}
	if m := mime.TypeByExtension(ext); m != "" {
		if i := strings.Index(m, ";"); i >= 0 {
			m = m[:i]
		}
		return m
	}
	return "application/octet-stream"
}

func isTextMIME(m string) bool {
	return strings.HasPrefix(m, "text/") ||
		strings.Contains(m, "json") ||
		strings.Contains(m, "javascript")
}

func isWordMIME(m string) bool {
	return strings.Contains(m, "msword") || strings.Contains(m, "wordprocessingml")
}

func isExcelMIME(m string) bool {
	return strings.Contains(m, "ms-excel") || strings.Contains(m, "spreadsheetml")
}

func isPowerPointMIME(m string) bool {
	return strings.Contains(m, "ms-powerpoint") || strings.Contains(m, "presentationml")
}

func humanSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}
