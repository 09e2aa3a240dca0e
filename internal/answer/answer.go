// Package answer post-processes model output: source attribution for chat
// answers and JSON recovery for structured extraction. Model output is
// treated as untrusted text; nothing here ever discards it.
package answer

import (
	"encoding/json"
	"strings"
	"time"
)

// ==================== Source attribution ====================

// AttributeSources scans an answer for case-insensitive mentions of the
// given document names. When no name is mentioned it cites every
// document, favoring over-attribution over a silent miss.
func AttributeSources(answerText string, names []string) []string {
	lower := strings.ToLower(answerText)
	var cited []string
	for _, name := range names {
		if name == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(name)) {
			cited = append(cited, name)
		}
	}
	if len(cited) == 0 {
		cited = append(cited, names...)
	}
	return cited
}

// ==================== Structured extraction ====================

// OCRResult is the structured-extraction outcome for one document. A
// failed document still produces a result, with the failure under an
// "error" key in ExtractedData, so batch output stays one-to-one with
// its inputs.
type OCRResult struct {
	SourceName    string                 `json:"source_name"`
	MIMEType      string                 `json:"mime_type"`
	ExtractedData map[string]interface{} `json:"extracted_data"`
	RawText       string                 `json:"raw_text,omitempty"`
	Confidence    float64                `json:"confidence,omitempty"`
	ProcessingMS  int64                  `json:"processing_ms"`
}

// CombinedOCR aggregates a batch of per-document results for export.
type CombinedOCR struct {
	TotalDocuments int         `json:"total_documents"`
	GeneratedAt    time.Time   `json:"generated_at"`
	Results        []OCRResult `json:"results"`
}

// ParseStructured recovers a key-value tree from model output that is
// supposed to be JSON but often arrives fenced or wrapped in prose. When
// nothing parses, the raw text is preserved under rawText alongside an
// error note so the output is never lost.
func ParseStructured(raw string) map[string]interface{} {
	for _, candidate := range []string{stripFences(raw), outerObject(raw)} {
		if candidate == "" {
			continue
		}
		var tree map[string]interface{}
		if err := json.Unmarshal([]byte(candidate), &tree); err == nil {
			return tree
		}
	}

	// Valid JSON that is not an object (an array, say) still counts.
	var v interface{}
	if err := json.Unmarshal([]byte(stripFences(raw)), &v); err == nil {
		return map[string]interface{}{"data": v}
	}

	return map[string]interface{}{
		"rawText": raw,
		"error":   "model output could not be parsed as JSON",
	}
}

func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json\n")
	s = strings.TrimPrefix(s, "```\n")
	s = strings.Split(s, "```")[0]
	return strings.TrimSpace(s)
}

// outerObject trims to the outermost braces, recovering objects the
// model wrapped in prose.
func outerObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

// Confidence lifts a numeric "confidence" value out of parsed extraction
// data. Missing or non-numeric values report zero.
func Confidence(data map[string]interface{}) float64 {
	if v, ok := data["confidence"].(float64); ok {
		return v
	}
	return 0
}

// ErrorResult builds the error-shaped entry for a document that failed
// before or during extraction.
func ErrorResult(name, mimeType string, err error, elapsed time.Duration) OCRResult {
	return OCRResult{
		SourceName:    name,
		MIMEType:      mimeType,
		ExtractedData: map[string]interface{}{"error": err.Error()},
		ProcessingMS:  elapsed.Milliseconds(),
	}
}

// Combine folds per-document results into the export shape. Order is
// preserved and nothing is deduplicated.
func Combine(results []OCRResult) CombinedOCR {
	return CombinedOCR{
		TotalDocuments: len(results),
		GeneratedAt:    time.Now(),
		Results:        results,
	}
}
