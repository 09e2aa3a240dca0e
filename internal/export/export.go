// Package export renders session artifacts for download: extraction
// results as indented JSON and the chat history as a PDF transcript.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"doclens/internal/answer"
	"doclens/internal/document"
)

// ==================== JSON report ====================

// JSONReport marshals combined extraction results with indentation and
// returns them with a date-stamped filename.
func JSONReport(combined answer.CombinedOCR) (string, []byte, error) {
	data, err := json.MarshalIndent(combined, "", "  ")
	if err != nil {
		return "", nil, fmt.Errorf("marshal results: %w", err)
	}
	name := fmt.Sprintf("extraction-results-%s.json", time.Now().Format("2006-01-02"))
	return name, data, nil
}

// ==================== PDF transcript ====================

// PDFTranscript renders the chat history to PDF. The styled renderer is
// tried first; if it fails on the given content the plain renderer takes
// over, so a transcript is produced whenever one is possible at all.
func PDFTranscript(messages []document.Message, docs []document.Document) (string, []byte, error) {
	name := fmt.Sprintf("chat-transcript-%s.pdf", time.Now().Format("2006-01-02"))

	data, err := styledTranscript(messages, docs)
	if err == nil {
		return name, data, nil
	}

	data, plainErr := plainTranscript(messages)
	if plainErr != nil {
		return "", nil, fmt.Errorf("render transcript: %w (plain fallback: %v)", err, plainErr)
	}
	return name, data, nil
}

func styledTranscript(messages []document.Message, docs []document.Document) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 16)
	pdf.SetTextColor(40, 40, 40)
	pdf.Cell(0, 10, "Chat Transcript")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 9)
	pdf.SetTextColor(120, 120, 120)
	pdf.Cell(0, 5, "Generated "+time.Now().Format("January 2, 2006 15:04"))
	pdf.Ln(6)
	if len(docs) > 0 {
		names := make([]string, 0, len(docs))
		for _, d := range docs {
			names = append(names, d.Name)
		}
		pdf.MultiCell(0, 5, tr("Documents: "+strings.Join(names, ", ")), "", "L", false)
	}
	pdf.Ln(2)
	pdf.SetDrawColor(200, 200, 200)
	pdf.Line(10, pdf.GetY(), 200, pdf.GetY())
	pdf.Ln(6)

	for _, msg := range messages {
		header := "You"
		if msg.Role == "assistant" {
			header = "Assistant"
			pdf.SetTextColor(20, 80, 140)
		} else {
			pdf.SetTextColor(40, 40, 40)
		}
		pdf.SetFont("Arial", "B", 11)
		pdf.Cell(0, 6, header)
		if !msg.CreatedAt.IsZero() {
			pdf.SetFont("Arial", "", 8)
			pdf.SetTextColor(150, 150, 150)
			pdf.Cell(0, 6, msg.CreatedAt.Format("15:04:05"))
		}
		pdf.Ln(6)

		pdf.SetFont("Arial", "", 10)
		pdf.SetTextColor(60, 60, 60)
		pdf.MultiCell(0, 5, tr(msg.Content), "", "L", false)

		if len(msg.Sources) > 0 {
			pdf.SetFont("Arial", "I", 8)
			pdf.SetTextColor(120, 120, 120)
			pdf.MultiCell(0, 4, tr("Sources: "+strings.Join(msg.Sources, ", ")), "", "L", false)
		}
		if msg.Model != "" {
			pdf.SetFont("Arial", "I", 8)
			pdf.SetTextColor(150, 150, 150)
			pdf.Cell(0, 4, tr("Model: "+msg.Model))
			pdf.Ln(4)
		}
		pdf.Ln(4)
	}

	if pdf.Error() != nil {
		return nil, pdf.Error()
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// plainTranscript uses the smallest possible fpdf surface so it can
// survive content the styled renderer chokes on.
func plainTranscript(messages []document.Message) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	pdf.SetFont("Courier", "", 9)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.MultiCell(0, 4, "Chat Transcript", "", "L", false)
	pdf.Ln(4)
	for _, msg := range messages {
		role := "You"
		if msg.Role == "assistant" {
			role = "Assistant"
		}
		pdf.MultiCell(0, 4, tr(role+": "+msg.Content), "", "L", false)
		pdf.Ln(2)
	}

	if pdf.Error() != nil {
		return nil, pdf.Error()
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
