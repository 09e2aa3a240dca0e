// Package prompt assembles multimodal model requests from the session's
// documents: a fixed instruction, the user's question with per-document
// context tags, and one content part per readable document.
package prompt

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"doclens/internal/document"
	"doclens/internal/extractor"
)

// ErrNoReadableContent reports that none of the supplied documents carried
// content worth sending to the model.
var ErrNoReadableContent = errors.New("no readable content in the uploaded documents")

// RefusalMessage is the exact sentence the model is instructed to reply
// with when a question is not about the uploaded documents.
const RefusalMessage = "I can only answer questions about the uploaded documents. Please ask something related to their content."

// instruction constrains the model to the supplied documents. The synonym
// table keeps everyday question phrasing from being refused just because
// a document uses different words.
const instruction = `You are a document analysis assistant. Answer questions using ONLY the content of the documents provided in this request.

Rules:
- Base every statement on the supplied documents; never use outside knowledge.
- If the question cannot be answered from the documents, reply exactly: "` + RefusalMessage + `"
- Treat these as the same when matching questions to document content: experience = work history, salary = compensation = pay, education = qualifications = degrees, skills = expertise = competencies, company = employer = organization, total = amount = sum.
- Say which document each part of your answer comes from, by file name.
- Be concise and factual.`

// ocrInstruction drives the structured-extraction mode.
const ocrInstruction = `You are a data extraction engine. Read the supplied document and return ALL information you can recognize as structured JSON.

Rules:
- Return ONLY a JSON object, with no prose and no Markdown fences.
- Use descriptive snake_case keys and group related fields into nested objects.
- Capture every readable field: names, dates, amounts, identifiers, addresses, line items.
- Put text that fits no structured field under a "raw_text" key.
- If the document is unreadable, return {"error": "<short reason>"}.`

// Part is one unit of model input: either text, or inline binary data
// with its MIME type.
type Part struct {
	Text string
	Data []byte
	MIME string
}

// Prompt is an assembled model request.
type Prompt struct {
	Instruction string
	Parts       []Part
	Excluded    []string // documents routed to the cannot-analyze list
}

// Build assembles the Q&A prompt for a question over the loaded documents.
// minContentLen gates which extracted text counts as usable; zero means
// the extractor default.
func Build(question string, docs []document.Document, minContentLen int) (*Prompt, error) {
	if minContentLen <= 0 {
		minContentLen = extractor.DefaultMinContentLen
	}

	p := &Prompt{Instruction: instruction}

	// The question goes first, with one context line per document so the
	// model can resolve domain vocabulary against the right file.
	var ctxLines []string
	for _, d := range docs {
		ctxLines = append(ctxLines, fmt.Sprintf("- %s (%s; %s)",
			d.Name, strings.Join(Tags(d.Name), ", "), Category(d.MIMEType)))
	}
	p.Parts = append(p.Parts, Part{Text: fmt.Sprintf("Question: %s\n\nUploaded documents:\n%s",
		question, strings.Join(ctxLines, "\n"))})

	contentParts := 0
	for _, d := range docs {
		switch d.Kind {
		case extractor.KindImage:
			data, mimeType, err := decodeDataURL(d.Content)
			if err != nil {
				p.Excluded = append(p.Excluded, d.Name)
				continue
			}
			p.Parts = append(p.Parts,
				Part{Text: fmt.Sprintf("[Image: %s]", d.Name)},
				Part{Data: data, MIME: mimeType})
			contentParts++
		case extractor.KindText:
			if len(strings.TrimSpace(d.Content)) < minContentLen {
				continue
			}
			p.Parts = append(p.Parts, Part{Text: fmt.Sprintf("=== %s ===\n%s", d.Name, d.Content)})
			contentParts++
		case extractor.KindPlaceholder:
			// Degraded extraction messages still tell the model the file
			// exists and why it is empty.
			p.Parts = append(p.Parts, Part{Text: d.Content})
			contentParts++
		default:
			p.Excluded = append(p.Excluded, d.Name)
		}
	}

	if len(p.Excluded) > 0 {
		p.Parts = append(p.Parts, Part{Text: fmt.Sprintf(
			"Note: the following files could not be analyzed (image-based or unreadable): %s. If asked about them, say they could not be read.",
			strings.Join(p.Excluded, ", "))})
	}

	if contentParts == 0 {
		return nil, ErrNoReadableContent
	}
	return p, nil
}

// BuildOCR assembles the structured-extraction prompt for one document.
func BuildOCR(doc document.Document) (*Prompt, error) {
	p := &Prompt{Instruction: ocrInstruction}

	switch doc.Kind {
	case extractor.KindImage:
		data, mimeType, err := decodeDataURL(doc.Content)
		if err != nil {
			return nil, ErrNoReadableContent
		}
		p.Parts = append(p.Parts,
			Part{Text: fmt.Sprintf("Document: %s", doc.Name)},
			Part{Data: data, MIME: mimeType})
	case extractor.KindText:
		if strings.TrimSpace(doc.Content) == "" {
			return nil, ErrNoReadableContent
		}
		p.Parts = append(p.Parts, Part{Text: fmt.Sprintf("Document: %s\n\n%s", doc.Name, doc.Content)})
	default:
		return nil, ErrNoReadableContent
	}
	return p, nil
}

// decodeDataURL splits a "data:<mime>;base64,<payload>" string back into
// raw bytes and the MIME type.
func decodeDataURL(s string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return nil, "", fmt.Errorf("not a data URL")
	}
	mimeType, payload, ok := strings.Cut(rest, ";base64,")
	if !ok {
		return nil, "", fmt.Errorf("data URL is not base64-encoded")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("decode data URL payload: %w", err)
	}
	return data, mimeType, nil
}
