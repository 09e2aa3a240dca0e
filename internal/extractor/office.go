package extractor

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/nguyenthenguyen/docx"
	"github.com/xuri/excelize/v2"
)

// ==================== Word ====================

// extractDOCX pulls plain text from a Word document. The library hands
// back raw document XML, so paragraphs are recovered by splitting on
// <w:p> tags and stripping markup.
func extractDOCX(f File) Result {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(f.Data), int64(len(f.Data)))
	if err != nil {
		return Result{
			Kind: KindPlaceholder,
			Content: fmt.Sprintf("[File: %s (%s)] This Word document could not be opened; it may be corrupted or in the legacy .doc format.",
				f.Name, humanSize(int64(len(f.Data)))),
		}
	}
	defer r.Close()

	var paragraphs []string
	for _, part := range strings.Split(r.Editable().GetContent(), "<w:p") {
		text := strings.TrimSpace(stripTags(part))
		if text != "" {
			paragraphs = append(paragraphs, text)
		}
	}

	if len(paragraphs) == 0 {
		return Result{
			Kind:    KindPlaceholder,
			Content: fmt.Sprintf("[File: %s] This Word document contains no extractable text.", f.Name),
		}
	}
	return Result{Kind: KindText, Content: strings.Join(paragraphs, "\n")}
}

// stripTags removes XML markup, keeping only the character data between tags.
func stripTags(xmlStr string) string {
	var sb strings.Builder
	inTag := false
	for _, r := range xmlStr {
		if r == '<' {
			inTag = true
			continue
		}
		if r == '>' {
			inTag = false
			continue
		}
		if !inTag {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// ==================== Excel ====================

// extractXLSX flattens every sheet into "sheet:row: cell | cell" lines so
// an answer can cite a location the user can find again.
func extractXLSX(f File) Result {
	wb, err := excelize.OpenReader(bytes.NewReader(f.Data))
	if err != nil {
		return Result{
			Kind: KindPlaceholder,
			Content: fmt.Sprintf("[File: %s (%s)] This spreadsheet could not be opened; it may be corrupted or in the legacy .xls format.",
				f.Name, humanSize(int64(len(f.Data)))),
		}
	}
	defer wb.Close()

	var sb strings.Builder
	for _, sheet := range wb.GetSheetList() {
		rows, err := wb.GetRows(sheet)
		if err != nil {
			continue
		}
		for i, row := range rows {
			if rowEmpty(row) {
				continue
			}
			fmt.Fprintf(&sb, "%s:%d: %s\n", sheet, i+1, strings.Join(row, " | "))
		}
	}

	if sb.Len() == 0 {
		return Result{
			Kind:    KindPlaceholder,
			Content: fmt.Sprintf("[File: %s] This spreadsheet contains no data.", f.Name),
		}
	}
	return Result{Kind: KindText, Content: strings.TrimRight(sb.String(), "\n")}
}

func rowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ==================== PowerPoint ====================

var slideNameRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// extractPPTX scrapes the text runs out of each slide. PPTX slides are
// plain XML inside a ZIP, so a token scan over the a:t elements recovers
// all visible text without a dedicated reader.
func extractPPTX(f File) Result {
	zr, err := zip.NewReader(bytes.NewReader(f.Data), int64(len(f.Data)))
	if err != nil {
		return Result{
			Kind: KindPlaceholder,
			Content: fmt.Sprintf("[File: %s (%s)] This presentation could not be opened; it may be corrupted or in the legacy .ppt format.",
				f.Name, humanSize(int64(len(f.Data)))),
		}
	}

	type slide struct {
		num  int
		text string
	}
	var slides []slide

	for _, zf := range zr.File {
		num, ok := slideNumber(zf.Name)
		if !ok {
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			continue
		}
		text := scrapeSlideText(rc)
		rc.Close()
		if text != "" {
			slides = append(slides, slide{num: num, text: text})
		}
	}

	if len(slides) == 0 {
		return Result{
			Kind:    KindPlaceholder,
			Content: fmt.Sprintf("[File: %s] This presentation contains no readable text.", f.Name),
		}
	}

	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	var sb strings.Builder
	for i, s := range slides {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "Slide %d:\n%s", s.num, s.text)
	}
	return Result{Kind: KindText, Content: sb.String()}
}

func slideNumber(name string) (int, bool) {
	m := slideNameRe.FindStringSubmatch(name)
	if len(m) < 2 {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// scrapeSlideText collects the character data inside a:t elements, with a
// newline at the end of each a:p paragraph.
func scrapeSlideText(r io.Reader) string {
	dec := xml.NewDecoder(r)
	var sb strings.Builder
	inTextRun := false

	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inTextRun = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inTextRun = false
			case "p":
				sb.WriteString("\n")
			}
		case xml.CharData:
			if inTextRun {
				sb.Write(t)
			}
		}
	}
	return strings.TrimSpace(sb.String())
}
