package prompt

import "strings"

// contextRule maps filename keywords to one human-readable document tag.
type contextRule struct {
	Tag      string
	Keywords []string
}

// contextRules is the filename taxonomy, checked in order against the
// lowercased name with separators normalized to spaces. A file can pick
// up several tags; substring matching is a deliberate, crude heuristic.
var contextRules = []contextRule{
	{Tag: "medical", Keywords: []string{"medical", "health", "patient", "prescription", "diagnosis", "lab", "clinical", "discharge", "hospital", "doctor", "xray", "scan report"}},
	{Tag: "financial", Keywords: []string{"financial", "bank", "statement", "invoice", "receipt", "tax", "budget", "payroll", "salary", "expense", "billing", "ledger"}},
	{Tag: "legal", Keywords: []string{"legal", "contract", "agreement", "court", "case", "affidavit", "deed", "terms", "nda"}},
	{Tag: "identity", Keywords: []string{"passport", "license", "licence", "id card", "identity", "kyc", "ssn", "voter"}},
	{Tag: "resume", Keywords: []string{"resume", "cv", "curriculum", "cover letter"}},
	{Tag: "business", Keywords: []string{"proposal", "quotation", "quote", "purchase order", "memo", "minutes", "business plan"}},
	{Tag: "technical", Keywords: []string{"manual", "technical", "architecture", "api", "readme", "changelog", "spec"}},
	{Tag: "research", Keywords: []string{"research", "paper", "study", "thesis", "journal", "abstract", "survey"}},
	{Tag: "communication", Keywords: []string{"letter", "email", "correspondence", "notice", "circular", "announcement"}},
	{Tag: "real estate", Keywords: []string{"property", "lease", "rental", "mortgage", "real estate", "title deed"}},
	{Tag: "educational", Keywords: []string{"certificate", "transcript", "marksheet", "diploma", "degree", "course", "syllabus"}},
	{Tag: "government", Keywords: []string{"government", "gazette", "permit", "visa", "registration", "application form"}},
	{Tag: "marketing", Keywords: []string{"brochure", "flyer", "campaign", "marketing", "catalog", "pricelist"}},
	{Tag: "report", Keywords: []string{"report", "analysis", "summary", "overview", "review", "audit"}},
}

var nameNormalizer = strings.NewReplacer("_", " ", "-", " ", ".", " ")

// Tags classifies a filename against the taxonomy. Files that match
// nothing are tagged "general document".
func Tags(name string) []string {
	normalized := nameNormalizer.Replace(strings.ToLower(name))

	var tags []string
	for _, rule := range contextRules {
		for _, kw := range rule.Keywords {
			if strings.Contains(normalized, kw) {
				tags = append(tags, rule.Tag)
				break
			}
		}
	}
	if len(tags) == 0 {
		return []string{"general document"}
	}
	return tags
}

// Category maps a MIME type to the coarse label used in prompt context
// lines.
func Category(mimeType string) string {
	m := strings.ToLower(mimeType)
	switch {
	case strings.HasPrefix(m, "image/"):
		return "image"
	case strings.Contains(m, "pdf"):
		return "PDF document"
	case strings.Contains(m, "spreadsheetml"), strings.Contains(m, "ms-excel"), strings.Contains(m, "csv"):
		return "spreadsheet"
	case strings.Contains(m, "presentationml"), strings.Contains(m, "ms-powerpoint"):
		return "presentation"
	case strings.Contains(m, "wordprocessingml"), strings.Contains(m, "msword"):
		return "Word document"
	case strings.HasPrefix(m, "text/"), strings.Contains(m, "json"), strings.Contains(m, "javascript"):
		return "text document"
	}
	return "file"
}
