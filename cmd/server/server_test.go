package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"doclens/internal/answer"
	"doclens/internal/document"
	"doclens/internal/llm"
	"doclens/internal/prompt"
	"doclens/internal/search"
)

// fakeProvider satisfies llm.Provider without any network. Models listed
// in errs fail with that error; everything else answers with reply.
type fakeProvider struct {
	catalog llm.ModelCatalog
	reply   string
	errs    map[string]error
	calls   []string
}

func (f *fakeProvider) Name() string              { return "gemini" }
func (f *fakeProvider) Catalog() llm.ModelCatalog { return f.catalog }

func (f *fakeProvider) Generate(ctx context.Context, model string, pr *prompt.Prompt) (string, error) {
	f.calls = append(f.calls, model)
	if err := f.errs[model]; err != nil {
		return "", err
	}
	return f.reply, nil
}

func testCatalog() llm.ModelCatalog {
	return llm.ModelCatalog{
		Default:   "m-default",
		Fallbacks: []string{"m-fallback-1", "m-fallback-2"},
		Discovery: []string{"m-default", "m-fallback-1", "m-fallback-2"},
	}
}

func newTestServer(t *testing.T, fake *fakeProvider) *Server {
	t.Helper()
	idx, err := search.New()
	if err != nil {
		t.Fatalf("search.New: %v", err)
	}
	t.Cleanup(func() { idx.Close() })
	return &Server{
		store:         document.NewStore(),
		index:         idx,
		hub:           newWSHub(),
		providerKeys:  map[string]string{"gemini": "test-key-1234567890"},
		defaultLLM:    "gemini",
		adopted:       make(map[string]string),
		minContentLen: 50,
		maxUploadMB:   50,
		newProvider: func(name, key string) (llm.Provider, error) {
			return fake, nil
		},
	}
}

type uploadFile struct {
	name    string
	content string
}

func doUpload(t *testing.T, s *Server, mode string, files []uploadFile) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if mode != "" {
		if err := mw.WriteField("mode", mode); err != nil {
			t.Fatalf("write mode field: %v", err)
		}
	}
	for _, f := range files {
		fw, err := mw.CreateFormFile("files", f.name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write([]byte(f.content)); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	s.handleDocuments(rr, req)
	return rr
}

func doJSON(t *testing.T, handler http.HandlerFunc, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		rd = bytes.NewReader(data)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, rd)
	rr := httptest.NewRecorder()
	handler(rr, req)
	return rr
}

const invoiceText = "Invoice #123 from Acme Corp.\nBill to: Jane Smith\nTotal due: $450.00 by 2025-09-01.\nThank you for your business."

// ========== upload ==========

func TestUpload_AcceptsTextFile(t *testing.T) {
	s := newTestServer(t, &fakeProvider{catalog: testCatalog()})

	rr := doUpload(t, s, "qa", []uploadFile{{"invoice.txt", invoiceText}})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", rr.Code, rr.Body.String())
	}

	var resp struct {
		Results []UploadResult `json:"results"`
		Added   int            `json:"added"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Added != 1 || len(resp.Results) != 1 {
		t.Fatalf("added = %d, results = %d, want 1 and 1", resp.Added, len(resp.Results))
	}
	got := resp.Results[0]
	if got.Status != "ok" || got.Kind != "text" || got.ID == "" {
		t.Errorf("result = %+v, want ok/text with an id", got)
	}
	if s.store.DocumentCount() != 1 {
		t.Errorf("document count = %d, want 1", s.store.DocumentCount())
	}
}

func TestUpload_RejectsUnsupportedAndOversize(t *testing.T) {
	s := newTestServer(t, &fakeProvider{catalog: testCatalog()})
	s.maxUploadMB = 1

	rr := doUpload(t, s, "qa", []uploadFile{
		{"clip.mp4", "not really video"},
		{"big.txt", strings.Repeat("a", 2<<20)},
		{"invoice.txt", invoiceText},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var resp struct {
		Results []UploadResult `json:"results"`
		Added   int            `json:"added"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Added != 1 {
		t.Fatalf("added = %d, want 1", resp.Added)
	}
	if got := resp.Results[0]; got.Status != "rejected" || !strings.Contains(got.Error, "not supported") {
		t.Errorf("mp4 result = %+v, want rejection mentioning support", got)
	}
	if got := resp.Results[1]; got.Status != "rejected" || !strings.Contains(got.Error, "size limit") {
		t.Errorf("oversize result = %+v, want rejection mentioning the size limit", got)
	}
	if got := resp.Results[2]; got.Status != "ok" {
		t.Errorf("invoice result = %+v, want ok", got)
	}
}

func TestUpload_OCRModeRejectsPlainText(t *testing.T) {
	s := newTestServer(t, &fakeProvider{catalog: testCatalog()})

	rr := doUpload(t, s, "ocr", []uploadFile{{"notes.txt", invoiceText}})
	var resp struct {
		Results []UploadResult `json:"results"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got := resp.Results[0]; got.Status != "rejected" || !strings.Contains(got.Error, "ocr mode") {
		t.Errorf("result = %+v, want rejection naming ocr mode", got)
	}
}

func TestUpload_RejectsDuplicateName(t *testing.T) {
	s := newTestServer(t, &fakeProvider{catalog: testCatalog()})

	doUpload(t, s, "qa", []uploadFile{{"invoice.txt", invoiceText}})
	rr := doUpload(t, s, "qa", []uploadFile{{"invoice.txt", invoiceText}})

	var resp struct {
		Results []UploadResult `json:"results"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got := resp.Results[0]; got.Status != "rejected" || !strings.Contains(got.Error, "already loaded") {
		t.Errorf("result = %+v, want duplicate rejection", got)
	}
	if s.store.DocumentCount() != 1 {
		t.Errorf("document count = %d, want 1", s.store.DocumentCount())
	}
}

func TestDocuments_ListAndClear(t *testing.T) {
	s := newTestServer(t, &fakeProvider{catalog: testCatalog()})
	doUpload(t, s, "qa", []uploadFile{{"invoice.txt", invoiceText}})

	rr := doJSON(t, s.handleDocuments, http.MethodGet, "/api/documents", nil)
	var list struct {
		Documents []docMeta `json:"documents"`
		Count     int       `json:"count"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Count != 1 || list.Documents[0].Name != "invoice.txt" {
		t.Fatalf("list = %+v, want one invoice.txt entry", list)
	}

	rr = doJSON(t, s.handleDocuments, http.MethodDelete, "/api/documents", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("clear status = %d, want 200", rr.Code)
	}
	if s.store.DocumentCount() != 0 {
		t.Errorf("document count after clear = %d, want 0", s.store.DocumentCount())
	}
}

// ========== chat ==========

func TestChat_EndToEnd(t *testing.T) {
	fake := &fakeProvider{
		catalog: testCatalog(),
		reply:   "The total in invoice.txt is $450.00, due 2025-09-01.",
	}
	s := newTestServer(t, fake)
	doUpload(t, s, "qa", []uploadFile{{"invoice.txt", invoiceText}})

	rr := doJSON(t, s.handleChat, http.MethodPost, "/api/chat", ChatRequest{Question: "What is the total?"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", rr.Code, rr.Body.String())
	}

	var resp ChatResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Answer != fake.reply {
		t.Errorf("answer = %q, want the fake reply", resp.Answer)
	}
	if resp.Model != "m-default" {
		t.Errorf("model = %q, want m-default", resp.Model)
	}
	if len(resp.Sources) != 1 || resp.Sources[0] != "invoice.txt" {
		t.Errorf("sources = %v, want [invoice.txt]", resp.Sources)
	}

	msgs := s.store.Messages()
	if len(msgs) != 2 {
		t.Fatalf("history length = %d, want 2", len(msgs))
	}
	if msgs[0].Role != "user" || msgs[1].Role != "assistant" {
		t.Errorf("roles = %s/%s, want user/assistant", msgs[0].Role, msgs[1].Role)
	}
	if msgs[1].Model != "m-default" {
		t.Errorf("assistant message model = %q, want m-default", msgs[1].Model)
	}
}

func TestChat_RequiresDocuments(t *testing.T) {
	s := newTestServer(t, &fakeProvider{catalog: testCatalog()})

	rr := doJSON(t, s.handleChat, http.MethodPost, "/api/chat", ChatRequest{Question: "Anything?"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "No documents uploaded") {
		t.Errorf("body = %s, want a no-documents message", rr.Body.String())
	}
}

func TestChat_RequiresQuestion(t *testing.T) {
	s := newTestServer(t, &fakeProvider{catalog: testCatalog()})

	rr := doJSON(t, s.handleChat, http.MethodPost, "/api/chat", ChatRequest{Question: "   "})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestChat_AdoptsFallbackModel(t *testing.T) {
	fake := &fakeProvider{
		catalog: testCatalog(),
		reply:   "Answer from the fallback.",
		errs: map[string]error{
			"m-default": fmt.Errorf("%w: m-default is gone", llm.ErrModelNotFound),
		},
	}
	s := newTestServer(t, fake)
	doUpload(t, s, "qa", []uploadFile{{"invoice.txt", invoiceText}})

	rr := doJSON(t, s.handleChat, http.MethodPost, "/api/chat", ChatRequest{Question: "What is the total?"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", rr.Code, rr.Body.String())
	}
	var resp ChatResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Model != "m-fallback-1" {
		t.Fatalf("model = %q, want m-fallback-1", resp.Model)
	}

	s.mu.RLock()
	adopted := s.adopted["gemini"]
	s.mu.RUnlock()
	if adopted != "m-fallback-1" {
		t.Fatalf("adopted = %q, want m-fallback-1", adopted)
	}

	// The next request goes straight to the adopted model.
	before := len(fake.calls)
	doJSON(t, s.handleChat, http.MethodPost, "/api/chat", ChatRequest{Question: "And the due date?"})
	tail := fake.calls[before:]
	if len(tail) != 1 || tail[0] != "m-fallback-1" {
		t.Errorf("calls after adoption = %v, want exactly [m-fallback-1]", tail)
	}
}

func TestChat_UsesPinnedDefaultModel(t *testing.T) {
	fake := &fakeProvider{catalog: testCatalog(), reply: "Pinned answer."}
	s := newTestServer(t, fake)
	s.defaultModel = "m-fallback-2"
	doUpload(t, s, "qa", []uploadFile{{"invoice.txt", invoiceText}})

	rr := doJSON(t, s.handleChat, http.MethodPost, "/api/chat", ChatRequest{Question: "What is the total?"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", rr.Code, rr.Body.String())
	}
	var resp ChatResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Model != "m-fallback-2" {
		t.Errorf("model = %q, want the pinned m-fallback-2", resp.Model)
	}
	if len(fake.calls) != 1 || fake.calls[0] != "m-fallback-2" {
		t.Errorf("calls = %v, want exactly [m-fallback-2]", fake.calls)
	}
}

func TestChat_AuthErrorMapsTo401(t *testing.T) {
	fake := &fakeProvider{
		catalog: testCatalog(),
		errs: map[string]error{
			"m-default": fmt.Errorf("%w: the API key (test...7890) was rejected", llm.ErrAuth),
		},
	}
	s := newTestServer(t, fake)
	doUpload(t, s, "qa", []uploadFile{{"invoice.txt", invoiceText}})

	rr := doJSON(t, s.handleChat, http.MethodPost, "/api/chat", ChatRequest{Question: "What is the total?"})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}

func TestChat_NoKeyConfigured(t *testing.T) {
	s := newTestServer(t, &fakeProvider{catalog: testCatalog()})
	s.providerKeys["gemini"] = ""
	doUpload(t, s, "qa", []uploadFile{{"invoice.txt", invoiceText}})

	rr := doJSON(t, s.handleChat, http.MethodPost, "/api/chat", ChatRequest{Question: "What is the total?"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "no API key configured") {
		t.Errorf("body = %s, want a missing-key message", rr.Body.String())
	}
}

// ========== ocr ==========

func TestOCR_BatchKeepsOneResultPerDocument(t *testing.T) {
	fake := &fakeProvider{
		catalog: testCatalog(),
		reply:   "```json\n{\"invoice_number\": \"123\", \"total\": \"$450.00\"}\n```",
	}
	s := newTestServer(t, fake)
	doUpload(t, s, "qa", []uploadFile{
		{"invoice.txt", invoiceText},
		{"data.bin", "\x00\x01\x02 opaque bytes"},
	})

	rr := doJSON(t, s.handleOCR, http.MethodPost, "/api/ocr", OCRRequest{})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", rr.Code, rr.Body.String())
	}

	var combined answer.CombinedOCR
	if err := json.Unmarshal(rr.Body.Bytes(), &combined); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if combined.TotalDocuments != 2 || len(combined.Results) != 2 {
		t.Fatalf("total = %d, results = %d, want 2 and 2", combined.TotalDocuments, len(combined.Results))
	}

	first := combined.Results[0]
	if first.SourceName != "invoice.txt" {
		t.Errorf("first result source = %q, want invoice.txt", first.SourceName)
	}
	if first.ExtractedData["invoice_number"] != "123" {
		t.Errorf("extracted data = %v, want invoice_number 123", first.ExtractedData)
	}

	// The binary placeholder cannot be OCRed; it still occupies its slot
	// with an error-shaped result.
	second := combined.Results[1]
	if second.SourceName != "data.bin" {
		t.Errorf("second result source = %q, want data.bin", second.SourceName)
	}
	if _, ok := second.ExtractedData["error"]; !ok {
		t.Errorf("second result = %v, want an error entry", second.ExtractedData)
	}
}

func TestOCR_FilterByDocumentID(t *testing.T) {
	fake := &fakeProvider{catalog: testCatalog(), reply: `{"total": "$450.00"}`}
	s := newTestServer(t, fake)
	doUpload(t, s, "qa", []uploadFile{
		{"a.txt", invoiceText},
		{"b.txt", invoiceText + " Second copy for receipt b."},
	})

	docs := s.store.Documents()
	rr := doJSON(t, s.handleOCR, http.MethodPost, "/api/ocr", OCRRequest{DocumentIDs: []string{docs[1].ID}})
	var combined answer.CombinedOCR
	if err := json.Unmarshal(rr.Body.Bytes(), &combined); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(combined.Results) != 1 || combined.Results[0].SourceName != "b.txt" {
		t.Fatalf("results = %+v, want only b.txt", combined.Results)
	}
}

func TestOCR_EmptyStore(t *testing.T) {
	s := newTestServer(t, &fakeProvider{catalog: testCatalog()})
	rr := doJSON(t, s.handleOCR, http.MethodPost, "/api/ocr", OCRRequest{})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

// ========== search ==========

func TestSearchEndpoint(t *testing.T) {
	s := newTestServer(t, &fakeProvider{catalog: testCatalog()})
	doUpload(t, s, "qa", []uploadFile{{"invoice.txt", invoiceText}})

	rr := doJSON(t, s.handleSearch, http.MethodGet, "/api/search?q=total", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", rr.Code, rr.Body.String())
	}

	var resp struct {
		Results []struct {
			Name    string `json:"name"`
			Snippet string `json:"snippet"`
		} `json:"results"`
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Count != 1 || resp.Results[0].Name != "invoice.txt" {
		t.Fatalf("results = %+v, want invoice.txt", resp.Results)
	}
	if !strings.Contains(strings.ToLower(resp.Results[0].Snippet), "total") {
		t.Errorf("snippet = %q, want it to contain the query", resp.Results[0].Snippet)
	}
}

func TestSearch_RequiresQuery(t *testing.T) {
	s := newTestServer(t, &fakeProvider{catalog: testCatalog()})
	rr := doJSON(t, s.handleSearch, http.MethodGet, "/api/search", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

// ========== exports ==========

func TestExportJSON_RequiresResults(t *testing.T) {
	s := newTestServer(t, &fakeProvider{catalog: testCatalog()})
	rr := doJSON(t, s.handleExportJSON, http.MethodGet, "/api/export/json", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}

func TestExportJSON_AfterOCR(t *testing.T) {
	fake := &fakeProvider{catalog: testCatalog(), reply: `{"total": "$450.00"}`}
	s := newTestServer(t, fake)
	doUpload(t, s, "qa", []uploadFile{{"invoice.txt", invoiceText}})
	doJSON(t, s.handleOCR, http.MethodPost, "/api/ocr", OCRRequest{})

	rr := doJSON(t, s.handleExportJSON, http.MethodGet, "/api/export/json", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", rr.Code, rr.Body.String())
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") || !strings.Contains(cd, "extraction-results-") {
		t.Errorf("Content-Disposition = %q, want an attachment with the dated name", cd)
	}
	var combined answer.CombinedOCR
	if err := json.Unmarshal(rr.Body.Bytes(), &combined); err != nil {
		t.Fatalf("exported JSON does not parse: %v", err)
	}
	if combined.TotalDocuments != 1 {
		t.Errorf("exported total = %d, want 1", combined.TotalDocuments)
	}
}

func TestExportPDF_AfterChat(t *testing.T) {
	fake := &fakeProvider{catalog: testCatalog(), reply: "The total is $450.00 per invoice.txt."}
	s := newTestServer(t, fake)
	doUpload(t, s, "qa", []uploadFile{{"invoice.txt", invoiceText}})

	rr := doJSON(t, s.handleExportPDF, http.MethodGet, "/api/export/pdf", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status before chat = %d, want 404", rr.Code)
	}

	doJSON(t, s.handleChat, http.MethodPost, "/api/chat", ChatRequest{Question: "What is the total?"})

	rr = doJSON(t, s.handleExportPDF, http.MethodGet, "/api/export/pdf", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", rr.Code, rr.Body.String())
	}
	if !bytes.HasPrefix(rr.Body.Bytes(), []byte("%PDF")) {
		t.Errorf("body does not start with the PDF magic")
	}
}

// ========== settings ==========

func TestSettings_MasksKeys(t *testing.T) {
	s := newTestServer(t, &fakeProvider{catalog: testCatalog()})

	rr := doJSON(t, s.handleSettings, http.MethodGet, "/api/settings", nil)
	var resp map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got := resp["gemini_key"]; got != "test...7890" {
		t.Errorf("gemini_key = %v, want test...7890", got)
	}
	if got := resp["default_llm"]; got != "gemini" {
		t.Errorf("default_llm = %v, want gemini", got)
	}
}

func TestSettings_UpdateIgnoresMaskedEcho(t *testing.T) {
	t.Chdir(t.TempDir())
	s := newTestServer(t, &fakeProvider{catalog: testCatalog()})

	// A real value replaces the key.
	rr := doJSON(t, s.handleSettings, http.MethodPost, "/api/settings", settingsUpdate{
		GeminiKey:     "new-key-abcdef123456",
		MinContentLen: 80,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", rr.Code, rr.Body.String())
	}
	s.mu.RLock()
	key, minLen := s.providerKeys["gemini"], s.minContentLen
	s.mu.RUnlock()
	if key != "new-key-abcdef123456" {
		t.Errorf("key = %q, want the new value", key)
	}
	if minLen != 80 {
		t.Errorf("minContentLen = %d, want 80", minLen)
	}

	// The masked form echoed back from GET must not clobber it.
	doJSON(t, s.handleSettings, http.MethodPost, "/api/settings", settingsUpdate{GeminiKey: "new-...3456"})
	s.mu.RLock()
	key = s.providerKeys["gemini"]
	s.mu.RUnlock()
	if key != "new-key-abcdef123456" {
		t.Errorf("key after masked echo = %q, want it unchanged", key)
	}
}

func TestSettings_RejectsUnknownProvider(t *testing.T) {
	s := newTestServer(t, &fakeProvider{catalog: testCatalog()})
	rr := doJSON(t, s.handleSettings, http.MethodPost, "/api/settings", settingsUpdate{DefaultLLM: "grok"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestSettings_RoundTripsThroughDisk(t *testing.T) {
	t.Chdir(t.TempDir())
	s := newTestServer(t, &fakeProvider{catalog: testCatalog()})

	doJSON(t, s.handleSettings, http.MethodPost, "/api/settings", settingsUpdate{
		GeminiKey:  "persisted-key-987654",
		DefaultLLM: "anthropic",
	})

	saved := loadSavedSettings()
	if saved == nil {
		t.Fatal("loadSavedSettings returned nil after a save")
	}
	if saved.GeminiKey != "persisted-key-987654" {
		t.Errorf("reloaded key = %q, want the saved value", saved.GeminiKey)
	}
	if saved.DefaultLLM != "anthropic" {
		t.Errorf("reloaded default = %q, want anthropic", saved.DefaultLLM)
	}
}

// ========== models ==========

func TestModels_ListsCatalogsAndAdoptions(t *testing.T) {
	s := newTestServer(t, &fakeProvider{catalog: testCatalog()})
	s.adoptModel("gemini", "gemini-2.5-pro")

	rr := doJSON(t, s.handleModels, http.MethodGet, "/api/models", nil)
	var resp struct {
		Providers map[string]llm.ModelCatalog `json:"providers"`
		Default   string                      `json:"default"`
		Adopted   map[string]string           `json:"adopted"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Providers) != 3 {
		t.Errorf("providers = %d, want 3", len(resp.Providers))
	}
	if resp.Default != "gemini" {
		t.Errorf("default = %q, want gemini", resp.Default)
	}
	if resp.Adopted["gemini"] != "gemini-2.5-pro" {
		t.Errorf("adopted = %v, want the recorded model", resp.Adopted)
	}
}
