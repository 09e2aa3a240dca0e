package document

import (
	"sync"
	"testing"
)

// ========== Documents ==========

func TestAddDocument(t *testing.T) {
	store := NewStore()
	doc := store.AddDocument(Document{Name: "invoice.txt", MIMEType: "text/plain", Content: "hello"})

	if doc.ID == "" {
		t.Error("expected non-empty document ID")
	}
	if doc.UploadedAt.IsZero() {
		t.Error("expected non-zero UploadedAt")
	}
	if got := store.DocumentCount(); got != 1 {
		t.Errorf("DocumentCount = %d, want 1", got)
	}
}

func TestDocuments_PreservesOrder(t *testing.T) {
	store := NewStore()
	store.AddDocument(Document{Name: "a.txt"})
	store.AddDocument(Document{Name: "b.txt"})
	store.AddDocument(Document{Name: "c.txt"})

	docs := store.Documents()
	if len(docs) != 3 {
		t.Fatalf("expected 3 documents, got %d", len(docs))
	}
	for i, want := range []string{"a.txt", "b.txt", "c.txt"} {
		if docs[i].Name != want {
			t.Errorf("docs[%d].Name = %q, want %q", i, docs[i].Name, want)
		}
	}
}

func TestGetDocument(t *testing.T) {
	store := NewStore()
	added := store.AddDocument(Document{Name: "report.pdf"})

	got, err := store.Document(added.ID)
	if err != nil {
		t.Fatalf("Document failed: %v", err)
	}
	if got.Name != "report.pdf" {
		t.Errorf("name = %q, want 'report.pdf'", got.Name)
	}

	if _, err := store.Document("no-such-id"); err == nil {
		t.Error("expected error for unknown ID, got nil")
	}
}

func TestRemoveDocument(t *testing.T) {
	store := NewStore()
	a := store.AddDocument(Document{Name: "a.txt"})
	store.AddDocument(Document{Name: "b.txt"})

	if err := store.RemoveDocument(a.ID); err != nil {
		t.Fatalf("RemoveDocument failed: %v", err)
	}
	if got := store.DocumentCount(); got != 1 {
		t.Errorf("DocumentCount = %d, want 1", got)
	}
	if err := store.RemoveDocument(a.ID); err == nil {
		t.Error("expected error removing already-removed document")
	}
}

func TestNames(t *testing.T) {
	store := NewStore()
	store.AddDocument(Document{Name: "resume.pdf"})
	store.AddDocument(Document{Name: "photo.png"})

	names := store.Names()
	if len(names) != 2 || names[0] != "resume.pdf" || names[1] != "photo.png" {
		t.Errorf("Names = %v, want [resume.pdf photo.png]", names)
	}
}

func TestHasName_CaseInsensitive(t *testing.T) {
	store := NewStore()
	store.AddDocument(Document{Name: "Invoice.PDF"})

	if !store.HasName("invoice.pdf") {
		t.Error("HasName should match case-insensitively")
	}
	if store.HasName("other.pdf") {
		t.Error("HasName matched a name that was never added")
	}
}

// ========== Messages ==========

func TestAppendMessage(t *testing.T) {
	store := NewStore()
	msg := store.AppendMessage(Message{Role: "user", Content: "What is the total?"})

	if msg.ID == "" {
		t.Error("expected non-empty message ID")
	}
	if msg.CreatedAt.IsZero() {
		t.Error("expected non-zero CreatedAt")
	}

	msgs := store.Messages()
	if len(msgs) != 1 || msgs[0].Content != "What is the total?" {
		t.Errorf("unexpected messages: %+v", msgs)
	}
}

func TestClearMessages_KeepsDocuments(t *testing.T) {
	store := NewStore()
	store.AddDocument(Document{Name: "a.txt"})
	store.AppendMessage(Message{Role: "user", Content: "hi"})

	store.ClearMessages()
	if len(store.Messages()) != 0 {
		t.Error("expected empty chat history after ClearMessages")
	}
	if store.DocumentCount() != 1 {
		t.Error("ClearMessages should not touch documents")
	}
}

func TestClear(t *testing.T) {
	store := NewStore()
	store.AddDocument(Document{Name: "a.txt"})
	store.AppendMessage(Message{Role: "user", Content: "hi"})

	store.Clear()
	if store.DocumentCount() != 0 || len(store.Messages()) != 0 {
		t.Error("Clear should drop both documents and messages")
	}
}

// ========== Concurrency ==========

func TestConcurrentAccess(t *testing.T) {
	store := NewStore()
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			store.AddDocument(Document{Name: "doc.txt"})
		}()
		go func() {
			defer wg.Done()
			_ = store.Documents()
			_ = store.Names()
		}()
	}
	wg.Wait()

	if got := store.DocumentCount(); got != 20 {
		t.Errorf("DocumentCount = %d, want 20", got)
	}
}
