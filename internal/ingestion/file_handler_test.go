package ingestion

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestReadFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "JaneDoe_CV.txt")
	if err := os.WriteFile(path, []byte("Jane Doe CV content"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	doc, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() failed: %v", err)
	}
	if doc.Name != "JaneDoe_CV.txt" {
		t.Errorf("Expected name 'JaneDoe_CV.txt', got '%s'", doc.Name)
	}
	if doc.Text != "Jane Doe CV content" {
		t.Errorf("Expected text 'Jane Doe CV content', got '%s'", doc.Text)
	}

	if _, err := ReadFile(filepath.Join(tmpDir, "missing.txt")); err == nil {
		t.Error("ReadFile() should fail for a missing file")
	}
}

func TestReadMultipart(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, content := range map[string]string{
		"alice.txt": "Alice resume",
		"bob.md":    "Bob resume",
	} {
		part, err := mw.CreateFormFile("resumes", name)
		if err != nil {
			t.Fatalf("Failed to create form file: %v", err)
		}
		part.Write([]byte(content))
	}
	mw.Close()

	req := httptest.NewRequest("POST", "/screening", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if err := req.ParseMultipartForm(1 << 20); err != nil {
		t.Fatalf("Failed to parse form: %v", err)
	}

	files := req.MultipartForm.File["resumes"]
	docs, err := ReadMultipart(files)
	if err != nil {
		t.Fatalf("ReadMultipart() failed: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("Expected 2 documents, got %d", len(docs))
	}

	texts := map[string]string{}
	for _, doc := range docs {
		texts[doc.Name] = doc.Text
	}
	if texts["alice.txt"] != "Alice resume" || texts["bob.md"] != "Bob resume" {
		t.Errorf("Unexpected documents: %v", texts)
	}

	names := FileNames(files)
	if len(names) != 2 {
		t.Errorf("Expected 2 file names, got %v", names)
	}
}
