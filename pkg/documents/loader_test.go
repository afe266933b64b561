package documents

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFixture(t *testing.T, dir, name, content string) {
	t.Helper()
	err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0600)
	if err != nil {
		t.Fatalf("Failed to write fixture %s: %s", name, err)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "plan.txt", "pest control plan body")

	doc, err := LoadFile(filepath.Join(dir, "plan.txt"))
	if err != nil {
		t.Fatalf("Expected no error, got: %s", err)
	}
	if doc.FileName != "plan.txt" {
		t.Errorf("Expected base file name, got '%s'", doc.FileName)
	}
	if doc.Text != "pest control plan body" {
		t.Errorf("Unexpected text: '%s'", doc.Text)
	}
}

func TestLoadFileEmpty(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "empty.txt", "   \n\t")

	_, err := LoadFile(filepath.Join(dir, "empty.txt"))
	if err == nil {
		t.Error("Expected an error for a whitespace-only document")
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile("/nonexistent/plan.txt")
	if err == nil {
		t.Error("Expected an error for a missing file")
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "b-cleaning.md", "cleaning schedule")
	writeFixture(t, dir, "a-pests.txt", "pest control plan")
	writeFixture(t, dir, "scan.pdf", "binary junk")
	writeFixture(t, dir, "notes.docx", "binary junk")

	err := os.Mkdir(filepath.Join(dir, "subdir"), 0750)
	if err != nil {
		t.Fatalf("Failed to create subdir: %s", err)
	}

	docs, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("Expected no error, got: %s", err)
	}

	// Only .txt and .md, sorted by name; subdirectories ignored.
	if len(docs) != 2 {
		t.Fatalf("Expected 2 documents, got %d", len(docs))
	}
	if docs[0].FileName != "a-pests.txt" || docs[1].FileName != "b-cleaning.md" {
		t.Errorf("Expected sorted text documents, got %s then %s", docs[0].FileName, docs[1].FileName)
	}
}

func TestLoadDirNoTextDocuments(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "scan.pdf", "binary junk")

	_, err := LoadDir(dir)
	if err == nil {
		t.Error("Expected an error when no text documents are present")
	}
}

func TestLoadDirMissing(t *testing.T) {
	_, err := LoadDir("/nonexistent/documents")
	if err == nil {
		t.Error("Expected an error for a missing directory")
	}
}
