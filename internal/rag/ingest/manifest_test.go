package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/akolanti/rulebook-rag/internal/domain/ragErrors"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "books.yaml", `
collection: wod_books
campaign_id: 2
books:
  - path: vampire.json
  - path: /srv/books/werewolf.json
    campaign_id: 0
`)

	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest failed: %v", err)
	}
	if m.Collection != "wod_books" {
		t.Errorf("collection = %q", m.Collection)
	}

	jobs := m.Jobs()
	if len(jobs) != 2 {
		t.Fatalf("jobs = %+v", jobs)
	}
	if jobs[0].Path != filepath.Join(dir, "vampire.json") || jobs[0].CampaignID != 2 {
		t.Errorf("job 0 = %+v", jobs[0])
	}
	if jobs[1].Path != "/srv/books/werewolf.json" || jobs[1].CampaignID != 0 {
		t.Errorf("job 1 = %+v", jobs[1])
	}
}

func TestLoadManifest_Invalid(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(dir, "nope.yaml")},
		{"bad yaml", writeFile(t, dir, "bad.yaml", "books: [path: {")},
		{"entry without path", writeFile(t, dir, "empty.yaml", "books:\n  - campaign_id: 1\n")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadManifest(tt.path); !ragErrors.Is(err, ragErrors.InputShape) {
				t.Errorf("err = %v, want input_shape", err)
			}
		})
	}
}

func TestLoadBook_TextFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "chronicle.txt", "The Sheriff enforces the Traditions.\n\nThe Keeper guards Elysium.")

	book, err := LoadBook(path, 1000, 200)
	if err != nil {
		t.Fatal(err)
	}
	if book.Metadata.Filename != "chronicle.txt" || len(book.Chunks) != 1 {
		t.Errorf("book = %+v", book)
	}
}

func TestBookFilename(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		path    string
		want    string
		wantErr bool
	}{
		{"metadata first", writeFile(t, dir, "a.json", `{"metadata":{"filename":"Vampire_Core.pdf"},"chunks":[{"text":"x"}]}`), "Vampire_Core.pdf", false},
		{"metadata after chunks", writeFile(t, dir, "b.json", `{"chunks":[{"text":"x","chunk_id":1}],"metadata":{"filename":"Werewolf.pdf"}}`), "Werewolf.pdf", false},
		{"plain text", writeFile(t, dir, "chronicle.txt", "The Prince."), "chronicle.txt", false},
		{"no metadata", writeFile(t, dir, "c.json", `{"chunks":[]}`), "", true},
		{"not json", writeFile(t, dir, "d.json", `%PDF-1.7`), "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BookFilename(tt.path)
			if tt.wantErr {
				if !ragErrors.Is(err, ragErrors.InputShape) {
					t.Errorf("err = %v, want input_shape", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("BookFilename = %q, %v; want %q", got, err, tt.want)
			}
		})
	}
}
