package ingest

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/akolanti/rulebook-rag/internal/domain/commonModels"
	"github.com/akolanti/rulebook-rag/internal/domain/ragErrors"
	"github.com/akolanti/rulebook-rag/internal/rag/textnorm"
)

// LoadBook reads a parsed-book file. JSON files are decoded as the parser's
// {metadata, chunks} output; .txt files are chunked with BookFromText.
func LoadBook(path string, chunkSize int, overlap int) (commonModels.ParsedBook, error) {
	f, err := os.Open(path)
	if err != nil {
		return commonModels.ParsedBook{}, ragErrors.New(ragErrors.InputShape, "ingest.LoadBook", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".txt") {
		raw, err := io.ReadAll(f)
		if err != nil {
			return commonModels.ParsedBook{}, ragErrors.New(ragErrors.InputShape, "ingest.LoadBook", err)
		}
		return BookFromText(filepath.Base(path), string(raw), chunkSize, overlap), nil
	}
	return DecodeBook(f)
}

// BookFilename returns the metadata.filename a later LoadBook of path would
// see, without decoding the chunks.
func BookFilename(path string) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ".txt") {
		return filepath.Base(path), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return "", ragErrors.New(ragErrors.InputShape, "ingest.BookFilename", err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return "", ragErrors.Newf(ragErrors.InputShape, "ingest.BookFilename", "%s is not a parsed-book object", path)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return "", ragErrors.New(ragErrors.InputShape, "ingest.BookFilename", err)
		}
		if key, _ := tok.(string); key == "metadata" {
			var meta commonModels.BookMeta
			if err := dec.Decode(&meta); err != nil {
				return "", ragErrors.New(ragErrors.InputShape, "ingest.BookFilename", err)
			}
			return meta.Filename, nil
		}
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return "", ragErrors.New(ragErrors.InputShape, "ingest.BookFilename", err)
		}
	}
	return "", ragErrors.Newf(ragErrors.InputShape, "ingest.BookFilename", "%s has no metadata", path)
}

func DecodeBook(r io.Reader) (commonModels.ParsedBook, error) {
	var book commonModels.ParsedBook
	if err := json.NewDecoder(r).Decode(&book); err != nil {
		return commonModels.ParsedBook{}, ragErrors.New(ragErrors.InputShape, "ingest.DecodeBook", fmt.Errorf("invalid parsed-book JSON: %w", err))
	}
	if err := validateBook(book); err != nil {
		return commonModels.ParsedBook{}, err
	}
	return book, nil
}

// BookFromText splits a plain-text document into a parsed book using the
// sentence-aware chunker.
func BookFromText(filename string, text string, chunkSize int, overlap int) commonModels.ParsedBook {
	pieces := textnorm.Chunk(textnorm.Collapse(text), chunkSize, overlap)
	chunks := make([]commonModels.Chunk, 0, len(pieces))
	for i, p := range pieces {
		piece := p
		chunks = append(chunks, commonModels.Chunk{
			Text:      &piece,
			ChunkID:   commonModels.ChunkID(strconv.Itoa(i)),
			WordCount: len(strings.Fields(piece)),
		})
	}
	return commonModels.ParsedBook{
		Metadata: commonModels.BookMeta{Filename: filename},
		Chunks:   chunks,
	}
}

func validateBook(book commonModels.ParsedBook) error {
	if strings.TrimSpace(book.Metadata.Filename) == "" {
		return ragErrors.Newf(ragErrors.InputShape, "ingest.validate", "metadata.filename is required")
	}
	for i, c := range book.Chunks {
		if c.Text == nil {
			return ragErrors.Newf(ragErrors.InputShape, "ingest.validate", "chunk %d has no text", i)
		}
	}
	return nil
}
