package commonModels

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// BookMeta identifies the source document. System and Category are pass-through tags.
type BookMeta struct {
	Filename string `json:"filename"`
	System   string `json:"system"`
	Category string `json:"category"`
}

// ChunkID is the parser's within-book identifier; the JSON may carry a number or a string.
type ChunkID string

func (c *ChunkID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = ChunkID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("chunk_id must be a number or string: %w", err)
	}
	*c = ChunkID(n.String())
	return nil
}

func (c ChunkID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(c), 10, 64); err == nil {
		return []byte(c), nil
	}
	return json.Marshal(string(c))
}

type Chunk struct {
	Text       *string `json:"text"`
	PageNumber int     `json:"page_number"`
	ChunkID    ChunkID `json:"chunk_id"`
	WordCount  int     `json:"word_count"`
}

// ParsedBook is the upstream parser's output for one rulebook.
type ParsedBook struct {
	Metadata BookMeta `json:"metadata"`
	Chunks   []Chunk  `json:"chunks"`
}

// RecordMetadata is stored alongside every vector.
type RecordMetadata struct {
	BookID     string  `json:"book_id"`
	CampaignID int64   `json:"campaign_id"`
	Filename   string  `json:"filename"`
	System     string  `json:"system"`
	Category   string  `json:"category"`
	PageNumber int     `json:"page_number"`
	ChunkID    ChunkID `json:"chunk_id"`
	WordCount  int     `json:"word_count"`
}

type Record struct {
	Id       string         `json:"id"`
	Document string         `json:"document"`
	Metadata RecordMetadata `json:"metadata"`
}

// QueryResult carries the backing store's raw metric in Distance.
// Callers may rely on its ordering only.
type QueryResult struct {
	Record
	Distance float32 `json:"distance"`
}

type TestEmbedding struct {
	Dimension int       `json:"dimension"`
	Sample    []float64 `json:"sample"`
}

type Status struct {
	RemoteConnected bool           `json:"remote_connected"`
	Model           string         `json:"model"`
	TestEmbedding   *TestEmbedding `json:"test_embedding"`
	Error           string         `json:"error,omitempty"`
}

// IngestReport summarizes one (book, campaign) ingestion run.
type IngestReport struct {
	Filename         string `json:"filename"`
	CampaignID       int64  `json:"campaign_id"`
	Total            int    `json:"total"`
	Imported         int    `json:"imported"`
	Dropped          int    `json:"dropped"`
	DuplicateBatches int    `json:"duplicate_batches"`
	FailedBatches    int    `json:"failed_batches"`
	CollectionSize   uint64 `json:"collection_size"`
}

type RankedText struct {
	Index int     `json:"index"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}
