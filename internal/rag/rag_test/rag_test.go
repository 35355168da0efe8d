package rag_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/akolanti/rulebook-rag/internal/config"
	"github.com/akolanti/rulebook-rag/internal/domain/commonModels"
	"github.com/akolanti/rulebook-rag/internal/domain/ragErrors"
	"github.com/akolanti/rulebook-rag/internal/rag"
	"github.com/akolanti/rulebook-rag/internal/rag/embedding"
	"github.com/akolanti/rulebook-rag/internal/rag/ingest"
	"github.com/akolanti/rulebook-rag/internal/rag/vectorDB"
	"github.com/akolanti/rulebook-rag/internal/rag/vectorDB/memoryDB"
)

func book(filename string, passages ...string) commonModels.ParsedBook {
	chunks := make([]commonModels.Chunk, len(passages))
	for i := range passages {
		chunks[i] = commonModels.Chunk{Text: &passages[i], PageNumber: i + 1, ChunkID: commonModels.ChunkID(fmt.Sprint(i))}
	}
	return commonModels.ParsedBook{
		Metadata: commonModels.BookMeta{Filename: filename, System: "WoD", Category: "core"},
		Chunks:   chunks,
	}
}

func newRealService() rag.Service {
	provider := embedding.NewProvider(embedding.ProviderConfig{Remote: BagOfWords{}})
	store := vectorDB.NewAdapter(memoryDB.NewMemoryBackend(), provider, 500)
	return rag.NewService(store, provider, ingest.NewIngestor(store, ingest.Options{}), "rule_books")
}

func TestService_QueryAfterIngestingCoreBooks(t *testing.T) {
	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")
	svc := newRealService()

	books := []commonModels.ParsedBook{
		book("Vampire_The_Masquerade_Core.pdf",
			"The Camarilla is the largest sect of vampires, uniting seven clans under the Ivory Tower.",
			"Clans of the Camarilla include Ventrue, Toreador, Tremere, Nosferatu, Malkavian and Brujah.",
			"Hunger dice replace normal dice when a vampire feeds."),
		book("Werewolf_The_Apocalypse_Core.pdf",
			"The Garou are divided into tribes that defend Gaia from the Wyrm.",
			"Rage lets a werewolf shift into Crinos form."),
		book("Mage_The_Ascension_Core.pdf",
			"The Traditions oppose the Technocracy in the Ascension War.",
			"Paradox strikes mages who work vulgar magick in front of sleepers."),
	}
	for _, b := range books {
		if _, err := svc.IngestBook(ctx, b, 0); err != nil {
			t.Fatalf("ingesting %s failed: %v", b.Metadata.Filename, err)
		}
	}

	results, err := svc.Query(ctx, "What are the vampire clans in the Camarilla?", 5)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("no results")
	}
	found := false
	for _, r := range results {
		if strings.Contains(r.Metadata.Filename, "Vampire") {
			found = true
		}
	}
	if !found {
		t.Errorf("no result from a Vampire book in %+v", results)
	}

	peek, err := svc.Peek(ctx, 3)
	if err != nil || len(peek) != 3 {
		t.Errorf("peek = %d records, err %v", len(peek), err)
	}
}

func TestService_Rank(t *testing.T) {
	svc := newRealService()
	texts := []string{
		"Werewolf tribes and their totems",
		"The vampire clans of the Camarilla",
		"Mage traditions and spheres",
	}

	ranked, err := svc.Rank(context.Background(), "vampire clans", texts)
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	if len(ranked) != 3 {
		t.Fatalf("len = %d", len(ranked))
	}
	if ranked[0].Index != 1 || ranked[0].Text != texts[1] {
		t.Errorf("best match = %+v", ranked[0])
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i].Score > ranked[i-1].Score {
			t.Errorf("not sorted: %+v", ranked)
		}
	}

	if empty, err := svc.Rank(context.Background(), "q", nil); err != nil || len(empty) != 0 {
		t.Errorf("empty rank = %v, %v", empty, err)
	}
}

func TestService_RankDimensionMismatch(t *testing.T) {
	em := &MockEmbedder{OnGetEmbedding: func(ctx context.Context, text string) ([]float32, bool) {
		if text == "q" {
			return []float32{1, 0, 0}, true
		}
		return []float32{1, 0}, false
	}}
	svc := rag.NewService(&MockStore{}, em, nil, "")
	_, err := svc.Rank(context.Background(), "q", []string{"a"})
	if !ragErrors.Is(err, ragErrors.DimensionMismatch) {
		t.Errorf("err = %v", err)
	}
}

func TestService_QueryScenarios(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		k       int
		setup   func(s *MockStore)
		wantK   int
		wantErr ragErrors.Kind
	}{
		{name: "default k", text: "Blood Bond", k: 0, wantK: config.DefaultQueryResults},
		{name: "k capped", text: "Blood Bond", k: 1000, wantK: config.MaxQueryResults},
		{name: "empty query", text: "   ", wantErr: ragErrors.InputShape},
		{
			name: "store unreachable",
			text: "Blood Bond",
			setup: func(s *MockStore) {
				s.OnGetOrCreate = func(ctx context.Context, name, desc string) (*vectorDB.Collection, error) {
					return nil, ragErrors.New(ragErrors.StoreUnreachable, "test", errors.New("refused"))
				}
			},
			wantErr: ragErrors.StoreUnreachable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotK := -1
			store := &MockStore{OnQuery: func(ctx context.Context, c *vectorDB.Collection, text string, k int) ([]commonModels.QueryResult, error) {
				gotK = k
				return nil, nil
			}}
			if tt.setup != nil {
				tt.setup(store)
			}
			svc := rag.NewService(store, &MockEmbedder{}, nil, "rule_books")

			_, err := svc.Query(context.Background(), tt.text, tt.k)
			if tt.wantErr != ragErrors.Unknown {
				if !ragErrors.Is(err, tt.wantErr) {
					t.Errorf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if gotK != tt.wantK {
				t.Errorf("k = %d, want %d", gotK, tt.wantK)
			}
		})
	}
}

func TestService_CollectionOpenedOnce(t *testing.T) {
	store := &MockStore{}
	svc := rag.NewService(store, &MockEmbedder{}, nil, "rule_books")
	for i := 0; i < 3; i++ {
		if _, err := svc.Query(context.Background(), "Elysium", 1); err != nil {
			t.Fatal(err)
		}
	}
	if store.OpenCalls != 1 {
		t.Errorf("GetOrCreate called %d times", store.OpenCalls)
	}
}

func TestService_Status(t *testing.T) {
	em := &MockEmbedder{StatusValue: commonModels.Status{Model: "nomic-embed-text-v1.5", RemoteConnected: true}}
	status := rag.NewService(&MockStore{}, em, nil, "").Status(context.Background())
	if !status.RemoteConnected || status.Model != "nomic-embed-text-v1.5" {
		t.Errorf("status = %+v", status)
	}
}
