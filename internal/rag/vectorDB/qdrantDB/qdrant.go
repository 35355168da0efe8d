package qdrantDB

import (
	"context"
	"errors"
	"time"

	"github.com/akolanti/rulebook-rag/internal/config"
	"github.com/akolanti/rulebook-rag/internal/domain/commonModels"
	"github.com/akolanti/rulebook-rag/internal/domain/ragErrors"
	"github.com/akolanti/rulebook-rag/internal/metrics"
	"github.com/akolanti/rulebook-rag/internal/rag/vectorDB"
	"github.com/akolanti/rulebook-rag/pkg/logger_i"
	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Point ids must be UUIDs in Qdrant; record ids are mapped onto them with a
// name-based UUID and kept verbatim in the "record_id" payload field.
var pointNamespace = uuid.MustParse("4b0e2f0c-5d3a-4c8e-9a7f-1e6b2d9c8a51")

const (
	payloadRecordID   = "record_id"
	payloadDocument   = "document"
	payloadBookID     = "book_id"
	payloadCampaignID = "campaign_id"
	payloadFilename   = "filename"
	payloadSystem     = "system"
	payloadCategory   = "category"
	payloadPage       = "page_number"
	payloadChunkID    = "chunk_id"
	payloadWordCount  = "word_count"
)

// qdrantAPI is the slice of *qdrant.Client the backend uses.
type qdrantAPI interface {
	HealthCheck(ctx context.Context) (*qdrant.HealthCheckReply, error)
	CollectionExists(ctx context.Context, collectionName string) (bool, error)
	CreateCollection(ctx context.Context, request *qdrant.CreateCollection) error
	GetCollectionInfo(ctx context.Context, collectionName string) (*qdrant.CollectionInfo, error)
	Count(ctx context.Context, request *qdrant.CountPoints) (uint64, error)
	Get(ctx context.Context, request *qdrant.GetPoints) ([]*qdrant.RetrievedPoint, error)
	Upsert(ctx context.Context, request *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	Query(ctx context.Context, request *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
	Scroll(ctx context.Context, request *qdrant.ScrollPoints) ([]*qdrant.RetrievedPoint, error)
	Close() error
}

type Backend struct {
	client  qdrantAPI
	timeout time.Duration
	logger  *logger_i.Logger
}

func NewQdrantBackend(cfg *config.Config) (*Backend, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:     cfg.VectorStoreHost,
		Port:     cfg.VectorStorePort,
		APIKey:   cfg.VectorStoreAPIKey,
		UseTLS:   cfg.VectorStoreTLS,
		PoolSize: uint(config.QdrantPoolSize),
	})
	if err != nil {
		return nil, ragErrors.New(ragErrors.StoreUnreachable, "qdrant.NewClient", err)
	}
	return newBackend(client, cfg.VectorStoreTimeout), nil
}

func newBackend(client qdrantAPI, timeout time.Duration) *Backend {
	if timeout <= 0 {
		timeout = config.DefaultVectorStoreTimeout
	}
	return &Backend{
		client:  client,
		timeout: timeout,
		logger:  logger_i.NewLogger("Qdrant"),
	}
}

// Close releases the gRPC connection pool.
func (b *Backend) Close() error {
	b.logger.Info("Shutting down Qdrant")
	return b.client.Close()
}

func (b *Backend) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	if _, err := b.client.HealthCheck(ctx); err != nil {
		return ragErrors.New(ragErrors.StoreUnreachable, "qdrant.Ping", err)
	}
	return nil
}

func (b *Backend) CollectionInfo(ctx context.Context, name string) (vectorDB.CollectionInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	exists, err := b.client.CollectionExists(ctx, name)
	if err != nil {
		return vectorDB.CollectionInfo{}, classify("qdrant.CollectionExists", err)
	}
	if !exists {
		return vectorDB.CollectionInfo{Name: name}, nil
	}

	info, err := b.client.GetCollectionInfo(ctx, name)
	if err != nil {
		return vectorDB.CollectionInfo{}, classify("qdrant.GetCollectionInfo", err)
	}
	size := info.GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize()
	return vectorDB.CollectionInfo{Name: name, Dimension: int(size), Exists: true}, nil
}

func (b *Backend) EnsureCollection(ctx context.Context, name string, description string, dimension int) (vectorDB.CollectionInfo, error) {
	if name == "" {
		return vectorDB.CollectionInfo{}, ragErrors.Newf(ragErrors.InputShape, "qdrant.EnsureCollection", "empty collection name")
	}
	if dimension <= 0 {
		return vectorDB.CollectionInfo{}, ragErrors.Newf(ragErrors.InputShape, "qdrant.EnsureCollection", "dimension must be positive, got %d", dimension)
	}

	info, err := b.CollectionInfo(ctx, name)
	if err != nil || info.Exists {
		return info, err
	}

	cctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	err = b.client.CreateCollection(cctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		// lost a creation race with another ingestor
		if status.Code(err) == codes.AlreadyExists {
			return b.CollectionInfo(ctx, name)
		}
		return vectorDB.CollectionInfo{}, classify("qdrant.CreateCollection", err)
	}
	b.logger.Info("Created collection", "collection", name, "dimension", dimension, "description", description)
	return vectorDB.CollectionInfo{Name: name, Description: description, Dimension: dimension, Exists: true}, nil
}

func (b *Backend) Count(ctx context.Context, name string) (uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	n, err := b.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: name,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, classify("qdrant.Count", err)
	}
	return n, nil
}

func (b *Backend) ExistingIDs(ctx context.Context, name string, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	pointIDs := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = qdrant.NewID(PointID(id))
	}
	points, err := b.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: name,
		Ids:            pointIDs,
		WithPayload:    qdrant.NewWithPayloadInclude(payloadRecordID),
		WithVectors:    qdrant.NewWithVectors(false),
	})
	if err != nil {
		return nil, classify("qdrant.Get", err)
	}

	existing := make([]string, 0, len(points))
	for _, p := range points {
		existing = append(existing, p.GetPayload()[payloadRecordID].GetStringValue())
	}
	return existing, nil
}

func (b *Backend) Upsert(ctx context.Context, name string, records []commonModels.Record, vectors [][]float32) error {
	if len(records) != len(vectors) {
		return ragErrors.Newf(ragErrors.InputShape, "qdrant.Upsert", "mismatch: got %d records but %d vectors", len(records), len(vectors))
	}

	points := make([]*qdrant.PointStruct, len(records))
	for i, r := range records {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(PointID(r.Id)),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(toPayload(r)),
		}
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	start := time.Now()
	_, err := b.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: name,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	metrics.CaptureExecutionMetrics("qdrant_upsert", time.Since(start))
	if err != nil {
		return classify("qdrant.Upsert", err)
	}
	return nil
}

// Search returns 1 - cosine score as the distance so smaller is closer.
func (b *Backend) Search(ctx context.Context, name string, vector []float32, k int) ([]commonModels.QueryResult, error) {
	loggr := b.logger.WithTrace(ctx)
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	hits, err := b.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: name,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		loggr.Error("Error querying Qdrant", "error", err)
		return nil, classify("qdrant.Query", err)
	}

	results := make([]commonModels.QueryResult, 0, len(hits))
	for _, hit := range hits {
		results = append(results, commonModels.QueryResult{
			Record:   fromPayload(hit.GetPayload()),
			Distance: 1 - hit.GetScore(),
		})
	}
	loggr.Debug("Found matches", "count", len(results))
	return results, nil
}

func (b *Backend) Scroll(ctx context.Context, name string, limit int) ([]commonModels.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	points, err := b.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: name,
		Limit:          qdrant.PtrOf(uint32(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, classify("qdrant.Scroll", err)
	}
	records := make([]commonModels.Record, 0, len(points))
	for _, p := range points {
		records = append(records, fromPayload(p.GetPayload()))
	}
	return records, nil
}

// PointID maps a record id onto the UUID Qdrant stores it under.
func PointID(recordID string) string {
	return uuid.NewSHA1(pointNamespace, []byte(recordID)).String()
}

func toPayload(r commonModels.Record) map[string]any {
	m := r.Metadata
	return map[string]any{
		payloadRecordID:   r.Id,
		payloadDocument:   r.Document,
		payloadBookID:     m.BookID,
		payloadCampaignID: m.CampaignID,
		payloadFilename:   m.Filename,
		payloadSystem:     m.System,
		payloadCategory:   m.Category,
		payloadPage:       int64(m.PageNumber),
		payloadChunkID:    string(m.ChunkID),
		payloadWordCount:  int64(m.WordCount),
	}
}

func fromPayload(p map[string]*qdrant.Value) commonModels.Record {
	return commonModels.Record{
		Id:       p[payloadRecordID].GetStringValue(),
		Document: p[payloadDocument].GetStringValue(),
		Metadata: commonModels.RecordMetadata{
			BookID:     p[payloadBookID].GetStringValue(),
			CampaignID: p[payloadCampaignID].GetIntegerValue(),
			Filename:   p[payloadFilename].GetStringValue(),
			System:     p[payloadSystem].GetStringValue(),
			Category:   p[payloadCategory].GetStringValue(),
			PageNumber: int(p[payloadPage].GetIntegerValue()),
			ChunkID:    commonModels.ChunkID(p[payloadChunkID].GetStringValue()),
			WordCount:  int(p[payloadWordCount].GetIntegerValue()),
		},
	}
}

func classify(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ragErrors.New(ragErrors.Transient, op, err)
	}
	switch status.Code(err) {
	case codes.Unavailable:
		return ragErrors.New(ragErrors.StoreUnreachable, op, err)
	case codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted:
		return ragErrors.New(ragErrors.Transient, op, err)
	case codes.InvalidArgument:
		return ragErrors.New(ragErrors.InputShape, op, err)
	}
	return ragErrors.New(ragErrors.Unknown, op, err)
}
