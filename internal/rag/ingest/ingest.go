package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/akolanti/rulebook-rag/internal/config"
	"github.com/akolanti/rulebook-rag/internal/domain/commonModels"
	"github.com/akolanti/rulebook-rag/internal/domain/ragErrors"
	"github.com/akolanti/rulebook-rag/internal/metrics"
	"github.com/akolanti/rulebook-rag/internal/rag/textnorm"
	"github.com/akolanti/rulebook-rag/internal/rag/vectorDB"
	"github.com/akolanti/rulebook-rag/pkg/logger_i"
)

// Locker serialises ingestion of one (filename, campaign) pair across processes.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

type Options struct {
	Collection  string
	Description string
	MaxBatch    int
	// Locker is optional.
	Locker Locker
}

type Ingestor struct {
	store       vectorDB.DataProcessor
	collection  string
	description string
	maxBatch    int
	locker      Locker
	logger      *logger_i.Logger
}

func NewIngestor(store vectorDB.DataProcessor, opts Options) *Ingestor {
	if opts.Collection == "" {
		opts.Collection = config.DefaultCollectionName
	}
	if opts.Description == "" {
		opts.Description = config.DefaultCollectionDesc
	}
	if opts.MaxBatch <= 0 || opts.MaxBatch > config.MaxBatchLimit {
		opts.MaxBatch = config.MaxBatchLimit
	}
	return &Ingestor{
		store:       store,
		collection:  opts.Collection,
		description: opts.Description,
		maxBatch:    opts.MaxBatch,
		locker:      opts.Locker,
		logger:      logger_i.NewLogger("ingest"),
	}
}

// RecordID is a pure function of the book, the campaign and the chunk's
// position in the source.
func RecordID(filename string, campaignID int64, ordinal int) string {
	return fmt.Sprintf("%s_%d_%d", filename, campaignID, ordinal)
}

func LeaseKey(filename string, campaignID int64) string {
	return fmt.Sprintf("%s%s:%d", config.IngestLeasePrefix, filename, campaignID)
}

// Ingest writes one book into the collection in windows of MaxBatch chunks.
// Duplicate-id and transient batch failures are logged and skipped; a
// dimension mismatch, bad input or cancellation aborts the book.
func (in *Ingestor) Ingest(ctx context.Context, book commonModels.ParsedBook, campaignID int64) (commonModels.IngestReport, error) {
	filename := book.Metadata.Filename
	report := commonModels.IngestReport{Filename: filename, CampaignID: campaignID, Total: len(book.Chunks)}
	log := in.logger.WithTrace(ctx).With("filename", filename, "campaignId", campaignID)

	if err := validateBook(book); err != nil {
		log.Error("Rejected book", "error", err)
		return report, err
	}

	if in.locker != nil {
		release, err := in.locker.Acquire(ctx, LeaseKey(filename, campaignID))
		if err != nil {
			log.Error("Could not acquire ingest lease", "error", err)
			return report, err
		}
		defer release()
	}

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("ingest_book", time.Since(start)) }()

	coll, err := in.store.GetOrCreate(ctx, in.collection, in.description)
	if err != nil {
		log.Error("Could not open collection", "collection", in.collection, "error", err)
		return report, err
	}

	log.Info("Starting ingestion", "collection", coll.Name, "chunks", report.Total, "batchSize", in.maxBatch)
	for from := 0; from < len(book.Chunks); from += in.maxBatch {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		to := min(from+in.maxBatch, len(book.Chunks))

		records := in.buildRecords(log, book, campaignID, from, to, &report)
		if len(records) == 0 {
			continue
		}

		err := in.store.Add(ctx, coll, records)
		switch {
		case err == nil:
			report.Imported += len(records)
			metrics.CountBatch(metrics.BatchImported, len(records))
		case ragErrors.Is(err, ragErrors.DimensionMismatch):
			log.Error("Aborting book on dimension mismatch", "batchStart", from, "error", err)
			metrics.CountBatch(metrics.BatchFailed, len(records))
			return report, err
		case ragErrors.Is(err, ragErrors.DuplicateID):
			log.Warn("Batch already ingested, skipping", "batchStart", from, "batchSize", len(records), "error", err)
			report.DuplicateBatches++
			metrics.CountBatch(metrics.BatchDuplicate, len(records))
		case errors.Is(err, context.Canceled) || ctx.Err() != nil:
			return report, err
		default:
			log.Warn("Batch failed, skipping", "batchStart", from, "batchSize", len(records), "error", err)
			report.FailedBatches++
			metrics.CountBatch(metrics.BatchFailed, len(records))
		}
		log.Info("Progress", "imported", report.Imported, "processed", to, "total", report.Total)
	}

	size, err := in.store.Count(ctx, coll)
	if err != nil {
		log.Warn("Could not read final collection size", "error", err)
	}
	report.CollectionSize = size
	log.Info("Ingestion finished",
		"imported", report.Imported,
		"dropped", report.Dropped,
		"duplicateBatches", report.DuplicateBatches,
		"failedBatches", report.FailedBatches,
		"collectionSize", report.CollectionSize)
	return report, nil
}

func (in *Ingestor) buildRecords(log *logger_i.Logger, book commonModels.ParsedBook, campaignID int64, from, to int, report *commonModels.IngestReport) []commonModels.Record {
	meta := book.Metadata
	records := make([]commonModels.Record, 0, to-from)
	for n := from; n < to; n++ {
		chunk := book.Chunks[n]
		// the stored document is the source text; cleaning only decides emptiness and word count
		text := textnorm.Collapse(*chunk.Text)
		if text == "" {
			log.Warn("Dropping empty chunk", "ordinal", n, "page", chunk.PageNumber)
			report.Dropped++
			continue
		}

		words := chunk.WordCount
		if words <= 0 {
			words = len(strings.Fields(text))
		}
		records = append(records, commonModels.Record{
			Id:       RecordID(meta.Filename, campaignID, n),
			Document: *chunk.Text,
			Metadata: commonModels.RecordMetadata{
				BookID:     meta.Filename,
				CampaignID: campaignID,
				Filename:   meta.Filename,
				System:     meta.System,
				Category:   meta.Category,
				PageNumber: chunk.PageNumber,
				ChunkID:    chunk.ChunkID,
				WordCount:  words,
			},
		})
	}
	return records
}
