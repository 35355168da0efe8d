package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/akolanti/rulebook-rag/internal/bootstrap"
	"github.com/akolanti/rulebook-rag/internal/config"
	"github.com/akolanti/rulebook-rag/internal/domain/commonModels"
	"github.com/akolanti/rulebook-rag/internal/rag/ingest"
	"github.com/akolanti/rulebook-rag/internal/worker"
	"github.com/akolanti/rulebook-rag/pkg/logger_i"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		campaignID   int64
		collection   string
		manifestPath string
		workers      int
	)
	flag.Int64Var(&campaignID, "campaign", 0, "campaign id stamped on every record")
	flag.StringVar(&collection, "collection", "", "target collection (default COLLECTION_NAME)")
	flag.StringVar(&manifestPath, "manifest", "", "YAML manifest listing the books to ingest")
	flag.IntVar(&workers, "workers", 0, "books ingested in parallel (default INGEST_WORKERS)")
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), "Usage: ingest [-campaign N] [-collection NAME] [-manifest books.yaml] [-workers N] book.json [book.json ...]")
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		return 1
	}
	logger_i.Init(cfg)
	logger := logger_i.NewLogger("ingest_cli")
	if workers <= 0 {
		workers = cfg.IngestWorkers
	}

	jobs := make([]ingest.Job, 0, flag.NArg())
	if manifestPath != "" {
		m, err := ingest.LoadManifest(manifestPath)
		if err != nil {
			logger.Error("Could not read manifest", "path", manifestPath, "error", err)
			return 1
		}
		if collection == "" {
			collection = m.Collection
		}
		jobs = append(jobs, m.Jobs()...)
	}
	for _, path := range flag.Args() {
		jobs = append(jobs, ingest.Job{Path: path, CampaignID: campaignID})
	}
	if len(jobs) == 0 {
		flag.Usage()
		return 1
	}

	for i := range jobs {
		// unreadable books keep an empty Filename and fail later in LoadBook
		jobs[i].Filename, _ = ingest.BookFilename(jobs[i].Path)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, collection)
	if err != nil {
		logger.Error("Setup failed", "error", err)
		return 1
	}
	defer app.Close()

	runBook := func(ctx context.Context, job ingest.Job) (commonModels.IngestReport, error) {
		book, err := ingest.LoadBook(job.Path, cfg.ChunkSize, cfg.ChunkOverlap)
		if err != nil {
			return commonModels.IngestReport{}, err
		}
		return app.Service.IngestBook(ctx, book, job.CampaignID)
	}

	failed := 0
	for _, res := range worker.NewPool(workers).Run(ctx, jobs, runBook) {
		if res.Err != nil {
			logger.Error("Book failed", "path", res.Job.Path, "campaignId", res.Job.CampaignID, "error", res.Err)
			failed++
			continue
		}
		r := res.Report
		fmt.Printf("%s (campaign %d): imported %d/%d, dropped %d, duplicate batches %d, failed batches %d, collection size %d\n",
			r.Filename, r.CampaignID, r.Imported, r.Total, r.Dropped, r.DuplicateBatches, r.FailedBatches, r.CollectionSize)
	}

	logger.Info("Ingestion run complete", "books", len(jobs), "failed", failed)
	return 0
}
