package service

import (
	"context"
	"log"
	"sync"
	"time"

	"underwriter/internal/port"
)

// ProcessQueueConfig holds settings for the processing queue worker.
type ProcessQueueConfig struct {
	PollInterval time.Duration
	MaxRetries   int
	Concurrency  int
}

// ProcessQueueWorker polls for pending documents and dispatches them through
// the processing pipeline. It picks up documents whose in-process goroutine
// died (crash, deploy) as well as retryable failures.
type ProcessQueueWorker struct {
	docRepo    port.DocumentRepository
	docService DocumentService
	cfg        ProcessQueueConfig
	wg         sync.WaitGroup
}

// NewProcessQueueWorker creates a new ProcessQueueWorker.
func NewProcessQueueWorker(docRepo port.DocumentRepository, docService DocumentService, cfg ProcessQueueConfig) *ProcessQueueWorker {
	return &ProcessQueueWorker{
		docRepo:    docRepo,
		docService: docService,
		cfg:        cfg,
	}
}

// Start runs the polling loop until ctx is canceled. It blocks until all
// in-flight processing goroutines have finished.
func (w *ProcessQueueWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	sem := make(chan struct{}, w.cfg.Concurrency)

	log.Printf("processQueueWorker: started (poll=%s, concurrency=%d, maxRetries=%d)",
		w.cfg.PollInterval, w.cfg.Concurrency, w.cfg.MaxRetries)

	for {
		select {
		case <-ctx.Done():
			log.Printf("processQueueWorker: shutting down, waiting for in-flight jobs...")
			w.wg.Wait()
			log.Printf("processQueueWorker: shutdown complete")
			return
		case <-ticker.C:
			available := w.cfg.Concurrency - len(sem)
			if available <= 0 {
				continue
			}

			docs, err := w.docRepo.ClaimPending(ctx, available, w.cfg.MaxRetries)
			if err != nil {
				if ctx.Err() != nil {
					// Context canceled during poll, exit gracefully
					continue
				}
				log.Printf("processQueueWorker: ClaimPending error: %v", err)
				continue
			}

			for i := range docs {
				doc := docs[i] // copy for goroutine

				sem <- struct{}{} // acquire
				w.wg.Add(1)
				go func() {
					defer w.wg.Done()
					defer func() { <-sem }() // release

					// Use a fresh context independent of the poll context
					// so in-flight jobs complete even during shutdown.
					processCtx, cancel := context.WithTimeout(context.Background(), processTimeout)
					defer cancel()

					log.Printf("processQueueWorker: dispatching document %s (attempt %d)", doc.ID, doc.ProcessAttempts)
					w.docService.ProcessDocument(processCtx, &doc)
				}()
			}
		}
	}
}
