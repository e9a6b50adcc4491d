package db

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/udisondev/tilechase/internal/game/geo"
)

// ScanWriter persists batches of scan records.
type ScanWriter interface {
	InsertBatch(ctx context.Context, records []ScanRecord) error
}

// Recorder defaults.
const (
	DefaultRecorderBatch    = 64
	DefaultRecorderInterval = time.Second
	recorderFlushTimeout    = 5 * time.Second
)

// ScanRecorder buffers scan records and writes them in batches from a
// background loop. Record never blocks: when the queue is full the record
// is dropped and counted.
type ScanRecorder struct {
	writer    ScanWriter
	queue     chan ScanRecord
	batchSize int
	interval  time.Duration

	written atomic.Int64
	dropped atomic.Int64
	failed  atomic.Int64
}

// NewScanRecorder creates a recorder with room for queueSize pending records.
func NewScanRecorder(writer ScanWriter, queueSize int) *ScanRecorder {
	if queueSize <= 0 {
		queueSize = DefaultRecorderBatch
	}
	return &ScanRecorder{
		writer:    writer,
		queue:     make(chan ScanRecord, queueSize),
		batchSize: DefaultRecorderBatch,
		interval:  DefaultRecorderInterval,
	}
}

// Record enqueues the stats of one scan.
func (r *ScanRecorder) Record(agentID uint32, stats geo.ScanStats) {
	select {
	case r.queue <- NewScanRecord(agentID, stats):
	default:
		r.dropped.Add(1)
	}
}

// Run writes queued records until ctx is canceled, then flushes what is left.
func (r *ScanRecorder) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	batch := make([]ScanRecord, 0, r.batchSize)
	for {
		select {
		case <-ctx.Done():
			r.drain(&batch)
			flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recorderFlushTimeout)
			r.flush(flushCtx, &batch)
			cancel()
			slog.Info("scan recorder stopped",
				"written", r.written.Load(),
				"dropped", r.dropped.Load(),
				"failed", r.failed.Load())
			return nil

		case rec := <-r.queue:
			batch = append(batch, rec)
			if len(batch) >= r.batchSize {
				r.flush(ctx, &batch)
			}

		case <-ticker.C:
			r.flush(ctx, &batch)
		}
	}
}

// drain moves every queued record into batch without blocking.
func (r *ScanRecorder) drain(batch *[]ScanRecord) {
	for {
		select {
		case rec := <-r.queue:
			*batch = append(*batch, rec)
		default:
			return
		}
	}
}

func (r *ScanRecorder) flush(ctx context.Context, batch *[]ScanRecord) {
	if len(*batch) == 0 {
		return
	}
	n := int64(len(*batch))
	if err := r.writer.InsertBatch(ctx, *batch); err != nil {
		r.failed.Add(n)
		slog.Error("writing scan batch", "records", n, "error", err)
	} else {
		r.written.Add(n)
	}
	*batch = (*batch)[:0]
}

// Written returns number of records stored so far.
func (r *ScanRecorder) Written() int64 {
	return r.written.Load()
}

// Dropped returns number of records discarded because the queue was full.
func (r *ScanRecorder) Dropped() int64 {
	return r.dropped.Load()
}

// Failed returns number of records lost to write errors.
func (r *ScanRecorder) Failed() int64 {
	return r.failed.Load()
}
