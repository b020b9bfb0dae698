package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Captain-Rohith/CommunityPulse/pkg/queue"
	"github.com/Captain-Rohith/CommunityPulse/pkg/storage"
)

// JobSource is the queue the processor drains.
type JobSource interface {
	Dequeue(ctx context.Context) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// ImageCleanupProcessor deletes stored images whose in-request deletion failed.
type ImageCleanupProcessor struct {
	images  storage.ImageStore
	queue   JobSource
	backoff time.Duration
	logger  *zap.Logger
}

// NewImageCleanupProcessor creates an image cleanup processor.
func NewImageCleanupProcessor(images storage.ImageStore, q JobSource, logger *zap.Logger) *ImageCleanupProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImageCleanupProcessor{images: images, queue: q, backoff: queue.RetryBackoff, logger: logger}
}

// Process executes one cleanup job.
func (p *ImageCleanupProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeImageCleanup {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.ImageCleanupPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if payload.Path == "" {
		p.logger.Warn("cleanup job without path", zap.String("job_id", job.ID))
		return nil
	}
	if err := p.images.Delete(ctx, payload.Path); err != nil {
		return fmt.Errorf("delete %s: %w", payload.Path, err)
	}
	p.logger.Info("image removed",
		zap.String("job_id", job.ID),
		zap.String("path", payload.Path),
		zap.String("reason", payload.Reason),
	)
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *ImageCleanupProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("image cleanup worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			p.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			p.sleep(ctx)
		}
	}
}

func (p *ImageCleanupProcessor) sleep(ctx context.Context) {
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
