package service

import (
	"context"
	"time"

	"court-order-server/internal/domain"
)

const (
	progressCeiling   = 90.0
	progressCompleted = "Processing complete!"
)

// ProgressStages returns the cosmetic step labels shown while the engine runs.
func ProgressStages(file domain.FileDescriptor) []string {
	textStep := "Extracting text from PDF..."
	if file.IsImage() {
		textStep = "Running OCR analysis..."
	}
	return []string{
		"Uploading document...",
		"Detecting document type...",
		textStep,
		"Analyzing document structure...",
		"Extracting legal entities...",
		"Classifying document type...",
		"Generating summary...",
		"Analyzing complexity...",
		"Finalizing results...",
	}
}

// ProgressEstimator emits a fixed, time-based schedule. It knows nothing about
// the engine's real progress and never reports more than 90% on its own.
type ProgressEstimator struct {
	interval time.Duration
}

// NewProgressEstimator creates an estimator ticking every interval.
func NewProgressEstimator(interval time.Duration) ProgressEstimator {
	if interval <= 0 {
		interval = 800 * time.Millisecond
	}
	return ProgressEstimator{interval: interval}
}

// Run emits one step per tick until the schedule is exhausted or ctx is done.
func (e ProgressEstimator) Run(ctx context.Context, file domain.FileDescriptor, emit domain.ProgressFunc) {
	if emit == nil {
		return
	}
	stages := ProgressStages(file)
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for i, stage := range stages {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		emit(domain.ProgressEvent{
			Step:    i + 1,
			Total:   len(stages),
			Stage:   stage,
			Percent: float64(i+1) / float64(len(stages)) * progressCeiling,
		})
	}
}

// Complete is the terminal event, sent only once the engine has returned.
func (e ProgressEstimator) Complete(file domain.FileDescriptor) domain.ProgressEvent {
	total := len(ProgressStages(file))
	return domain.ProgressEvent{
		Step:    total,
		Total:   total,
		Stage:   progressCompleted,
		Percent: 100,
		Done:    true,
	}
}
