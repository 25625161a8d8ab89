package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"court-order-server/internal/domain"
	apperrors "court-order-server/pkg/errors"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"
)

// Pipeline validates an upload, stages it, runs the engine and normalizes
// whatever comes back.
type Pipeline struct {
	engine     domain.Engine
	stager     *Stager
	normalizer *Normalizer
	probe      *PDFProbe
	progress   ProgressEstimator
	validate   *validator.Validate
	config     domain.Config
	logger     domain.Logger
}

// NewPipeline creates a new document pipeline
func NewPipeline(
	engine domain.Engine,
	stager *Stager,
	normalizer *Normalizer,
	probe *PDFProbe,
	validate *validator.Validate,
	config domain.Config,
	logger domain.Logger,
) *Pipeline {
	return &Pipeline{
		engine:     engine,
		stager:     stager,
		normalizer: normalizer,
		probe:      probe,
		progress:   NewProgressEstimator(config.GetProgressInterval()),
		validate:   validate,
		config:     config,
		logger:     logger,
	}
}

// Process runs one upload through the engine. Only validation and staging
// failures are returned as errors; every engine failure is reported inside
// the result.
func (p *Pipeline) Process(
	ctx context.Context,
	variant domain.PipelineVariant,
	upload domain.Upload,
	opts domain.ProcessingOptions,
	progress domain.ProgressFunc,
) (domain.ExtractionResult, error) {
	uploadedAt := time.Now()

	file, err := p.validateUpload(variant, upload)
	if err != nil {
		return domain.ExtractionResult{}, err
	}
	if err := p.validate.Struct(opts); err != nil {
		return domain.ExtractionResult{}, apperrors.NewValidationError("invalid processing options", err.Error())
	}

	rc := RequestContext{
		Variant:         variant,
		File:            file,
		UploadTimestamp: uploadedAt,
		Metadata:        map[string]any{},
	}
	if file.IsPDF() {
		if info, err := p.probe.Probe(upload.Content); err != nil {
			p.logger.Debug("PDF probe failed", "file", file.Name, "error", err.Error())
		} else {
			rc.PageCount = info.PageCount
			rc.Metadata = info.Metadata()
		}
	}

	staged, err := p.stager.Stage(file.Name, upload.Content)
	if err != nil {
		return domain.ExtractionResult{}, apperrors.NewInternalError("failed to stage upload", err)
	}
	defer staged.Remove()

	inv, err := p.invocation(variant, staged, opts)
	if err != nil {
		return domain.ExtractionResult{}, apperrors.NewInternalError("failed to encode processing options", err)
	}

	p.logger.Info("Processing document",
		"variant", string(variant),
		"file", file.Name,
		"size", file.Size,
		"type", file.Type,
	)

	// The group only joins the estimator; it has no failure mode of its own.
	progressCtx, stopProgress := context.WithCancel(ctx)
	var g errgroup.Group
	g.Go(func() error {
		p.progress.Run(progressCtx, file, progress)
		return nil
	})

	outcome := p.engine.Invoke(ctx, inv)
	stopProgress()
	_ = g.Wait()

	res := p.normalizer.Normalize(outcome, rc)
	res.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	res.Options = opts

	if progress != nil {
		progress(p.progress.Complete(file))
	}

	if res.Failed() {
		p.logger.Warn("Document processing finished with error",
			"variant", string(variant),
			"file", file.Name,
			"outcome", string(outcome.Kind()),
			"stages_completed", res.CompletedStages(),
			"error", res.Error,
		)
	} else {
		p.logger.Info("Document processed",
			"variant", string(variant),
			"file", file.Name,
			"words", res.WordCount,
			"method", res.ExtractionMethod,
			"stages_completed", res.CompletedStages(),
			"duration_ms", outcome.Duration.Milliseconds(),
		)
	}
	return res, nil
}

func (p *Pipeline) invocation(variant domain.PipelineVariant, staged *StagedFile, opts domain.ProcessingOptions) (domain.Invocation, error) {
	args := []string{p.config.GetEngineScript(variant), staged.Path}
	if variant != domain.PipelineExtract {
		optionsJSON, err := json.Marshal(opts)
		if err != nil {
			return domain.Invocation{}, err
		}
		args = append(args, string(optionsJSON))
	}
	return domain.Invocation{
		Executable: p.config.GetEngineExecutable(),
		Args:       args,
		Deadline:   p.config.GetProcessTimeout(),
		Cleanup:    staged.Remove,
	}, nil
}

// validateUpload resolves the effective MIME type and applies the variant's
// type and size rules before anything touches the disk.
func (p *Pipeline) validateUpload(variant domain.PipelineVariant, upload domain.Upload) (domain.FileDescriptor, error) {
	file := upload.File
	if file.Name == "" && len(upload.Content) == 0 {
		return file, invalidUpload(domain.ErrFileRequired, apperrors.NewValidationError("No file provided"))
	}
	if len(upload.Content) == 0 {
		return file, invalidUpload(domain.ErrEmptyFile, apperrors.NewValidationError("File is empty"))
	}
	if file.Size <= 0 {
		file.Size = int64(len(upload.Content))
	}
	file.Type = resolveMIMEType(file.Type, upload.Content)

	limit := p.config.GetMaxFileSize()
	if variant == domain.PipelineExtract {
		limit = p.config.GetMaxExtractFileSize()
		if !file.IsPDF() {
			return file, invalidUpload(domain.ErrUnsupportedFileType, apperrors.NewValidationError("Only PDF files are allowed", file.Type))
		}
	} else if !file.IsPDF() && !file.IsImage() {
		return file, invalidUpload(domain.ErrUnsupportedFileType, apperrors.NewValidationError("Only PDF files and images are allowed", file.Type))
	}

	if file.Size > limit {
		return file, invalidUpload(domain.ErrFileTooLarge, apperrors.NewValidationError(
			fmt.Sprintf("File size exceeds %dMB limit", limit/(1024*1024)),
			fmt.Sprintf("%d bytes", file.Size),
		))
	}
	return file, nil
}

func invalidUpload(cause error, err *apperrors.AppError) *apperrors.AppError {
	err.Cause = cause
	return err
}

// resolveMIMEType keeps a specific declared type and sniffs the content when
// the client sent nothing useful.
func resolveMIMEType(declared string, content []byte) string {
	declared = strings.ToLower(strings.TrimSpace(declared))
	if i := strings.IndexByte(declared, ';'); i >= 0 {
		declared = strings.TrimSpace(declared[:i])
	}
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	detected := mimetype.Detect(content).String()
	if i := strings.IndexByte(detected, ';'); i >= 0 {
		detected = detected[:i]
	}
	return detected
}
