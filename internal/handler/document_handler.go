// Package handler provides HTTP handlers for the API.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"court-order-server/internal/config"
	"court-order-server/internal/domain"
	apperrors "court-order-server/pkg/errors"
)

// multipartOverhead leaves room for form fields and boundaries on top of the file limit.
const multipartOverhead = 1 << 20

// DocumentHandler handles document upload and processing requests
type DocumentHandler struct {
	pipeline domain.DocumentPipeline
	config   domain.Config
	logger   domain.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(container *config.Container) *DocumentHandler {
	return &DocumentHandler{
		pipeline: container.DocumentPipeline,
		config:   container.GetConfig(),
		logger:   container.GetLogger(),
	}
}

// ProcessDocument runs the standard pipeline.
func (h *DocumentHandler) ProcessDocument(w http.ResponseWriter, r *http.Request) {
	h.process(w, r, domain.PipelineStandard)
}

// ProcessDocumentComplete runs the clean, integrated pipeline.
func (h *DocumentHandler) ProcessDocumentComplete(w http.ResponseWriter, r *http.Request) {
	h.process(w, r, domain.PipelineComplete)
}

// ExtractPDF runs text extraction only and returns the extraction subset.
func (h *DocumentHandler) ExtractPDF(w http.ResponseWriter, r *http.Request) {
	upload, err := h.readUpload(w, r, h.config.GetMaxExtractFileSize())
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}

	res, err := h.pipeline.Process(r.Context(), domain.PipelineExtract, upload, domain.DefaultProcessingOptions(), nil)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res.Summarize())
}

func (h *DocumentHandler) process(w http.ResponseWriter, r *http.Request, variant domain.PipelineVariant) {
	upload, err := h.readUpload(w, r, h.config.GetMaxFileSize())
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	opts := parseOptions(r)

	if !wantsEventStream(r) {
		res, err := h.pipeline.Process(r.Context(), variant, upload, opts, nil)
		if err != nil {
			writeAppError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
		return
	}

	sse, ok := newSSEWriter(w)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}
	res, err := h.pipeline.Process(r.Context(), variant, upload, opts, sse.progress)
	if err != nil {
		if sse.started() {
			h.logger.Error("Pipeline failed after stream start", err, "request_id", GetRequestIDFromContext(r))
			sse.send("error", map[string]string{"error": "Internal server error"})
			return
		}
		writeAppError(w, h.logger, err)
		return
	}
	sse.send("result", res)
}

// readUpload reads the multipart "file" field into memory.
func (h *DocumentHandler) readUpload(w http.ResponseWriter, r *http.Request, limit int64) (domain.Upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return domain.Upload{}, apperrors.NewValidationError(fmt.Sprintf("File size exceeds %dMB limit", limit>>20))
		}
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			return domain.Upload{}, apperrors.NewValidationError("No file provided", err.Error())
		}
		return domain.Upload{}, apperrors.NewValidationError("Invalid multipart form", err.Error())
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return domain.Upload{}, apperrors.NewValidationError("No file provided")
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return domain.Upload{}, apperrors.NewInternalError("failed to read upload", err)
	}

	return domain.Upload{
		Content: content,
		File: domain.FileDescriptor{
			Name: header.Filename,
			Size: header.Size,
			Type: header.Header.Get("Content-Type"),
		},
	}, nil
}

// parseOptions reads processing options from the form. Booleans are true only for "true".
func parseOptions(r *http.Request) domain.ProcessingOptions {
	opts := domain.DefaultProcessingOptions()
	opts.OCREnabled = r.FormValue("ocrEnabled") == "true"
	opts.SignatureDetection = r.FormValue("signatureDetection") == "true"
	if v := strings.TrimSpace(r.FormValue("summaryLength")); v != "" {
		opts.SummaryLength = v
	}
	if v := strings.TrimSpace(r.FormValue("language")); v != "" {
		opts.Language = v
	}
	return opts
}

func wantsEventStream(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/event-stream")
}

// sseWriter writes server-sent events. Headers go out with the first event so
// validation failures can still be answered with a plain JSON error.
type sseWriter struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
	open    bool
}

func newSSEWriter(w http.ResponseWriter) (*sseWriter, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, false
	}
	return &sseWriter{w: w, flusher: flusher}, true
}

func (s *sseWriter) started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

func (s *sseWriter) progress(ev domain.ProgressEvent) {
	s.send("progress", ev)
}

func (s *sseWriter) send(event string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		h := s.w.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		h.Set("X-Accel-Buffering", "no")
		s.w.WriteHeader(http.StatusOK)
		s.open = true
	}
	fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, payload)
	s.flusher.Flush()
}
