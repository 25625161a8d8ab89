package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"court-order-server/internal/domain"
	"court-order-server/internal/engine"
	apperrors "court-order-server/pkg/errors"
)

const (
	stdoutPreviewRunes = 1000
	stderrPreviewRunes = 2000

	extractionMethodFailed = "Failed"
	extractionMethodBasic  = "Basic"
)

// RequestContext is what the caller knows about an upload independently of
// the engine. It is authoritative for the file fields.
type RequestContext struct {
	Variant         domain.PipelineVariant
	File            domain.FileDescriptor
	UploadTimestamp time.Time
	// Metadata discovered without the engine (PDF probe). Engine metadata
	// overrides it key by key.
	Metadata  map[string]any
	PageCount int
}

// Normalizer maps every raw engine outcome onto one schema-complete result.
type Normalizer struct {
	validator *engine.OutputValidator
	lenient   bool
	logger    domain.Logger
}

// NewNormalizer creates a normalizer. With lenient set, a JSON object embedded
// in noisy stdout is salvaged instead of failing the parse.
func NewNormalizer(validator *engine.OutputValidator, lenient bool, logger domain.Logger) *Normalizer {
	return &Normalizer{validator: validator, lenient: lenient, logger: logger}
}

// rawExtraction is the engine's stdout before defaults are applied.
type rawExtraction struct {
	ExtractedText     *string              `json:"extractedText"`
	Summary           *string              `json:"summary"`
	Metadata          map[string]any       `json:"metadata"`
	DocumentAnalysis  *rawDocumentAnalysis `json:"documentAnalysis"`
	StructureAnalysis map[string]any       `json:"structureAnalysis"`
	ProcessingStages  map[string]bool      `json:"processingStages"`
	ExtractionMethod  string               `json:"extractionMethod"`
	DocumentType      string               `json:"documentType"`
	WordCount         *int                 `json:"wordCount"`
	CharacterCount    *int                 `json:"characterCount"`
	PageCount         *int                 `json:"pageCount"`
	ProcessingTime    *float64             `json:"processingTime"`
	Success           *bool                `json:"success"`
	Error             *string              `json:"error"`
}

type rawDocumentAnalysis struct {
	Type        string           `json:"type"`
	Confidence  *float64         `json:"confidence"`
	Complexity  string           `json:"complexity"`
	KeyEntities map[string][]any `json:"keyEntities"`
}

// Normalize applies, in priority order: start failure, timeout, non-zero
// exit, unparseable output, and finally the merge of parsed output.
func (n *Normalizer) Normalize(out domain.Outcome, rc RequestContext) domain.ExtractionResult {
	res := domain.NewExtractionResult(rc.File)
	res.UploadTimestamp = rc.UploadTimestamp.UTC().Format(time.RFC3339Nano)
	res.PageCount = rc.PageCount
	for k, v := range rc.Metadata {
		res.Metadata[k] = v
	}

	switch out.Kind() {
	case domain.OutcomeStartFailure:
		appErr := apperrors.NewEngineUnavailableError("processing engine not available", out.StartError)
		res.Error = describe(appErr)
		res.ExtractionMethod = domain.ExtractionMethodUnavailable
		res.Summary = "Document processing unavailable. Please check the engine installation and its dependencies."
		return n.finish(res)

	case domain.OutcomeTimeout:
		appErr := apperrors.NewEngineTimeoutError(fmt.Sprintf("processing timed out after %s", out.Duration.Round(time.Millisecond)))
		res.Error = describe(appErr)
		res.ExtractionMethod = domain.ExtractionMethodTimeout
		res.ProcessingTime = out.Duration.Seconds()
		res.Summary = "Document processing did not finish in time."
		return n.finish(res)

	case domain.OutcomeExitError:
		stderr := Preview(strings.TrimSpace(out.Stderr), stderrPreviewRunes)
		res.Error = describe(apperrors.NewEngineExitError(out.ExitCode, stderr))
		res.ExtractionMethod = domain.ExtractionMethodFallback
		if rc.Variant == domain.PipelineExtract {
			res.ExtractionMethod = extractionMethodFailed
		}
		res.ProcessingTime = out.Duration.Seconds()
		res.Summary = "Document processing failed. Please check the engine configuration and its dependencies."
		return n.finish(res)
	}

	raw, err := n.decodeExtraction(out.Stdout)
	if err != nil {
		n.logger.Warn("engine output rejected",
			"file", rc.File.Name,
			"stdout_bytes", len(out.Stdout),
			"error", err.Error(),
		)
		preview := Preview(out.Stdout, stdoutPreviewRunes)
		res.Error = describe(apperrors.NewEngineOutputError("engine returned invalid JSON", err))
		res.ExtractionMethod = domain.ExtractionMethodFallback
		if rc.Variant == domain.PipelineExtract {
			res.ExtractionMethod = extractionMethodBasic
		}
		res.ExtractedText = preview
		res.WordCount = CountWords(preview)
		res.CharacterCount = CountCharacters(preview)
		res.ProcessingTime = out.Duration.Seconds()
		return n.finish(res)
	}

	n.merge(&res, raw, out)
	return n.finish(res)
}

func (n *Normalizer) merge(res *domain.ExtractionResult, raw rawExtraction, out domain.Outcome) {
	if raw.ExtractedText != nil {
		res.ExtractedText = *raw.ExtractedText
	}
	if raw.Summary != nil {
		res.Summary = *raw.Summary
	}
	for k, v := range raw.Metadata {
		res.Metadata[k] = v
	}
	for k, v := range raw.StructureAnalysis {
		res.StructureAnalysis[k] = v
	}
	for k, v := range raw.ProcessingStages {
		res.ProcessingStages[k] = v
	}

	if a := raw.DocumentAnalysis; a != nil {
		if a.Type != "" {
			res.DocumentAnalysis.Type = a.Type
		}
		if a.Complexity != "" {
			res.DocumentAnalysis.Complexity = a.Complexity
		}
		if a.Confidence != nil {
			res.DocumentAnalysis.Confidence = clamp01(*a.Confidence)
		}
		for kind, items := range a.KeyEntities {
			res.DocumentAnalysis.KeyEntities[kind] = stringifyAll(items)
		}
	}

	if raw.ExtractionMethod != "" {
		res.ExtractionMethod = raw.ExtractionMethod
	}
	if raw.DocumentType != "" {
		res.DocumentType = raw.DocumentType
	}

	if raw.WordCount != nil {
		res.WordCount = *raw.WordCount
	} else {
		res.WordCount = CountWords(res.ExtractedText)
	}
	if raw.CharacterCount != nil {
		res.CharacterCount = *raw.CharacterCount
	} else {
		res.CharacterCount = CountCharacters(res.ExtractedText)
	}
	if raw.PageCount != nil && *raw.PageCount > 0 {
		res.PageCount = *raw.PageCount
	}
	if raw.ProcessingTime != nil {
		res.ProcessingTime = *raw.ProcessingTime
	} else {
		res.ProcessingTime = out.Duration.Seconds()
	}

	res.Success = true
	if raw.Success != nil {
		res.Success = *raw.Success
	}
	if raw.Error != nil {
		res.Error = strings.TrimSpace(*raw.Error)
	}
}

// finish enforces the cross-field rule that an error always means failure.
func (n *Normalizer) finish(res domain.ExtractionResult) domain.ExtractionResult {
	if res.Failed() {
		res.Success = false
	}
	return res
}

func (n *Normalizer) decodeExtraction(stdout string) (rawExtraction, error) {
	data, doc, err := decodeEngineJSON(stdout, n.lenient)
	if err != nil {
		return rawExtraction{}, err
	}
	if err := n.validator.ValidateExtraction(doc); err != nil {
		return rawExtraction{}, err
	}
	var raw rawExtraction
	if err := json.Unmarshal(data, &raw); err != nil {
		return rawExtraction{}, fmt.Errorf("decode engine output: %w", err)
	}
	return raw, nil
}

// decodeEngineJSON parses stdout as exactly one JSON object. In lenient mode
// the span from the first '{' to the last '}' is tried when the whole output
// does not parse.
func decodeEngineJSON(stdout string, lenient bool) ([]byte, any, error) {
	data := bytes.TrimSpace([]byte(stdout))
	if len(data) == 0 {
		return nil, nil, fmt.Errorf("empty engine output: %w", domain.ErrMalformedEngineJSON)
	}

	doc, err := decodeObject(data)
	if err != nil && lenient {
		start := bytes.IndexByte(data, '{')
		end := bytes.LastIndexByte(data, '}')
		if start >= 0 && end > start {
			salvaged := data[start : end+1]
			if sdoc, serr := decodeObject(salvaged); serr == nil {
				return salvaged, sdoc, nil
			}
		}
	}
	if err != nil {
		return nil, nil, err
	}
	return data, doc, nil
}

func decodeObject(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedEngineJSON, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after JSON document", domain.ErrMalformedEngineJSON)
	}
	if _, ok := doc.(map[string]any); !ok {
		return nil, domain.ErrMalformedEngineJSON
	}
	return doc, nil
}

func describe(err *apperrors.AppError) string {
	msg := err.Message
	if err.Details != "" {
		msg += ": " + err.Details
	} else if err.Cause != nil {
		msg += ": " + err.Cause.Error()
	}
	return msg
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func stringifyAll(items []any) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case nil:
			continue
		case string:
			out = append(out, v)
		default:
			b, err := json.Marshal(v)
			if err != nil {
				out = append(out, fmt.Sprint(v))
				continue
			}
			out = append(out, string(b))
		}
	}
	return out
}
