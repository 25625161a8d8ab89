package domain

import (
	"strings"
)

// Extraction method tags reported in ExtractionResult.ExtractionMethod.
const (
	ExtractionMethodUnknown     = "Unknown"
	ExtractionMethodUnavailable = "Unavailable"
	ExtractionMethodTimeout     = "Timeout"
	ExtractionMethodFallback    = "Fallback"
)

// Document types derived from the upload's MIME type.
const (
	DocumentTypeScanned   = "scanned"
	DocumentTypeTextBased = "text_based"
)

// Pipeline stage names reported in ExtractionResult.ProcessingStages.
const (
	StageTextExtraction     = "text_extraction"
	StageMetadataExtraction = "metadata_extraction"
	StageSummarization      = "summarization"
	StageFileOutput         = "file_output"
)

// ProcessingStageNames lists the engine stages in pipeline order.
var ProcessingStageNames = []string{
	StageTextExtraction,
	StageMetadataExtraction,
	StageSummarization,
	StageFileOutput,
}

// FileDescriptor identifies an uploaded file. The caller, not the engine, is
// authoritative for these values.
type FileDescriptor struct {
	Name string
	Size int64
	Type string
}

// IsImage reports whether the upload is an image (scanned) document.
func (f FileDescriptor) IsImage() bool {
	return strings.HasPrefix(f.Type, "image/")
}

// IsPDF reports whether the upload is a PDF.
func (f FileDescriptor) IsPDF() bool {
	return f.Type == "application/pdf"
}

// DocumentType returns "scanned" for images and "text_based" otherwise.
func (f FileDescriptor) DocumentType() string {
	if f.IsImage() {
		return DocumentTypeScanned
	}
	return DocumentTypeTextBased
}

// ProcessingOptions are forwarded to the engine as a JSON argument.
type ProcessingOptions struct {
	OCREnabled         bool   `json:"ocrEnabled"`
	SignatureDetection bool   `json:"signatureDetection"`
	SummaryLength      string `json:"summaryLength" validate:"oneof=brief medium detailed"`
	Language           string `json:"language" validate:"required,max=16"`
}

// DefaultProcessingOptions mirrors the form defaults of the upload UI.
func DefaultProcessingOptions() ProcessingOptions {
	return ProcessingOptions{
		SummaryLength: "medium",
		Language:      "en",
	}
}

// DocumentAnalysis is the engine's classification of the document.
type DocumentAnalysis struct {
	Type        string              `json:"type"`
	Confidence  float64             `json:"confidence"`
	Complexity  string              `json:"complexity"`
	KeyEntities map[string][]string `json:"keyEntities"`
}

// ExtractionResult is the canonical response of a document-analysis request.
// Every field except Error is always populated.
type ExtractionResult struct {
	ExtractedText     string            `json:"extractedText"`
	Summary           string            `json:"summary"`
	Metadata          map[string]any    `json:"metadata"`
	DocumentAnalysis  DocumentAnalysis  `json:"documentAnalysis"`
	StructureAnalysis map[string]any    `json:"structureAnalysis"`
	ProcessingStages  map[string]bool   `json:"processingStages"`
	ExtractionMethod  string            `json:"extractionMethod"`
	DocumentType      string            `json:"documentType"`
	WordCount         int               `json:"wordCount"`
	CharacterCount    int               `json:"characterCount"`
	PageCount         int               `json:"pageCount"`
	ProcessingTime    float64           `json:"processingTime"`
	Success           bool              `json:"success"`
	Error             string            `json:"error,omitempty"`
	FileName          string            `json:"fileName"`
	FileSize          int64             `json:"fileSize"`
	FileType          string            `json:"fileType"`
	UploadTimestamp   string            `json:"uploadTimestamp"`
	Timestamp         string            `json:"timestamp"`
	Options           ProcessingOptions `json:"options"`
}

// NewExtractionResult returns a schema-complete result for file. Every
// normalization branch starts from it and overrides selectively.
func NewExtractionResult(file FileDescriptor) ExtractionResult {
	stages := make(map[string]bool, len(ProcessingStageNames))
	for _, name := range ProcessingStageNames {
		stages[name] = false
	}
	return ExtractionResult{
		ExtractedText: "",
		Metadata:      map[string]any{},
		DocumentAnalysis: DocumentAnalysis{
			Type:        "Unknown",
			Confidence:  0,
			Complexity:  "unknown",
			KeyEntities: map[string][]string{},
		},
		StructureAnalysis: map[string]any{},
		ProcessingStages:  stages,
		ExtractionMethod:  ExtractionMethodUnknown,
		DocumentType:      file.DocumentType(),
		FileName:          file.Name,
		FileSize:          file.Size,
		FileType:          file.Type,
		Options:           DefaultProcessingOptions(),
	}
}

// Failed reports whether the result carries an error.
func (r ExtractionResult) Failed() bool {
	return r.Error != ""
}

// CompletedStages counts the stages the engine reported as done.
func (r ExtractionResult) CompletedStages() int {
	n := 0
	for _, done := range r.ProcessingStages {
		if done {
			n++
		}
	}
	return n
}

// ExtractionSummary is the subset returned by the extract-only endpoint.
type ExtractionSummary struct {
	ExtractedText    string  `json:"extractedText"`
	FileName         string  `json:"fileName"`
	FileSize         int64   `json:"fileSize"`
	ProcessingTime   float64 `json:"processingTime"`
	WordCount        int     `json:"wordCount"`
	CharacterCount   int     `json:"characterCount"`
	ExtractionMethod string  `json:"extractionMethod"`
	Error            string  `json:"error,omitempty"`
}

// Summarize projects the result onto the extract-only subset.
func (r ExtractionResult) Summarize() ExtractionSummary {
	return ExtractionSummary{
		ExtractedText:    r.ExtractedText,
		FileName:         r.FileName,
		FileSize:         r.FileSize,
		ProcessingTime:   r.ProcessingTime,
		WordCount:        r.WordCount,
		CharacterCount:   r.CharacterCount,
		ExtractionMethod: r.ExtractionMethod,
		Error:            r.Error,
	}
}
