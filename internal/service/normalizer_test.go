package service

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"court-order-server/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRequestContext() RequestContext {
	return RequestContext{
		Variant:         domain.PipelineComplete,
		File:            domain.FileDescriptor{Name: "order.pdf", Size: 4096, Type: "application/pdf"},
		UploadTimestamp: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Metadata:        map[string]any{"pageCount": 3},
		PageCount:       3,
	}
}

func assertSchemaComplete(t *testing.T, res domain.ExtractionResult) {
	t.Helper()
	raw, err := json.Marshal(res)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))

	for _, key := range []string{
		"extractedText", "metadata", "documentAnalysis", "processingStages",
		"extractionMethod", "wordCount", "characterCount", "processingTime",
		"fileName", "fileSize", "fileType", "structureAnalysis",
	} {
		v, ok := m[key]
		require.True(t, ok, "missing %s", key)
		require.NotNil(t, v, "null %s", key)
	}
	assert.NotEmpty(t, res.ExtractionMethod)
	assert.NotNil(t, res.DocumentAnalysis.KeyEntities)
	assert.Equal(t, "order.pdf", res.FileName)
	assert.Equal(t, int64(4096), res.FileSize)
	assert.Equal(t, "application/pdf", res.FileType)
	if res.Error != "" {
		assert.False(t, res.Success)
	}
}

func TestNormalize_AllOutcomesAreSchemaComplete(t *testing.T) {
	n := NewNormalizer(mustValidator(), false, NewMockLogger())
	outcomes := map[string]domain.Outcome{
		"start failure": {ExitCode: -1, StartFailed: true, StartError: errors.New("exec: not found")},
		"timeout":       {ExitCode: -1, TimedOut: true, Duration: time.Second},
		"exit error":    {ExitCode: 2, Stderr: "Traceback: boom"},
		"bad json":      {ExitCode: 0, Stdout: "not json"},
		"success":       {ExitCode: 0, Stdout: `{"extractedText":"hello world"}`},
	}
	for name, out := range outcomes {
		t.Run(name, func(t *testing.T) {
			assertSchemaComplete(t, n.Normalize(out, testRequestContext()))
		})
	}
}

func TestNormalize_StartFailure(t *testing.T) {
	n := NewNormalizer(mustValidator(), false, NewMockLogger())
	res := n.Normalize(domain.Outcome{ExitCode: -1, StartFailed: true, StartError: errors.New("exec: \"python3\": not found")}, testRequestContext())

	assert.Equal(t, domain.ExtractionMethodUnavailable, res.ExtractionMethod)
	assert.Contains(t, res.Error, "not available")
	assert.Equal(t, "", res.ExtractedText)
	assert.Zero(t, res.WordCount)
	assert.Zero(t, res.ProcessingTime)
}

func TestNormalize_TimeoutDiscardsStdout(t *testing.T) {
	n := NewNormalizer(mustValidator(), false, NewMockLogger())
	res := n.Normalize(domain.Outcome{ExitCode: -1, TimedOut: true, Stdout: `{"extractedText":"partial"}`}, testRequestContext())

	assert.Equal(t, domain.ExtractionMethodTimeout, res.ExtractionMethod)
	assert.Contains(t, res.Error, "timed out")
	assert.Empty(t, res.ExtractedText)
}

func TestNormalize_ExitErrorUsesStderrAndFileMetadataOnly(t *testing.T) {
	n := NewNormalizer(mustValidator(), false, NewMockLogger())
	res := n.Normalize(domain.Outcome{
		ExitCode: 1,
		Stdout:   `{"extractedText":"should not be used"}`,
		Stderr:   "  ModuleNotFoundError: paddleocr \n",
	}, testRequestContext())

	assert.Equal(t, domain.ExtractionMethodFallback, res.ExtractionMethod)
	assert.Contains(t, res.Error, "ModuleNotFoundError: paddleocr")
	assert.Contains(t, res.Error, "code 1")
	assert.Empty(t, res.ExtractedText)
	assert.Equal(t, domain.DocumentTypeTextBased, res.DocumentType)
	assert.Equal(t, 3, res.PageCount)
	assert.Equal(t, 3, res.Metadata["pageCount"])
}

func TestNormalize_ExtractVariantMethods(t *testing.T) {
	n := NewNormalizer(mustValidator(), false, NewMockLogger())
	rc := testRequestContext()
	rc.Variant = domain.PipelineExtract

	assert.Equal(t, "Failed", n.Normalize(domain.Outcome{ExitCode: 1}, rc).ExtractionMethod)
	assert.Equal(t, "Basic", n.Normalize(domain.Outcome{Stdout: "plain words"}, rc).ExtractionMethod)
}

func TestNormalize_ParseFailurePreview(t *testing.T) {
	n := NewNormalizer(mustValidator(), false, NewMockLogger())
	stdout := strings.Repeat("é ", 800) // 1600 runes

	res := n.Normalize(domain.Outcome{ExitCode: 0, Stdout: stdout}, testRequestContext())

	require.NotEmpty(t, res.Error)
	assert.Contains(t, res.Error, "invalid JSON")
	assert.Equal(t, 1000, CountCharacters(res.ExtractedText))
	assert.Equal(t, 500, res.WordCount)
	assert.Equal(t, 1000, res.CharacterCount)
	assert.False(t, res.Success)
}

func TestNormalize_SchemaViolationIsParseFailure(t *testing.T) {
	n := NewNormalizer(mustValidator(), false, NewMockLogger())
	res := n.Normalize(domain.Outcome{Stdout: `{"extractedText": 42}`}, testRequestContext())

	assert.NotEmpty(t, res.Error)
	assert.Equal(t, `{"extractedText": 42}`, res.ExtractedText)
}

func TestNormalize_NonObjectJSONIsParseFailure(t *testing.T) {
	n := NewNormalizer(mustValidator(), false, NewMockLogger())
	res := n.Normalize(domain.Outcome{Stdout: `["a","b"]`}, testRequestContext())

	assert.NotEmpty(t, res.Error)
}

func TestNormalize_SuccessMerge(t *testing.T) {
	n := NewNormalizer(mustValidator(), false, NewMockLogger())
	stdout := `{
		"extractedText": "The petition is dismissed",
		"summary": "Petition dismissed.",
		"fileName": "engine-name.pdf",
		"fileSize": 1,
		"metadata": {"court": "High Court"},
		"pageCount": 4,
		"documentAnalysis": {"type": "Bail Order", "confidence": 1.7, "keyEntities": {"judges": ["A. Judge"], "sections": [439, {"act": "CrPC"}]}},
		"processingStages": {"text_extraction": true, "ocr": true},
		"extractionMethod": "PyMuPDF"
	}`

	res := n.Normalize(domain.Outcome{ExitCode: 0, Stdout: stdout, Duration: 1500 * time.Millisecond}, testRequestContext())

	assert.Empty(t, res.Error)
	assert.True(t, res.Success)
	assert.Equal(t, "The petition is dismissed", res.ExtractedText)
	assert.Equal(t, "Petition dismissed.", res.Summary)
	assert.Equal(t, "order.pdf", res.FileName, "file name comes from the request")
	assert.Equal(t, int64(4096), res.FileSize)
	assert.Equal(t, "2024-01-02T03:04:05Z", res.UploadTimestamp)
	assert.Equal(t, "High Court", res.Metadata["court"])
	assert.Equal(t, 4, res.PageCount)
	assert.Equal(t, "Bail Order", res.DocumentAnalysis.Type)
	assert.Equal(t, 1.0, res.DocumentAnalysis.Confidence)
	assert.Equal(t, "unknown", res.DocumentAnalysis.Complexity)
	assert.Equal(t, []string{"A. Judge"}, res.DocumentAnalysis.KeyEntities["judges"])
	assert.Equal(t, []string{"439", `{"act":"CrPC"}`}, res.DocumentAnalysis.KeyEntities["sections"])
	assert.True(t, res.ProcessingStages["text_extraction"])
	assert.True(t, res.ProcessingStages["ocr"])
	assert.False(t, res.ProcessingStages["summarization"])
	assert.Equal(t, "PyMuPDF", res.ExtractionMethod)
	assert.Equal(t, 4, res.WordCount, "missing counts are recomputed")
	assert.Equal(t, 25, res.CharacterCount)
	assert.InDelta(t, 1.5, res.ProcessingTime, 0.001)
}

func TestNormalize_EngineReportedError(t *testing.T) {
	n := NewNormalizer(mustValidator(), false, NewMockLogger())
	res := n.Normalize(domain.Outcome{Stdout: `{"extractedText":"part","success":true,"error":"OCR failed on page 2"}`}, testRequestContext())

	assert.Equal(t, "OCR failed on page 2", res.Error)
	assert.False(t, res.Success)
	assert.Equal(t, "part", res.ExtractedText)
}

func TestNormalize_NullErrorIsNotFailure(t *testing.T) {
	n := NewNormalizer(mustValidator(), false, NewMockLogger())
	res := n.Normalize(domain.Outcome{Stdout: `{"extractedText":"ok","error":null,"summary":null}`}, testRequestContext())

	assert.Empty(t, res.Error)
	assert.True(t, res.Success)
}

func TestNormalize_LenientSalvage(t *testing.T) {
	noisy := "Loading model...\n{\"extractedText\":\"salvaged\"}\nDone.\n"

	strict := NewNormalizer(mustValidator(), false, NewMockLogger())
	assert.NotEmpty(t, strict.Normalize(domain.Outcome{Stdout: noisy}, testRequestContext()).Error)

	lenient := NewNormalizer(mustValidator(), true, NewMockLogger())
	res := lenient.Normalize(domain.Outcome{Stdout: noisy}, testRequestContext())
	assert.Empty(t, res.Error)
	assert.Equal(t, "salvaged", res.ExtractedText)
}

func TestNormalize_ScannedDocumentType(t *testing.T) {
	n := NewNormalizer(mustValidator(), false, NewMockLogger())
	rc := testRequestContext()
	rc.File = domain.FileDescriptor{Name: "scan.png", Size: 10, Type: "image/png"}

	res := n.Normalize(domain.Outcome{ExitCode: 1}, rc)
	assert.Equal(t, domain.DocumentTypeScanned, res.DocumentType)
}
