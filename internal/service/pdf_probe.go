package service

import (
	"bytes"
	"fmt"

	"court-order-server/internal/domain"

	"github.com/gen2brain/go-fitz"
	"github.com/ledongthuc/pdf"
)

// PDFInfo is what can be learned about a PDF without the extraction engine.
type PDFInfo struct {
	PageCount int
	Title     string
	Author    string
}

// Metadata returns the discovered fields only.
func (i PDFInfo) Metadata() map[string]any {
	md := map[string]any{}
	if i.PageCount > 0 {
		md["pageCount"] = i.PageCount
	}
	if i.Title != "" {
		md["title"] = i.Title
	}
	if i.Author != "" {
		md["author"] = i.Author
	}
	return md
}

// PDFProbe reads page count and document info from PDF bytes. It feeds the
// fallback metadata reported when the engine fails.
type PDFProbe struct {
	logger domain.Logger
}

// NewPDFProbe creates a new PDF probe
func NewPDFProbe(logger domain.Logger) *PDFProbe {
	return &PDFProbe{logger: logger}
}

// Probe opens the document with MuPDF and falls back to the pure-Go reader
// for the page count when MuPDF refuses it.
func (p *PDFProbe) Probe(content []byte) (PDFInfo, error) {
	info, err := p.probeFitz(content)
	if err == nil {
		return info, nil
	}
	p.logger.Debug("MuPDF probe failed, trying fallback reader", "error", err.Error())

	pages, ferr := p.probePageCount(content)
	if ferr != nil {
		return PDFInfo{}, fmt.Errorf("failed to open PDF: %w", err)
	}
	return PDFInfo{PageCount: pages}, nil
}

func (p *PDFProbe) probeFitz(content []byte) (PDFInfo, error) {
	doc, err := fitz.NewFromMemory(content)
	if err != nil {
		return PDFInfo{}, err
	}
	defer doc.Close()

	info := PDFInfo{PageCount: doc.NumPage()}
	meta := doc.Metadata()
	if title, ok := meta["title"]; ok && title != "" {
		info.Title = title
	}
	if author, ok := meta["author"]; ok && author != "" {
		info.Author = author
	}
	return info, nil
}

func (p *PDFProbe) probePageCount(content []byte) (pages int, err error) {
	// The pure-Go reader panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf reader panic: %v", r)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return 0, err
	}
	return r.NumPage(), nil
}
