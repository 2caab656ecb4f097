// Package extract turns uploaded bid packet documents into raw page text.
package extract

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/gen2brain/go-fitz"
)

// Service extracts a document's text. Implementations return the page
// texts joined with form feeds so page boundaries survive into parsing.
type Service interface {
	Extract(ctx context.Context, document []byte) (string, error)
}

var defaultService atomic.Pointer[Service]

// Default returns the process-wide extraction service, constructing it on
// first use. A racing first use may construct twice and keep one; the
// duplicate is discarded, which costs nothing because construction has no
// side effects.
func Default() Service {
	if p := defaultService.Load(); p != nil {
		return *p
	}
	var svc Service = NewFitzService()
	defaultService.CompareAndSwap(nil, &svc)
	return *defaultService.Load()
}

// FitzService extracts text from PDF documents with MuPDF via go-fitz.
type FitzService struct{}

// NewFitzService creates a PDF extraction service.
func NewFitzService() *FitzService { return &FitzService{} }

// Extract pulls per-page text from the document in reading order. The
// context is checked between pages so a caller's deadline cuts a large
// document short.
func (s *FitzService) Extract(ctx context.Context, document []byte) (string, error) {
	doc, err := fitz.NewFromMemory(document)
	if err != nil {
		return "", fmt.Errorf("open document: %w", err)
	}
	defer doc.Close()

	pages := make([]string, 0, doc.NumPage())
	for i := 0; i < doc.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := doc.Text(i)
		if err != nil {
			return "", fmt.Errorf("extract page %d: %w", i+1, err)
		}
		pages = append(pages, text)
	}
	return strings.Join(pages, "\f"), nil
}

// TextService treats the document bytes as already-extracted text with
// form-feed page breaks. It serves pre-extracted inputs and tests.
type TextService struct{}

// NewTextService creates a passthrough extraction service.
func NewTextService() *TextService { return &TextService{} }

func (s *TextService) Extract(_ context.Context, document []byte) (string, error) {
	return string(document), nil
}
