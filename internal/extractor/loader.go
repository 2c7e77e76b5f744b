package extractor

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"strings"
	"unicode/utf8"

	"github.com/gen2brain/go-fitz"
	"golang.org/x/image/tiff"

	"invoicex/internal/domain"
	"invoicex/internal/port"
)

// DefaultMaxTextChars bounds the document text handed to the provider.
const DefaultMaxTextChars = 8000

// PDFTextFunc returns the text of every page of a PDF, in page order.
type PDFTextFunc func(data []byte) ([]string, error)

// Loader reads stored documents and turns them into provider payloads.
type Loader struct {
	store        port.DocumentStore
	maxTextChars int
	pdfText      PDFTextFunc
}

// LoaderOption customizes a Loader.
type LoaderOption func(*Loader)

// WithPDFText replaces the PDF text extractor.
func WithPDFText(fn PDFTextFunc) LoaderOption {
	return func(l *Loader) { l.pdfText = fn }
}

// NewLoader creates a Loader reading from store. A non-positive
// maxTextChars falls back to DefaultMaxTextChars.
func NewLoader(store port.DocumentStore, maxTextChars int, opts ...LoaderOption) *Loader {
	if maxTextChars <= 0 {
		maxTextChars = DefaultMaxTextChars
	}
	l := &Loader{store: store, maxTextChars: maxTextChars, pdfText: fitzPages}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Classify returns the payload kind for a filename, by case-insensitive extension.
func Classify(filename string) (port.PayloadKind, error) {
	ft, ok := domain.FileTypeOf(filename)
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedDocument, filename)
	}
	if ft.IsImage() {
		return port.PayloadImage, nil
	}
	return port.PayloadText, nil
}

// Load reads the document at location and returns its text or image payload.
func (l *Loader) Load(ctx context.Context, location string) (port.DocumentPayload, error) {
	kind, err := Classify(location)
	if err != nil {
		return port.DocumentPayload{}, err
	}

	data, err := l.store.Read(ctx, location)
	if err != nil {
		return port.DocumentPayload{}, fmt.Errorf("%w: %v", domain.ErrDocumentUnreadable, err)
	}

	if kind == port.PayloadText {
		pages, err := l.pdfText(data)
		if err != nil {
			return port.DocumentPayload{}, fmt.Errorf("%w: reading pdf: %v", domain.ErrDocumentUnreadable, err)
		}
		text := truncateRunes(strings.Join(pages, "\n"), l.maxTextChars)
		return port.DocumentPayload{Kind: port.PayloadText, Text: text}, nil
	}

	ft, _ := domain.FileTypeOf(location)
	if ft == domain.FileTypeTIFF {
		converted, err := tiffToPNG(data)
		if err != nil {
			return port.DocumentPayload{}, fmt.Errorf("%w: converting tiff: %v", domain.ErrDocumentUnreadable, err)
		}
		return port.DocumentPayload{Kind: port.PayloadImage, Image: converted, MIMEType: "image/png"}, nil
	}
	return port.DocumentPayload{Kind: port.PayloadImage, Image: data, MIMEType: domain.AllowedFileTypes[ft]}, nil
}

func fitzPages(data []byte) ([]string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	pages := make([]string, 0, doc.NumPage())
	for n := 0; n < doc.NumPage(); n++ {
		text, err := doc.Text(n)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", n+1, err)
		}
		pages = append(pages, text)
	}
	return pages, nil
}

// tiffToPNG re-encodes a TIFF image; chat completion APIs reject TIFF attachments.
func tiffToPNG(data []byte) ([]byte, error) {
	img, err := tiff.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
