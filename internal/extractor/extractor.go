package extractor

import (
	"context"

	"go.uber.org/zap"

	"invoicex/internal/domain"
	"invoicex/internal/port"
)

// Extractor runs load, prompt, completion and parse for one stored document.
type Extractor struct {
	loader port.DocumentLoader
	client port.CompletionClient
	log    *zap.Logger
}

// New creates an Extractor.
func New(loader port.DocumentLoader, client port.CompletionClient, log *zap.Logger) *Extractor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Extractor{loader: loader, client: client, log: log}
}

// Extract returns the extracted fields and their confidence. Load and
// provider errors are returned unchanged; an unparseable completion is not
// an error and comes back as an empty record with zero confidence.
func (e *Extractor) Extract(ctx context.Context, location string) (*domain.ExtractedData, float64, error) {
	payload, err := e.loader.Load(ctx, location)
	if err != nil {
		e.log.Warn("extractor.Extract: load failed", zap.String("location", location), zap.Error(err))
		return nil, 0, err
	}

	raw, err := e.client.Complete(ctx, payload, BuildExtractionPrompt())
	if err != nil {
		e.log.Warn("extractor.Extract: completion failed", zap.String("location", location), zap.Error(err))
		return nil, 0, err
	}

	data, confidence := ParseResponse(raw)
	if confidence == ConfidenceUnparsed {
		e.log.Warn("extractor.Extract: completion is not a JSON object",
			zap.String("location", location),
			zap.String("raw", truncateRunes(raw, 500)))
	} else {
		e.log.Debug("extractor.Extract: fields extracted",
			zap.String("location", location),
			zap.String("payload_kind", string(payload.Kind)))
	}
	return data, confidence, nil
}
