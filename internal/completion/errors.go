package completion

import (
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"invoicex/internal/domain"
)

// ProviderError wraps any failure talking to the AI provider: transport,
// authentication, timeout, rate limiting or a malformed response.
// It matches domain.ErrExtractionFailed under errors.Is.
type ProviderError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s request failed (status %d): %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s request failed: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Is lets callers test for the extraction failure category.
func (e *ProviderError) Is(target error) bool {
	return target == domain.ErrExtractionFailed
}

// IsRateLimited reports whether the provider answered 429.
func (e *ProviderError) IsRateLimited() bool {
	return e.StatusCode == 429
}

func newProviderError(provider string, err error) *ProviderError {
	pe := &ProviderError{Provider: provider, Err: err}
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		pe.StatusCode = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		pe.StatusCode = reqErr.HTTPStatusCode
	}
	return pe
}
