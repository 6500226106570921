package relay

import (
	"errors"
	"fmt"
)

var (
	// ErrConfigurationMissing means no provider settings are stored. The
	// gateway fails before attempting any network call.
	ErrConfigurationMissing = errors.New("provider settings not configured")

	ErrProviderTimeout = errors.New("provider request timed out")

	ErrProviderResponseInvalid = errors.New("provider returned an unexpected response shape")
)

// ProviderRequestError reports a non-2xx status from the provider. The
// message is built from the status code alone; upstream error bodies are
// never echoed, so credentials and provider internals cannot leak across
// the boundary.
type ProviderRequestError struct {
	StatusCode int
}

func (e *ProviderRequestError) Error() string {
	return fmt.Sprintf("provider request failed with status %d", e.StatusCode)
}
