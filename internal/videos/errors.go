package videos

import "errors"

var (
	// ErrProviderUnavailable indicates the search provider is not configured or
	// could not produce results.
	ErrProviderUnavailable = errors.New("video search provider unavailable")
	// ErrEmptyQuery indicates a search without any query text.
	ErrEmptyQuery = errors.New("search query is empty")
)
