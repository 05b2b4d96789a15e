package ask

import "errors"

// ErrNoQueryService is returned when a question is asked without a query service.
var ErrNoQueryService = errors.New("ask: query service not available")
