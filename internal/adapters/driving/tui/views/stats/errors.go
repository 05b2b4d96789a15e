package stats

import "errors"

// ErrNoIngestService is reported when statistics are requested without an ingest service.
var ErrNoIngestService = errors.New("stats: ingest service not available")
