// Package tappostmark extracts data from the Postmark email API and emits it
// as Singer messages.
//
// Eight streams are supported: daily outbound statistics (bounces,
// overview, platforms), per-day aggregates (bounces, platforms, email
// clients) and the message search endpoints (outbound messages, opens).
// Each stream is walked one day at a time from its bookmark, or the
// configured start date, up to today. A day's bookmark moves only after
// every record of that day was accepted by the destination, so a sync that
// stops half way resumes without losing data.
//
// # Quick Start
//
//	tap-postmark sync --config config.json --state state.json > out.singer
//
// with a config file such as
//
//	{"start_date": "2021-01-01", "postmark_server_token": "${POSTMARK_TOKEN}"}
//
// # Key Packages
//
//	internal/pipeline        - Extraction engine (day walking, bookmarks, retries)
//	pkg/schema               - Catalog, type coercion and record mapping
//	pkg/cleaners             - Per-stream payload normalization
//	pkg/daterange            - UTC day arithmetic
//	pkg/connector/sources    - Postmark API client
//	pkg/connector/destinations - singer (stdout), jsonl (file) and kafka outputs
//	pkg/state                - file, memory, s3 and gcs bookmark stores
//	pkg/config               - YAML/JSON configuration
//	pkg/errors               - Structured error handling
//	pkg/logger               - Structured logging
//	pkg/metrics              - Prometheus metrics
//
// # Configuration
//
// Only start_date and postmark_server_token are required. Everything else
// has a default; see pkg/config. TAP_POSTMARK_* environment variables and
// command line flags override the file, e.g. TAP_POSTMARK_STATE_BACKEND=s3.
package tappostmark
