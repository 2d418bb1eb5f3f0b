package pipeline

import (
	"time"
)

// StreamResult is the outcome of one stream.
type StreamResult struct {
	Stream string
	// Days is the number of days committed in this run
	Days    int
	Records int64
	// Bookmark is the last committed day, empty when none was committed
	Bookmark string
	Err      error
}

// Summary collects per-stream results of a run.
type Summary struct {
	StartedAt time.Time
	Duration  time.Duration
	Streams   []StreamResult
}

func newSummary(start time.Time) *Summary {
	return &Summary{StartedAt: start}
}

func (s *Summary) add(r StreamResult) {
	s.Streams = append(s.Streams, r)
}

// Records is the total number of records emitted.
func (s *Summary) Records() int64 {
	var n int64
	for _, r := range s.Streams {
		n += r.Records
	}
	return n
}

// Failed lists the streams that aborted.
func (s *Summary) Failed() []string {
	var out []string
	for _, r := range s.Streams {
		if r.Err != nil {
			out = append(out, r.Stream)
		}
	}
	return out
}
