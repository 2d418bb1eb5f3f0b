package core

import (
	"maps"

	"github.com/ajitpratap0/tap-postmark/pkg/daterange"
	"github.com/ajitpratap0/tap-postmark/pkg/errors"
	jsonpool "github.com/ajitpratap0/tap-postmark/pkg/json"
)

// Bookmark records the last fully extracted day of a stream.
type Bookmark struct {
	Date string `json:"date"`
}

// State is the persisted bookmark document:
//
//	{"bookmarks": {"messages_outbound": {"date": "2021-01-02"}}}
type State struct {
	Bookmarks map[string]Bookmark `json:"bookmarks"`
}

// NewState returns an empty state.
func NewState() *State {
	return &State{Bookmarks: map[string]Bookmark{}}
}

// ParseState decodes a state document. Empty input yields an empty state.
func ParseState(data []byte) (*State, error) {
	st := NewState()
	if len(data) == 0 {
		return st, nil
	}
	if err := jsonpool.Unmarshal(data, st); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeState, "failed to decode state")
	}
	if st.Bookmarks == nil {
		st.Bookmarks = map[string]Bookmark{}
	}
	for stream, bm := range st.Bookmarks {
		if _, err := daterange.ParseDay(bm.Date); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeState, "invalid bookmark").
				WithDetail(errors.DetailStream, stream)
		}
	}
	return st, nil
}

// Marshal encodes the state document.
func (s *State) Marshal() ([]byte, error) {
	if s.Bookmarks == nil {
		return []byte(`{"bookmarks":{}}`), nil
	}
	b, err := jsonpool.Marshal(s)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeState, "failed to encode state")
	}
	return b, nil
}

// Bookmark returns the stream's bookmarked day, if any.
func (s *State) Bookmark(stream string) (daterange.Day, bool) {
	if s == nil {
		return daterange.Day{}, false
	}
	bm, ok := s.Bookmarks[stream]
	if !ok {
		return daterange.Day{}, false
	}
	day, err := daterange.ParseDay(bm.Date)
	if err != nil {
		return daterange.Day{}, false
	}
	return day, true
}

// SetBookmark moves the stream's bookmark to day.
func (s *State) SetBookmark(stream string, day daterange.Day) {
	if s.Bookmarks == nil {
		s.Bookmarks = map[string]Bookmark{}
	}
	s.Bookmarks[stream] = Bookmark{Date: day.String()}
}

// Clone returns a deep copy safe to hand to another goroutine.
func (s *State) Clone() *State {
	if s == nil {
		return NewState()
	}
	return &State{Bookmarks: maps.Clone(s.Bookmarks)}
}
