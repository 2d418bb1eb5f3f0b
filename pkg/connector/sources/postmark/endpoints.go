package postmark

import (
	"slices"
)

// Endpoint describes where a stream's daily payload comes from.
type Endpoint struct {
	Path string
	// ListKey is set for the message endpoints, which are paged with
	// count and offset and return their items under this key.
	ListKey string
}

// Paged reports whether the endpoint needs count/offset paging.
func (e Endpoint) Paged() bool { return e.ListKey != "" }

var endpoints = map[string]Endpoint{
	"stats_outbound_bounces":  {Path: "/stats/outbound/bounces"},
	"stats_outbound_overview": {Path: "/stats/outbound"},
	"stats_outbound_platform": {Path: "/stats/outbound/opens/platforms"},
	"outbound_bounces":        {Path: "/stats/outbound/bounces"},
	"outbound_platform":       {Path: "/stats/outbound/opens/platforms"},
	"outbound_clients":        {Path: "/stats/outbound/opens/emailclients"},
	"messages_outbound":       {Path: "/messages/outbound", ListKey: "Messages"},
	"messages_opens":          {Path: "/messages/outbound/opens", ListKey: "Opens"},
}

// EndpointFor returns the endpoint serving stream.
func EndpointFor(stream string) (Endpoint, bool) {
	ep, ok := endpoints[stream]
	return ep, ok
}

// Streams lists every stream the API client can fetch, sorted.
func Streams() []string {
	out := make([]string, 0, len(endpoints))
	for name := range endpoints {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}
