package handlers

import (
	"mime"
	"net/http"
	"strings"
)

// OutputFormat is the representation a presentation view responds with.
type OutputFormat int

const (
	FormatHTML OutputFormat = iota
	FormatJSON
)

func (f OutputFormat) String() string {
	if f == FormatJSON {
		return "json"
	}
	return "html"
}

// Negotiate picks the output format once per request. Clients asking for
// application/json in Accept (or ?format=json) get JSON; everyone else HTML.
func Negotiate(r *http.Request) OutputFormat {
	if r.URL.Query().Get("format") == "json" {
		return FormatJSON
	}
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mt, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err == nil && mt == "application/json" {
			return FormatJSON
		}
	}
	return FormatHTML
}

