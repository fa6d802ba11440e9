package usecase

import (
	"net/url"
	"strings"

	"github.com/samber/lo"
)

// RequestMetadata is the request information captured into a link's analytics.
type RequestMetadata struct {
	UserAgent string
	SourceIP  string
	TraceID   string
}

// deriveAnalytics builds the analytics mapping of a new link. Header values come
// first and the long URL's query parameters are merged over them, so a query
// parameter named user_agent replaces the captured header.
func deriveAnalytics(meta RequestMetadata, longURL string) map[string]string {
	headers := make(map[string]string, 3)
	if meta.UserAgent != "" {
		headers["user_agent"] = meta.UserAgent
	}
	if meta.SourceIP != "" {
		headers["source_ip"] = meta.SourceIP
	}
	if meta.TraceID != "" {
		headers["xray_trace_id"] = meta.TraceID
	}

	return lo.Assign(headers, queryParams(longURL))
}

// queryParams returns the last non-blank value of every query parameter in rawURL.
func queryParams(rawURL string) map[string]string {
	_, query, ok := strings.Cut(rawURL, "?")
	if !ok {
		return nil
	}
	query, _, _ = strings.Cut(query, "#")

	values, err := url.ParseQuery(query)
	if err != nil && len(values) == 0 {
		return nil
	}

	params := make(map[string]string, len(values))
	for key, vals := range values {
		for _, v := range vals {
			if strings.TrimSpace(v) != "" {
				params[key] = v
			}
		}
	}

	return params
}
