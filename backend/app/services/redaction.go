package services

import (
	"encoding/json"
	"net/url"

	"compliance-feed/backend/app/dto"
)

// RedactedReplacementString replaces confidential values for untrusted callers.
const RedactedReplacementString = "Redacted"

var redactedSubject = json.RawMessage(`"` + RedactedReplacementString + `"`)

// ApplyRedaction gates the confidential fields of a response on a single
// trust decision. Trusted callers get the response unchanged. Untrusted
// callers get the subject, requester and context replaced, and the final
// destination reduced to a locator whose host is the marker.
func ApplyRedaction(resp dto.CommandStatusResponse, trusted bool) dto.CommandStatusResponse {
	if trusted {
		return resp
	}
	resp.Subject = redactedSubject
	resp.Requester = RedactedReplacementString
	resp.Context = RedactedReplacementString
	resp.FinalDestinationURI = redactDestination(resp.FinalDestinationURI)
	return resp
}

func redactDestination(raw string) string {
	if raw == "" {
		return ""
	}
	scheme := "https"
	if u, err := url.Parse(raw); err == nil && u.Scheme != "" {
		scheme = u.Scheme
	}
	return (&url.URL{Scheme: scheme, Host: RedactedReplacementString}).String()
}
