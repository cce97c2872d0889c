package core

import (
	"net/http"
)

// HeadersJSON is applied to every response from the submission endpoint.
var HeadersJSON = map[string]string{
	"Content-Type": "application/json; charset=utf-8",

	// mitigate MIME-type sniffing attacks
	"X-Content-Type-Options": "nosniff",

	// responses carry fraud signals and PII; never cache them
	"Cache-Control": "no-store, no-cache, must-revalidate",

	// the endpoint is never meant to be framed
	"X-Frame-Options": "DENY",

	// reinforces that this is never an active document, even though
	// JSON responses aren't directly scriptable
	"Content-Security-Policy": "default-src 'none'; frame-ancestors 'none'",
}

// setHeaders applies one or more sets of headers to the response writer.
// Headers from later maps overwrite headers from earlier maps on conflict.
func setHeaders(w http.ResponseWriter, headers ...map[string]string) {
	for _, headerMap := range headers {
		for key, value := range headerMap {
			w.Header().Set(key, value)
		}
	}
}
