package server

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
)

// maxEchoBody bounds the request body copied into the echo response.
const maxEchoBody = 64 << 10

// echoHandler answers with the request line, the headers and the body it
// received.
func echoHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Hello from keyport\r\n\r\n")
		fmt.Fprintf(&b, "%s %s %s\r\n", r.Method, r.URL.RequestURI(), r.Proto)
		fmt.Fprintf(&b, "Host: %s\r\n", r.Host)

		names := make([]string, 0, len(r.Header))
		for name := range r.Header {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			for _, v := range r.Header[name] {
				fmt.Fprintf(&b, "%s: %s\r\n", name, v)
			}
		}

		if r.TLS != nil {
			fmt.Fprintf(&b, "\r\nTLS: %s\r\n", tlsSummary(r))
		}

		if r.Body != nil {
			body, err := io.ReadAll(io.LimitReader(r.Body, maxEchoBody))
			if err != nil {
				http.Error(w, "failed to read request body", http.StatusBadRequest)
				return
			}
			if len(body) > 0 {
				b.WriteString("\r\n")
				b.Write(body)
			}
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if r.Method == http.MethodHead {
			return
		}
		_, _ = io.WriteString(w, b.String())
	}
}
