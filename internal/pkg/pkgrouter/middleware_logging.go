package pkgrouter

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/julienschmidt/httprouter"
)

const maxLoggedBodyBytes = 16 * 1024

// Headers and body fields that are never logged in clear.
//
//nolint:gochecknoglobals // read-only lookup tables
var (
	secretHeaders = map[string]struct{}{
		"authorization": {},
		"cookie":        {},
		"set-cookie":    {},
	}
	// Account keys address a receiver for transfers; only their tail is logged.
	partialFields = map[string]struct{}{
		"key":         {},
		"account_key": {},
	}
)

func maskHeaders(headers http.Header) http.Header {
	result := headers.Clone()
	for key := range result {
		if _, found := secretHeaders[strings.ToLower(key)]; found {
			result.Set(key, "***")
		}
	}
	return result
}

func maskTail(s string) string {
	const keep = 4
	if len(s) <= keep {
		return "***"
	}
	return "***" + s[len(s)-keep:]
}

func maskData(v any) any {
	switch val := v.(type) {
	case map[string]any:
		masked := make(map[string]any, len(val))
		for k, v2 := range val {
			if _, found := partialFields[strings.ToLower(k)]; found {
				if s, ok := v2.(string); ok {
					masked[k] = maskTail(s)
					continue
				}
			}
			masked[k] = maskData(v2)
		}
		return masked
	case []any:
		res := make([]any, len(val))
		for i, v2 := range val {
			res[i] = maskData(v2)
		}
		return res
	default:
		return v
	}
}

// loggableBody decodes a JSON body for logging. Anything else is logged as
// text when it is valid UTF-8.
func loggableBody(body []byte, truncated bool) any {
	if len(body) == 0 {
		return nil
	}

	var out any
	if err := json.Unmarshal(body, &out); err == nil {
		out = maskData(out)
	} else if utf8.Valid(body) {
		out = string(body)
	} else {
		out = "<binary body omitted>"
	}

	if truncated {
		return map[string]any{"body": out, "truncated": true}
	}
	return out
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
	body   bytes.Buffer
	capped bool
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}

	if remaining := maxLoggedBodyBytes - w.body.Len(); remaining > 0 {
		if len(p) > remaining {
			w.body.Write(p[:remaining])
			w.capped = true
		} else {
			w.body.Write(p)
		}
	} else if len(p) > 0 {
		w.capped = true
	}

	n, err := w.ResponseWriter.Write(p)
	w.bytes += n
	return n, err
}

func (w *statusRecorder) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func matchedRoutePath(r *http.Request) string {
	if pattern := httprouter.ParamsFromContext(r.Context()).MatchedRoutePath(); pattern != "" {
		return pattern
	}
	return r.URL.Path
}

func levelForStatus(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// middlewareLogging logs every request and its response. The response
// record is logged at a level derived from the status code.
func middlewareLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := matchedRoutePath(r)
		start := time.Now()

		var reqBody []byte
		truncated := false
		if r.Body != nil {
			//nolint:errcheck // best effort for logging only
			reqBody, _ = io.ReadAll(io.LimitReader(r.Body, maxLoggedBodyBytes+1))
			rest := r.Body
			if len(reqBody) > maxLoggedBodyBytes {
				truncated = true
			}
			r.Body = struct {
				io.Reader
				io.Closer
			}{io.MultiReader(bytes.NewReader(reqBody), rest), rest}
			if truncated {
				reqBody = reqBody[:maxLoggedBodyBytes]
			}
		}

		slog.InfoContext(r.Context(), "request received",
			"method", r.Method,
			"route", route,
			"path", r.URL.Path,
			"query", r.URL.RawQuery,
			"headers", maskHeaders(r.Header),
			"body", loggableBody(reqBody, truncated),
		)

		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}

		slog.Log(r.Context(), levelForStatus(status), "response sent",
			"method", r.Method,
			"route", route,
			"status", status,
			"bytes", rec.bytes,
			"latency_ms", time.Since(start).Milliseconds(),
			"body", loggableBody(rec.body.Bytes(), rec.capped),
		)
	})
}
