package pkgrouter

import (
	"context"
	"net/http"
	"strings"

	"github.com/shandysiswandi/goledger/internal/pkg/pkgerror"
	"github.com/shandysiswandi/goledger/internal/pkg/pkglog"
)

// Middleware wraps an http.Handler, typically to add cross-cutting behavior.
type Middleware func(http.Handler) http.Handler

// Chain applies middleware in order, returning the final wrapped handler.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// Generator generates a unique string (used for correlation/request IDs).
type Generator interface {
	Generate() string
}

const (
	// HeaderCorrelationID is the canonical header used to track requests end-to-end.
	HeaderCorrelationID = "X-Correlation-ID"
	// HeaderRequestID is an accepted alternative header name used by some proxies.
	HeaderRequestID = "X-Request-ID"
	// HeaderUserID carries the authenticated caller, set by the gateway in
	// front of this service.
	HeaderUserID = "X-User-ID"

	maxHeaderIDLen = 128
)

// headerID returns the trimmed header value, or "" when it is empty, too long
// or contains anything but printable ASCII.
func headerID(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || len(v) > maxHeaderIDLen {
		return ""
	}
	if strings.IndexFunc(v, func(r rune) bool { return r < 0x21 || r > 0x7e }) >= 0 {
		return ""
	}
	return v
}

func middlewareCorrelationID(uid Generator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cid := headerID(r.Header.Get(HeaderCorrelationID))
			if cid == "" {
				cid = headerID(r.Header.Get(HeaderRequestID))
			}
			if cid == "" && uid != nil {
				cid = uid.Generate()
			}

			if cid != "" {
				w.Header().Set(HeaderCorrelationID, cid)
				r = r.WithContext(pkglog.SetCorrelationID(r.Context(), cid))
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetUserID returns the acting user set by MiddlewareUserID, or "".
func GetUserID(ctx context.Context) string {
	return pkglog.GetUserID(ctx)
}

// MiddlewareUserID rejects requests without a caller identity and exposes the
// identity to handlers through GetUserID.
func (r *Router) MiddlewareUserID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			uid := headerID(req.Header.Get(HeaderUserID))
			if uid == "" {
				writeError(req.Context(), w, pkgerror.NewUnauthorized("missing caller identity"))
				return
			}

			next.ServeHTTP(w, req.WithContext(pkglog.SetUserID(req.Context(), uid)))
		})
	}
}
