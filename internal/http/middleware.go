package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_storefront/internal/session"
	"github.com/fjod/go_storefront/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	SessionHeader = "X-Session-ID"
	SessionCookie = "sf_session"
)

type ctxKey int

const sessionKey ctxKey = iota

// RequestIDMiddleware echoes chi's request id back to the caller.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			w.Header().Set(middleware.RequestIDHeader, id)
		}
		next.ServeHTTP(w, r)
	})
}

// RouteSpanName renames the server span to the matched route pattern once routing is done,
// so /api/v1/products/1 and /api/v1/products/2 share one span name.
func RouteSpanName(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)

		rctx := chi.RouteContext(r.Context())
		if rctx == nil {
			return
		}
		if pattern := rctx.RoutePattern(); pattern != "" {
			trace.SpanFromContext(r.Context()).SetName(r.Method + " " + pattern)
		}
	})
}

// RequestLogger puts a request scoped logger into the context and logs every request when it completes.
func RequestLogger(base *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			l := logger.WithTrace(r.Context(), base)
			if id := middleware.GetReqID(r.Context()); id != "" {
				l = l.With(zap.String("request_id", id))
			}
			r = r.WithContext(logger.Into(r.Context(), l))

			defer func() {
				l.Info("http request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

// SessionMiddleware resolves the caller's session from the X-Session-ID header or the sf_session cookie.
// Unknown or missing ids get a new session; its id is echoed back in both places.
func SessionMiddleware(sessions *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(SessionHeader)
			if id == "" {
				if c, err := r.Cookie(SessionCookie); err == nil {
					id = c.Value
				}
			}

			sess, created := sessions.GetOrCreate(id)
			if created {
				logger.From(r.Context()).Debug("new session", zap.String("session_id", sess.ID))
			}

			w.Header().Set(SessionHeader, sess.ID)
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    sess.ID,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})

			ctx := context.WithValue(r.Context(), sessionKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionFromContext(ctx context.Context) *session.Session {
	if s, ok := ctx.Value(sessionKey).(*session.Session); ok {
		return s
	}
	return nil
}
