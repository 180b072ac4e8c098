// ABOUTME: Request logging middleware for the admin server.
// ABOUTME: Emits component=web.server lines so admin traffic reads like the orchestrator's logs.
package web

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// requestLogger logs one line per request in the component=... key=value
// convention the rest of drafter uses. Health checks are skipped so a
// polling monitor does not drown out the interesting traffic.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		log.Printf("component=web.server action=request method=%s path=%s status=%d bytes=%d duration=%s remote=%s",
			r.Method,
			r.URL.Path,
			status,
			ww.BytesWritten(),
			time.Since(start).Round(time.Microsecond),
			r.RemoteAddr,
		)
	})
}
