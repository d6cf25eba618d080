// Package server exposes a scanned cache over HTTP: album documents and
// thumbnails from the cache root, original files from the album root, and
// Prometheus metrics.
package server

import (
	"net/http"
	"time"

	"media-scanner/internal/logging"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// New builds the router. The layout matches what the cache documents
// reference: /cache/<doc>.json and /cache/thumbs/... next to /albums/<path>
// for the originals.
func New(albumRoot, cacheRoot string) *mux.Router {
	r := mux.NewRouter()
	r.Use(requestLogging)

	r.Handle("/metrics", promhttp.Handler())
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.PathPrefix("/cache/").Handler(
		http.StripPrefix("/cache/", http.FileServer(http.Dir(cacheRoot))))
	r.PathPrefix("/albums/").Handler(
		http.StripPrefix("/albums/", http.FileServer(http.Dir(albumRoot))))

	return r
}

type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

func requestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		logging.Debug("%s %s %d %v", r.Method, r.URL.Path, rw.statusCode, time.Since(start).Round(time.Microsecond))
	})
}

// ListenAndServe runs the server with conservative timeouts.
func ListenAndServe(addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  2 * time.Minute,
	}
	logging.Info("serving on %s", addr)
	return srv.ListenAndServe()
}
