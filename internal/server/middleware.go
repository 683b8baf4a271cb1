package server

import (
	"compress/gzip"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestLogger logs one structured line per request: method, path,
// status, response size and latency.
func RequestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		ctx.Next()

		log.Info("request completed",
			slog.String("method", ctx.Request.Method),
			slog.String("path", ctx.Request.URL.Path),
			slog.String("remote_addr", ctx.ClientIP()),
			slog.Int("status", ctx.Writer.Status()),
			slog.Int("bytes_written", ctx.Writer.Size()),
			slog.Duration("latency", time.Since(start)),
		)
	}
}

var nonCompressibleStatuses = map[int]bool{
	http.StatusNoContent:   true,
	http.StatusNotModified: true,
}

type gzipWriter struct {
	gin.ResponseWriter
	gz      *gzip.Writer
	decided bool
	skip    bool
}

func (w *gzipWriter) Write(data []byte) (int, error) {
	if !w.decided {
		w.decide()
	}
	if w.skip {
		return w.ResponseWriter.Write(data)
	}
	return w.gz.Write(data)
}

func (w *gzipWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

// decide runs on the first body write, once status and headers are known.
func (w *gzipWriter) decide() {
	w.decided = true
	if nonCompressibleStatuses[w.Status()] ||
		w.Header().Get("Content-Encoding") != "" ||
		!isCompressibleContentType(w.Header().Get("Content-Type")) {
		w.skip = true
		return
	}
	w.Header().Del("Content-Length")
	w.Header().Set("Content-Encoding", "gzip")
	w.gz = gzip.NewWriter(w.ResponseWriter)
}

func (w *gzipWriter) close() error {
	if w.gz == nil {
		return nil
	}
	return w.gz.Close()
}

// GzipResponse compresses response bodies when the client negotiates gzip
// via Accept-Encoding.
func GzipResponse() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.Request.Method == http.MethodHead {
			ctx.Next()
			return
		}
		if !strings.Contains(strings.ToLower(ctx.GetHeader("Accept-Encoding")), "gzip") {
			ctx.Next()
			return
		}

		ctx.Writer.Header().Add("Vary", "Accept-Encoding")

		gw := &gzipWriter{ResponseWriter: ctx.Writer}
		ctx.Writer = gw

		ctx.Next()

		if err := gw.close(); err != nil {
			_ = ctx.Error(err)
		}
	}
}

func isCompressibleContentType(ct string) bool {
	lower := strings.ToLower(ct)
	for _, prefix := range []string{
		"application/json",
		"application/xml",
		"application/javascript",
		"text/",
	} {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}
