package middleware

import (
	"net/http"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
)

type BrotliConfig struct {
	Quality   int
	MinLength int
	// SkipPaths are served uncompressed, e.g. /health for load balancer probes.
	SkipPaths []string
}

var DefaultBrotliConfig = BrotliConfig{
	Quality:   brotli.DefaultCompression,
	MinLength: 1024,
	SkipPaths: []string{"/health"},
}

// brotliWriter buffers until MinLength bytes are written. Short bodies and
// content types that do not compress well go out untouched.
type brotliWriter struct {
	gin.ResponseWriter
	pool      *sync.Pool
	writer    *brotli.Writer
	buf       []byte
	minLength int
	decided   bool
	compress  bool
}

func (bw *brotliWriter) Write(data []byte) (int, error) {
	if bw.decided {
		if bw.compress {
			return bw.writer.Write(data)
		}
		return bw.ResponseWriter.Write(data)
	}

	bw.buf = append(bw.buf, data...)
	if len(bw.buf) < bw.minLength {
		return len(data), nil
	}

	bw.decide(compressible(bw.ResponseWriter.Header().Get("Content-Type")))
	if err := bw.flushBuffer(); err != nil {
		return 0, err
	}
	return len(data), nil
}

func (bw *brotliWriter) WriteString(s string) (int, error) {
	return bw.Write([]byte(s))
}

func (bw *brotliWriter) decide(compress bool) {
	bw.decided = true
	bw.compress = compress
	if !compress {
		return
	}
	bw.writer = bw.pool.Get().(*brotli.Writer)
	bw.writer.Reset(bw.ResponseWriter)
	h := bw.ResponseWriter.Header()
	h.Set("Content-Encoding", "br")
	h.Del("Content-Length")
}

func (bw *brotliWriter) flushBuffer() error {
	if len(bw.buf) == 0 {
		return nil
	}
	var err error
	if bw.compress {
		_, err = bw.writer.Write(bw.buf)
	} else {
		_, err = bw.ResponseWriter.Write(bw.buf)
	}
	bw.buf = bw.buf[:0]
	return err
}

// Flush is called by streaming endpoints. Undecided output is sent plain.
func (bw *brotliWriter) Flush() {
	if !bw.decided {
		bw.decide(false)
	}
	_ = bw.flushBuffer()
	if bw.compress {
		_ = bw.writer.Flush()
	}
	bw.ResponseWriter.Flush()
}

// finish writes whatever is still buffered and returns the encoder to the pool.
func (bw *brotliWriter) finish() error {
	if !bw.decided {
		bw.decide(false)
	}
	err := bw.flushBuffer()
	if bw.compress {
		if cerr := bw.writer.Close(); err == nil {
			err = cerr
		}
		bw.writer.Reset(nil)
		bw.pool.Put(bw.writer)
	}
	return err
}

func Brotli() gin.HandlerFunc {
	return BrotliWithConfig(DefaultBrotliConfig)
}

func BrotliWithConfig(cfg BrotliConfig) gin.HandlerFunc {
	if cfg.Quality < 0 || cfg.Quality > 11 {
		cfg.Quality = brotli.DefaultCompression
	}
	if cfg.MinLength <= 0 {
		cfg.MinLength = DefaultBrotliConfig.MinLength
	}
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}
	pool := &sync.Pool{
		New: func() any { return brotli.NewWriterLevel(nil, cfg.Quality) },
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok || shouldSkip(c) || !acceptsBrotli(c.Request) {
			c.Next()
			return
		}

		c.Header("Vary", "Accept-Encoding")

		bw := &brotliWriter{
			ResponseWriter: c.Writer,
			pool:           pool,
			minLength:      cfg.MinLength,
		}
		defer func() {
			if err := bw.finish(); err != nil {
				_ = c.Error(err)
			}
		}()

		c.Writer = bw
		c.Next()
	}
}

// shouldSkip reports protocols that cannot go through a buffering writer.
func shouldSkip(c *gin.Context) bool {
	// SSE requires immediate streaming
	if strings.Contains(c.GetHeader("Accept"), "text/event-stream") {
		return true
	}
	// the websocket handshake fails if the response is wrapped
	return strings.EqualFold(c.GetHeader("Upgrade"), "websocket")
}

func compressible(contentType string) bool {
	ct := strings.ToLower(contentType)
	return ct == "" ||
		strings.HasPrefix(ct, "application/json") ||
		strings.HasPrefix(ct, "text/") ||
		strings.HasPrefix(ct, "application/yaml")
}

func acceptsBrotli(r *http.Request) bool {
	for _, enc := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		// "br;q=0.8" still accepts brotli
		name, _, _ := strings.Cut(strings.TrimSpace(enc), ";")
		if strings.EqualFold(name, "br") {
			return true
		}
	}
	return false
}
