package router

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/digitalindian/service-site-api/internal/admin"
	"github.com/digitalindian/service-site-api/internal/blog"
	"github.com/digitalindian/service-site-api/internal/chatbot"
	"github.com/digitalindian/service-site-api/internal/contact"
	"github.com/digitalindian/service-site-api/internal/subscriber"
)

// loggingResponseWriter wraps http.ResponseWriter to capture status and size.
type loggingResponseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.status = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	if lrw.status == 0 {
		lrw.status = http.StatusOK
	}
	n, err := lrw.ResponseWriter.Write(b)
	lrw.size += n
	return n, err
}

// LoggingMiddleware logs requests at debug level using the provided
// sugared logger.
func LoggingMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lrw := &loggingResponseWriter{ResponseWriter: w}
			next.ServeHTTP(lrw, r)
			dur := time.Since(start)
			status := lrw.status
			if status == 0 {
				status = http.StatusOK
			}
			logger.Debugw("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
				"status", status,
				"duration_ms", float64(dur.Microseconds())/1000.0,
				"size", lrw.size,
			)
		})
	}
}

// SecurityHeadersMiddleware sets common HTTP security headers.
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "no-referrer-when-downgrade")
			if r.TLS != nil {
				w.Header().Set("Strict-Transport-Security", "max-age=2592000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Handlers collects every endpoint group the router mounts.
type Handlers struct {
	Subscriber *subscriber.Handler
	Blog       *blog.Handler
	Contact    *contact.Handler
	Chatbot    *chatbot.Handler
	Admin      *admin.Handler
}

// RegisterRoutes mounts HTTP handlers on the standard library's
// http.ServeMux, wrapped with security headers and request logging.
func RegisterRoutes(logger *zap.SugaredLogger, h Handlers) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("POST /api/subscribe", h.Subscriber.Subscribe)

	mux.HandleFunc("GET /api/posts", h.Blog.List)
	mux.HandleFunc("GET /api/posts/{slug}", h.Blog.Get)
	mux.HandleFunc("POST /api/posts", h.Admin.RequireAdmin(h.Blog.Create))
	mux.HandleFunc("PUT /api/posts/{slug}", h.Admin.RequireAdmin(h.Blog.Update))
	mux.HandleFunc("DELETE /api/posts/{slug}", h.Admin.RequireAdmin(h.Blog.Delete))

	mux.HandleFunc("GET /api/token", h.Contact.Token)
	mux.HandleFunc("POST /api/send-email", h.Contact.SendEmail)

	mux.HandleFunc("POST /api/chat", h.Chatbot.Chat)

	mux.HandleFunc("POST /api/login", h.Admin.Login)

	handler := LoggingMiddleware(logger)(SecurityHeadersMiddleware()(mux))
	return handler
}
