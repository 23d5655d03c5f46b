package middleware

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

var logger = zap.NewNop().Sugar()

// SetLogger передаёт логгер в мидлвари. Вызывается один раз из main.
func SetLogger(l *zap.SugaredLogger) {
	logger = l
}

type responseData struct {
	status int
	size   int
}

// loggingResponseWriter перехватывает статус и размер ответа.
type loggingResponseWriter struct {
	http.ResponseWriter
	data *responseData
}

func (w *loggingResponseWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.data.size += n
	return n, err
}

func (w *loggingResponseWriter) WriteHeader(statusCode int) {
	w.ResponseWriter.WriteHeader(statusCode)
	w.data.status = statusCode
}

// WithLogging логирует метод, путь, статус, размер и длительность запроса.
func WithLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		data := &responseData{status: http.StatusOK}
		lw := &loggingResponseWriter{ResponseWriter: w, data: data}

		next.ServeHTTP(lw, r)

		logger.Infow("request",
			"method", r.Method,
			"uri", r.RequestURI,
			"status", data.status,
			"size", data.size,
			"duration", time.Since(start),
		)
	})
}
