package middleware

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/orderly-pos/orderly/pkg/composables"
	"github.com/orderly-pos/orderly/pkg/constants"
	"github.com/orderly-pos/orderly/pkg/httpapi"
)

type LoggerOptions struct {
	LogRequestBody  bool
	LogResponseBody bool
	MaxBodyLength   int

	// Header names read for the request id and client address.
	RequestIDHeader string
	RealIPHeader    string
	// Fields whose values are replaced before request bodies are logged.
	RedactFields []string
	Repanic      bool
}

var defaultRedactFields = []string{"password", "token", "secret"}

func NewLoggerOptions(logRequestBody bool, logResponseBody bool, maxBodyLength int) LoggerOptions {
	return LoggerOptions{
		LogRequestBody:  logRequestBody,
		LogResponseBody: logResponseBody,
		MaxBodyLength:   maxBodyLength,
		RequestIDHeader: "X-Request-ID",
		RealIPHeader:    "X-Real-IP",
		RedactFields:    append([]string(nil), defaultRedactFields...),
	}
}

func DefaultLoggerOptions() LoggerOptions {
	return NewLoggerOptions(true, true, 512)
}

type responseCaptureWriter struct {
	http.ResponseWriter
	statusCode    int
	statusWritten bool
	// body is nil when response bodies are not logged.
	body      *bytes.Buffer
	limit     int
	truncated bool
}

func (w *responseCaptureWriter) WriteHeader(code int) {
	if !w.statusWritten {
		w.statusCode = code
		w.statusWritten = true
		w.ResponseWriter.WriteHeader(code)
	}
}

// Status returns the HTTP status code
func (w *responseCaptureWriter) Status() int {
	if w.statusCode == 0 {
		return http.StatusOK
	}
	return w.statusCode
}

func (w *responseCaptureWriter) Write(b []byte) (int, error) {
	if w.body != nil && !w.truncated {
		if remaining := w.limit - w.body.Len(); len(b) > remaining {
			w.body.Write(b[:max(remaining, 0)])
			w.truncated = true
		} else {
			w.body.Write(b)
		}
	}
	return w.ResponseWriter.Write(b)
}

func (w *responseCaptureWriter) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (w *responseCaptureWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := w.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, fmt.Errorf("underlying ResponseWriter does not implement http.Hijacker")
}

func wrapResponseWriter(w http.ResponseWriter, capture bool) *responseCaptureWriter {
	rw := &responseCaptureWriter{
		ResponseWriter: w,
		limit:          httpapi.MaxBodyBytes,
	}
	if capture {
		rw.body = &bytes.Buffer{}
	}
	return rw
}

// replayBody serves the buffered prefix of a request body followed by the
// unread remainder of the original.
type replayBody struct {
	io.Reader
	io.Closer
}

func getRealIP(r *http.Request, header string) string {
	if header != "" && len(r.Header.Get(header)) > 0 {
		return r.Header.Get(header)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func getRequestID(r *http.Request, header string) string {
	if header != "" && len(r.Header.Get(header)) > 0 {
		return r.Header.Get(header)
	}
	return uuid.New().String()
}

var tracer = otel.Tracer("orderly-middleware")

func TracedMiddleware(name string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			propagator := propagation.TraceContext{}
			ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

			ctx, span := tracer.Start(
				ctx,
				"middleware."+name,
				trace.WithAttributes(
					attribute.String("middleware.name", name),
					attribute.String("http.method", r.Method),
					attribute.String("http.url", redactQuery(r.URL, defaultRedactFields).String()),
					attribute.String("http.host", r.Host),
				),
			)
			defer span.End()

			propagator.Inject(ctx, propagation.HeaderCarrier(r.Header))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func formatHeaders(h http.Header) map[string]string {
	headers := make(map[string]string)
	for key, values := range h {
		if len(values) == 0 {
			continue
		}
		if isSensitiveHeader(key) {
			headers[key] = redacted
			continue
		}
		headers[key] = values[0]
	}
	return headers
}

const redacted = "[REDACTED]"

func isSensitiveHeader(key string) bool {
	switch http.CanonicalHeaderKey(key) {
	case "Authorization", "Cookie", "Set-Cookie":
		return true
	}
	return false
}

func isRedacted(key string, fields []string) bool {
	key = strings.ToLower(key)
	for _, f := range fields {
		if strings.Contains(key, f) {
			return true
		}
	}
	return false
}

func formatFormValues(f url.Values, fields []string) map[string]string {
	formValues := make(map[string]string)
	for key, values := range f {
		if isRedacted(key, fields) {
			formValues[key] = redacted
			continue
		}
		formValues[key] = strings.Join(values, ",")
	}
	return formValues
}

// redactQuery returns u with sensitive query parameters masked. u itself is not modified.
func redactQuery(u *url.URL, fields []string) *url.URL {
	if u.RawQuery == "" {
		return u
	}
	q := u.Query()
	changed := false
	for key := range q {
		if isRedacted(key, fields) {
			q[key] = []string{redacted}
			changed = true
		}
	}
	if !changed {
		return u
	}
	c := *u
	c.RawQuery = q.Encode()
	return &c
}

// logBody renders v for a log field, cut to limit bytes when limit > 0.
func logBody(v any, limit int) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	if limit > 0 && len(raw) > limit {
		return string(raw[:limit]) + "...(truncated)"
	}
	return string(raw)
}

func redactJSON(v any, fields []string) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			if isRedacted(k, fields) {
				t[k] = redacted
				continue
			}
			t[k] = redactJSON(val, fields)
		}
	case []any:
		for i := range t {
			t[i] = redactJSON(t[i], fields)
		}
	}
	return v
}

func shouldLogBody(contentType string) bool {
	contentType = strings.ToLower(contentType)
	return strings.Contains(contentType, "application/json") ||
		strings.Contains(contentType, "application/x-www-form-urlencoded")
}

func WithLogger(logger *logrus.Logger, opts LoggerOptions) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				start := time.Now()
				requestID := getRequestID(r, opts.RequestIDHeader)
				safeURL := redactQuery(r.URL, opts.RedactFields)

				fieldsLogger := logger.WithFields(logrus.Fields{
					"request-id": requestID,
					"path":       safeURL.RequestURI(),
					"method":     r.Method,
				})

				fieldsLogger.WithFields(logrus.Fields{
					"timestamp":       start.UnixNano(),
					"host":            r.Host,
					"ip":              getRealIP(r, opts.RealIPHeader),
					"user-agent":      r.UserAgent(),
					"request-headers": formatHeaders(r.Header),
				}).Info("request started")

				reqContentType := r.Header.Get("Content-Type")
				logReqBody := opts.LogRequestBody && shouldLogBody(reqContentType)
				isMutatingMethod := r.Method == http.MethodPost ||
					r.Method == http.MethodPut ||
					r.Method == http.MethodPatch ||
					r.Method == http.MethodDelete

				if isMutatingMethod && logReqBody && r.Body != nil {
					// Buffer at most what a handler accepts; the rest stays unread.
					bodyBuf := new(bytes.Buffer)
					n, err := io.Copy(bodyBuf, io.LimitReader(r.Body, httpapi.MaxBodyBytes+1))
					if err != nil {
						fieldsLogger.WithError(err).Error("failed to read request-body")
						http.Error(w, "failed to read request-body", http.StatusBadRequest)
						return
					}
					r.Body = replayBody{
						Reader: io.MultiReader(bytes.NewReader(bodyBuf.Bytes()), r.Body),
						Closer: r.Body,
					}
					switch {
					case n > httpapi.MaxBodyBytes:
						fieldsLogger.WithField("request-body-bytes", n).Warn("request-body too large to log")
					case strings.Contains(reqContentType, "application/json"):
						var jsonRequestBody any
						if err := json.Unmarshal(bodyBuf.Bytes(), &jsonRequestBody); err != nil {
							// The handler reports malformed bodies to the caller.
							fieldsLogger.WithError(err).Warn("failed to parse JSON request-body")
							break
						}
						fieldsLogger.WithField("request-body", logBody(redactJSON(jsonRequestBody, opts.RedactFields), opts.MaxBodyLength)).Info("JSON request-body parsed")
					case strings.Contains(reqContentType, "application/x-www-form-urlencoded"):
						if err := r.ParseForm(); err != nil {
							fieldsLogger.WithError(err).Error("failed to parse form-urlencoded request-body")
							http.Error(w, "failed to parse form-urlencoded request-body", http.StatusBadRequest)
							return
						}
						fieldsLogger.WithField("request-body", logBody(formatFormValues(r.Form, opts.RedactFields), opts.MaxBodyLength)).Info("form-urlencoded request-body parsed")
					default:
						fieldsLogger.WithField("request-body-bytes", bodyBuf.Len()).Info("request-body received")
					}
				}

				propagator := propagation.TraceContext{}
				ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

				ctx, span := tracer.Start(
					ctx,
					"http.request",
					trace.WithAttributes(
						attribute.String("http.method", r.Method),
						attribute.String("http.url", safeURL.String()),
						attribute.String("http.route", r.URL.Path),
						attribute.String("http.user_agent", r.UserAgent()),
						attribute.String("http.request_id", requestID),
						attribute.String("net.host.name", r.Host),
						attribute.String("net.peer.ip", getRealIP(r, opts.RealIPHeader)),
					),
				)
				defer span.End()

				propagator.Inject(ctx, propagation.HeaderCarrier(w.Header()))

				if spanContext := span.SpanContext(); spanContext.HasTraceID() {
					traceID := spanContext.TraceID().String()
					spanID := spanContext.SpanID().String()

					w.Header().Set("X-Trace-Id", traceID)
					w.Header().Set("X-Span-Id", spanID)

					fieldsLogger = fieldsLogger.WithFields(logrus.Fields{
						"trace-id": traceID,
						"span-id":  spanID,
					})
				}

				w.Header().Set("X-Request-Id", requestID)

				ctx = composables.WithLogger(ctx, fieldsLogger)
				ctx = context.WithValue(ctx, constants.RequestStart, start)

				wrappedWriter := wrapResponseWriter(w, opts.LogResponseBody)

				// Recover from panics, log them with full context, and return a stable response.
				defer func() {
					if recovered := recover(); recovered != nil {
						duration := time.Since(start)

						// Build comprehensive panic log fields
						panicFields := logrus.Fields{
							"panic":       recovered,
							"stack":       string(debug.Stack()),
							"method":      r.Method,
							"path":        r.URL.Path,
							"remote_addr": getRealIP(r, opts.RealIPHeader),
							"user_agent":  r.UserAgent(),
							"status":      http.StatusInternalServerError,
							"duration":    duration,
						}

						// Add query string if present
						if safeURL.RawQuery != "" {
							panicFields["query"] = safeURL.RawQuery
						}

						// Add content type if present
						if contentType := r.Header.Get("Content-Type"); contentType != "" {
							panicFields["content_type"] = contentType
						}

						fieldsLogger.WithFields(panicFields).Error("panic recovered in request handler")

						if !wrappedWriter.statusWritten {
							_ = httpapi.WriteError(wrappedWriter, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "internal server error", map[string]string{
								"request_id": requestID,
							})
						}

						if opts.Repanic {
							panic(recovered)
						}
					}
				}()

				next.ServeHTTP(wrappedWriter, r.WithContext(ctx))

				// Log the status code
				statusCode := wrappedWriter.Status()
				duration := time.Since(start)
				fieldsLogger.WithFields(logrus.Fields{
					"duration":         duration,
					"completed":        true,
					"status-code":      statusCode,
					"status-class":     statusCode / 100,
					"response-headers": formatHeaders(wrappedWriter.Header()),
				}).Info("request completed")

				span.SetAttributes(
					attribute.Int64("http.request_duration_ms", duration.Milliseconds()),
					attribute.Int("http.status_code", statusCode),
				)

				respContentType := wrappedWriter.Header().Get("Content-Type")
				if opts.LogResponseBody && shouldLogBody(respContentType) && !wrappedWriter.truncated {
					var parsed any
					if err := json.Unmarshal(wrappedWriter.body.Bytes(), &parsed); err == nil {
						fieldsLogger.WithField("response-body", logBody(redactJSON(parsed, opts.RedactFields), opts.MaxBodyLength)).Info("JSON response-body parsed")
					}
				}
			},
		)
	}
}
