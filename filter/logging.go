package filter

import (
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/saiset-co/sai-authchain/types"
)

var sensitiveHeaders = map[string]bool{
	"authorization":       true,
	"admin-authorization": true,
	"api-authorization":   true,
	"cookie":              true,
	"set-cookie":          true,
}

var sensitiveParams = map[string]bool{
	AdminTokenParam:   true,
	ApiAccessKeyParam: true,
	"refresh_token":   true,
}

type LogFilter struct {
	logger     types.Logger
	logHeaders bool
}

func NewLogFilter(logger types.Logger, logHeaders bool) *LogFilter {
	return &LogFilter{
		logger:     logger,
		logHeaders: logHeaders,
	}
}

func (l *LogFilter) Name() string { return "log" }

func (l *LogFilter) DoFilter(ctx *fasthttp.RequestCtx, next types.FastHTTPHandler) {
	start := time.Now()

	l.logRequest(ctx)

	next(ctx)

	l.logResponse(ctx, time.Since(start))
}

func (l *LogFilter) logRequest(ctx *fasthttp.RequestCtx) {
	fields := []zap.Field{
		zap.String("method", string(ctx.Method())),
		zap.String("path", string(ctx.Path())),
		zap.String("remote_addr", remoteAddr(ctx)),
		zap.String("user_agent", string(ctx.UserAgent())),
	}

	if query := sanitizeQuery(ctx); query != "" {
		fields = append(fields, zap.String("query", query))
	}

	if requestID := string(ctx.Request.Header.Peek("X-Request-ID")); requestID != "" {
		fields = append(fields, zap.String("request_id", requestID))
	}

	if l.logHeaders {
		fields = append(fields, zap.Any("headers", sanitizeHeaders(ctx)))
	}

	l.logger.Info("Request started", fields...)
}

func (l *LogFilter) logResponse(ctx *fasthttp.RequestCtx, duration time.Duration) {
	fields := []zap.Field{
		zap.Duration("duration", duration),
		zap.String("method", string(ctx.Method())),
		zap.String("path", string(ctx.Path())),
		zap.Int("status", ctx.Response.StatusCode()),
	}

	if requestID := string(ctx.Request.Header.Peek("X-Request-ID")); requestID != "" {
		fields = append(fields, zap.String("request_id", requestID))
	}

	if user, ok := CurrentUser(ctx); ok {
		fields = append(fields, zap.String("user_id", user.ID))
	}

	switch status := ctx.Response.StatusCode(); {
	case status >= 500:
		l.logger.Error("Request completed", fields...)
	case status >= 400:
		l.logger.Warn("Request completed", fields...)
	default:
		l.logger.Info("Request completed", fields...)
	}
}

func sanitizeHeaders(ctx *fasthttp.RequestCtx) map[string]string {
	sanitized := make(map[string]string, 16)

	ctx.Request.Header.VisitAll(func(key, value []byte) {
		name := string(key)
		if sensitiveHeaders[strings.ToLower(name)] {
			sanitized[name] = "[REDACTED]"
		} else {
			sanitized[name] = string(value)
		}
	})

	return sanitized
}

func sanitizeQuery(ctx *fasthttp.RequestCtx) string {
	args := ctx.QueryArgs()
	if args.Len() == 0 {
		return ""
	}

	sanitized := fasthttp.AcquireArgs()
	defer fasthttp.ReleaseArgs(sanitized)

	args.VisitAll(func(key, value []byte) {
		if sensitiveParams[string(key)] {
			sanitized.SetBytesKV(key, []byte("[REDACTED]"))
		} else {
			sanitized.SetBytesKV(key, value)
		}
	})

	return sanitized.String()
}

func remoteAddr(ctx *fasthttp.RequestCtx) string {
	if forwarded := string(ctx.Request.Header.Peek("X-Forwarded-For")); forwarded != "" {
		if comma := strings.Index(forwarded, ","); comma > 0 {
			return strings.TrimSpace(forwarded[:comma])
		}
		return forwarded
	}

	if realIP := string(ctx.Request.Header.Peek("X-Real-IP")); realIP != "" {
		return realIP
	}

	return ctx.RemoteIP().String()
}
