package filter

import (
	"runtime"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/saiset-co/sai-authchain/types"
	"github.com/saiset-co/sai-authchain/utils"
)

// RecoveryFilter turns a panic further down the chain into a 500 response.
type RecoveryFilter struct {
	logger     types.Logger
	metrics    types.MetricsManager
	stackTrace bool
}

func NewRecoveryFilter(logger types.Logger, metrics types.MetricsManager, stackTrace bool) *RecoveryFilter {
	return &RecoveryFilter{
		logger:     logger,
		metrics:    metrics,
		stackTrace: stackTrace,
	}
}

func (r *RecoveryFilter) Name() string { return "recovery" }

func (r *RecoveryFilter) DoFilter(ctx *fasthttp.RequestCtx, next types.FastHTTPHandler) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logPanic(ctx, rec)
			if r.metrics != nil {
				r.metrics.Counter("panics_recovered_total", nil).Inc()
			}
			ctx.Response.Reset()
			utils.CreateErrorResponse(ctx)
		}
	}()

	next(ctx)
}

func (r *RecoveryFilter) logPanic(ctx *fasthttp.RequestCtx, rec interface{}) {
	fields := []zap.Field{
		zap.Any("panic", rec),
		zap.ByteString("method", ctx.Method()),
		zap.ByteString("path", ctx.Path()),
	}

	if r.stackTrace {
		buf := make([]byte, 16384)
		n := runtime.Stack(buf, false)
		fields = append(fields, zap.ByteString("stack", buf[:n]))
	}

	if requestID := ctx.Request.Header.Peek("X-Request-ID"); len(requestID) > 0 {
		fields = append(fields, zap.ByteString("request_id", requestID))
	}

	r.logger.Error("Recovered from panic", fields...)
}
