package filter

import (
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"github.com/saiset-co/sai-authchain/types"
)

const (
	RequestIDHeader = "X-Request-ID"
	requestIDKey    = "sai.request_id"
)

// RequestIDFilter makes sure every request carries an X-Request-ID. A
// missing id is generated and written back on the request so failure
// responses echo it.
type RequestIDFilter struct{}

func NewRequestIDFilter() *RequestIDFilter {
	return &RequestIDFilter{}
}

func (RequestIDFilter) Name() string { return "request_id" }

func (RequestIDFilter) DoFilter(ctx *fasthttp.RequestCtx, next types.FastHTTPHandler) {
	requestID := string(ctx.Request.Header.Peek(RequestIDHeader))
	if requestID == "" {
		requestID = uuid.NewString()
		ctx.Request.Header.Set(RequestIDHeader, requestID)
	}

	ctx.SetUserValue(requestIDKey, requestID)

	next(ctx)

	ctx.Response.Header.Set(RequestIDHeader, requestID)
}

func RequestID(ctx *fasthttp.RequestCtx) string {
	requestID, _ := ctx.UserValue(requestIDKey).(string)
	return requestID
}
