package utils

import (
	"github.com/valyala/fasthttp"
)

const contentTypeJSON = "application/json; charset=utf-8"

func SetNoCacheHeaders(ctx *fasthttp.RequestCtx) {
	ctx.Response.Header.Set("Cache-Control", "no-cache, no-store, must-revalidate")
	ctx.Response.Header.Set("Pragma", "no-cache")
	ctx.Response.Header.Set("Expires", "0")

	if requestID := ctx.Request.Header.Peek("X-Request-ID"); len(requestID) > 0 {
		ctx.Response.Header.SetBytesV("X-Request-ID", requestID)
	}
}

func WriteJSON(ctx *fasthttp.RequestCtx, status int, body []byte) {
	ctx.SetStatusCode(status)
	ctx.SetContentType(contentTypeJSON)
	ctx.SetBody(body)
}

func RespondJSON(ctx *fasthttp.RequestCtx, status int, data interface{}) {
	body, err := Marshal(data)
	if err != nil {
		CreateErrorResponse(ctx)
		return
	}
	WriteJSON(ctx, status, body)
}

func CreateErrorResponse(ctx *fasthttp.RequestCtx) {
	SetNoCacheHeaders(ctx)
	WriteJSON(ctx, fasthttp.StatusInternalServerError,
		[]byte(`{"status":500,"kind":"InternalError","message":"An unexpected error occurred"}`))
}

func CreateBadRequestResponse(ctx *fasthttp.RequestCtx, message string) {
	RespondJSON(ctx, fasthttp.StatusBadRequest, map[string]interface{}{
		"status":  fasthttp.StatusBadRequest,
		"message": message,
	})
}
