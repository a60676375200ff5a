package filter

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

func TestRequestIDFilter(t *testing.T) {
	f := NewRequestIDFilter()

	ctx := newCtx("GET", "/api/posts")
	var seen string
	f.DoFilter(ctx, func(ctx *fasthttp.RequestCtx) {
		seen = string(ctx.Request.Header.Peek(RequestIDHeader))
	})

	_, err := uuid.Parse(seen)
	require.NoError(t, err)
	assert.Equal(t, seen, RequestID(ctx))
	assert.Equal(t, seen, string(ctx.Response.Header.Peek(RequestIDHeader)))

	ctx = newCtx("GET", "/api/posts")
	ctx.Request.Header.Set(RequestIDHeader, "req-1")
	f.DoFilter(ctx, func(*fasthttp.RequestCtx) {})
	assert.Equal(t, "req-1", RequestID(ctx))
	assert.Equal(t, "req-1", string(ctx.Response.Header.Peek(RequestIDHeader)))
}
