package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/saiset-co/sai-authchain/types"
)

func newCtx(method, uri string, body []byte) *fasthttp.RequestCtx {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.Header.SetMethod(method)
	req.SetRequestURI(uri)
	if body != nil {
		req.SetBody(body)
		req.Header.SetContentType("application/json")
	}

	ctx := &fasthttp.RequestCtx{}
	ctx.Init(req, nil, nil)
	return ctx
}

func TestRouter_Handle(t *testing.T) {
	router := NewRouter()
	hit := ""
	require.NoError(t, router.GET("/health", func(ctx *fasthttp.RequestCtx) { hit = "health" }))
	require.NoError(t, router.Group("/admin/api/").POST("/login", func(ctx *fasthttp.RequestCtx) { hit = "login" }))

	router.Handle(newCtx(fasthttp.MethodGet, "/health", nil))
	assert.Equal(t, "health", hit)

	ctx := newCtx(fasthttp.MethodGet, "/health/", nil)
	router.Handle(ctx)
	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())

	router.Handle(newCtx(fasthttp.MethodPost, "/admin/api/login", nil))
	assert.Equal(t, "login", hit)

	ctx = newCtx(fasthttp.MethodGet, "/admin/api/login", nil)
	router.Handle(ctx)
	assert.Equal(t, fasthttp.StatusMethodNotAllowed, ctx.Response.StatusCode())

	ctx = newCtx(fasthttp.MethodGet, "/missing", nil)
	router.Handle(ctx)
	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())
}

func TestRouter_AddErrors(t *testing.T) {
	router := NewRouter()

	assert.ErrorIs(t, router.Add("BREW", "/coffee", func(*fasthttp.RequestCtx) {}), types.ErrInvalidParameter)
	assert.ErrorIs(t, router.GET("/coffee", nil), types.ErrHandlerIsNil)
}
