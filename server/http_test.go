package server

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"github.com/saiset-co/sai-authchain/logger"
	"github.com/saiset-co/sai-authchain/types"
)

func TestFastHTTPServer_Lifecycle(t *testing.T) {
	router := NewRouter()
	require.NoError(t, router.GET("/ping", func(ctx *fasthttp.RequestCtx) { ctx.SetBodyString("pong") }))

	srv, err := NewHTTPServer(&types.HTTPConfig{Host: "localhost", Port: 8090, ShutdownTimeout: 1}, logger.NewNop(), router.Handle)
	require.NoError(t, err)
	assert.Equal(t, "localhost:8090", srv.Address())

	ln := fasthttputil.NewInmemoryListener()
	require.NoError(t, srv.Serve(ln))
	assert.True(t, srv.IsRunning())
	assert.ErrorIs(t, srv.Serve(ln), types.ErrServerAlreadyRunning)

	client := &fasthttp.Client{
		Dial: func(string) (net.Conn, error) { return ln.Dial() },
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI("http://authchain/ping")
	require.NoError(t, client.Do(req, resp))
	assert.Equal(t, fasthttp.StatusOK, resp.StatusCode())
	assert.Equal(t, "pong", string(resp.Body()))

	require.NoError(t, srv.Stop())
	assert.False(t, srv.IsRunning())
	assert.ErrorIs(t, srv.Stop(), types.ErrServerNotRunning)
}

func TestNewHTTPServer_Errors(t *testing.T) {
	_, err := NewHTTPServer(nil, logger.NewNop(), func(*fasthttp.RequestCtx) {})
	assert.ErrorIs(t, err, types.ErrConfigNotFound)

	_, err = NewHTTPServer(&types.HTTPConfig{}, logger.NewNop(), nil)
	assert.ErrorIs(t, err, types.ErrHandlerIsNil)
}
