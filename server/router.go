package server

import (
	"strings"
	"sync"

	"github.com/valyala/fasthttp"

	"github.com/saiset-co/sai-authchain/types"
	"github.com/saiset-co/sai-authchain/utils"
)

var methodIndex = map[string]uint8{
	"GET":     0,
	"POST":    1,
	"PUT":     2,
	"DELETE":  3,
	"PATCH":   4,
	"HEAD":    5,
	"OPTIONS": 6,
	"TRACE":   7,
}

// Router dispatches on exact method and path. Every endpoint of the service
// is static, so there is no parameter trie.
type Router struct {
	mu     sync.RWMutex
	routes map[string]types.FastHTTPHandler
	paths  map[string]struct{}
}

func NewRouter() *Router {
	return &Router{
		routes: make(map[string]types.FastHTTPHandler),
		paths:  make(map[string]struct{}),
	}
}

func (r *Router) Add(method, path string, handler types.FastHTTPHandler) error {
	method = strings.ToUpper(method)
	if _, ok := methodIndex[method]; !ok {
		return types.Errorf(types.ErrInvalidParameter, "unsupported method %q", method)
	}
	if handler == nil {
		return types.Errorf(types.ErrHandlerIsNil, "%s %s", method, path)
	}

	path = normalizePath(path)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.routes[routeKey(method, path)] = handler
	r.paths[path] = struct{}{}
	return nil
}

func (r *Router) GET(path string, handler types.FastHTTPHandler) error {
	return r.Add(fasthttp.MethodGet, path, handler)
}

func (r *Router) POST(path string, handler types.FastHTTPHandler) error {
	return r.Add(fasthttp.MethodPost, path, handler)
}

func (r *Router) Group(prefix string) *RouteGroup {
	return &RouteGroup{router: r, prefix: strings.TrimSuffix(prefix, "/")}
}

// Handle is the terminal handler behind the filter chain.
func (r *Router) Handle(ctx *fasthttp.RequestCtx) {
	path := normalizePath(utils.BytesToString(ctx.Path()))

	r.mu.RLock()
	handler := r.routes[routeKey(string(ctx.Method()), path)]
	_, knownPath := r.paths[path]
	r.mu.RUnlock()

	if handler != nil {
		handler(ctx)
		return
	}

	if knownPath {
		utils.RespondJSON(ctx, fasthttp.StatusMethodNotAllowed, map[string]interface{}{
			"status":  fasthttp.StatusMethodNotAllowed,
			"message": "Method not allowed",
		})
		return
	}

	utils.RespondJSON(ctx, fasthttp.StatusNotFound, map[string]interface{}{
		"status":  fasthttp.StatusNotFound,
		"message": "Not found",
	})
}

type RouteGroup struct {
	router *Router
	prefix string
}

func (g *RouteGroup) GET(path string, handler types.FastHTTPHandler) error {
	return g.router.GET(g.prefix+path, handler)
}

func (g *RouteGroup) POST(path string, handler types.FastHTTPHandler) error {
	return g.router.POST(g.prefix+path, handler)
}

func (g *RouteGroup) Group(prefix string) *RouteGroup {
	return &RouteGroup{router: g.router, prefix: g.prefix + strings.TrimSuffix(prefix, "/")}
}

func routeKey(method, path string) string {
	return method + ":" + path
}

// normalizePath keeps trailing slashes: the filter chain scopes on the raw
// path, so "/api/comments/" must not reach the "/api/comments" handler.
func normalizePath(path string) string {
	if path == "" {
		return "/"
	}
	return path
}
