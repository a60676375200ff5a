package chain

import (
	"sort"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/saiset-co/sai-authchain/pattern"
	"github.com/saiset-co/sai-authchain/types"
)

const (
	MaxFilters     = 64
	matchCacheSize = 1024
)

type entry struct {
	registration types.FilterRegistration
	scope        *pattern.RuleSet
}

// Registrar owns the filters and their order. Every registration whose URL
// patterns match the request path runs, lowest order first, until one of
// them writes a response instead of calling next.
type Registrar struct {
	logger     types.Logger
	pending    []entry
	ordered    []entry
	matchCache *lru.Cache[string, uint64]
	mu         sync.Mutex
	finalized  int32
}

func NewRegistrar(logger types.Logger) *Registrar {
	return &Registrar{logger: logger}
}

func (r *Registrar) Register(filter types.Filter, order int, urlPatterns ...string) error {
	if filter == nil {
		return types.ErrFilterIsNil
	}

	if len(urlPatterns) == 0 {
		return types.Errorf(types.ErrFilterPatternEmpty, "filter: %s", filter.Name())
	}

	scope, err := pattern.Paths(urlPatterns...)
	if err != nil {
		return types.WrapError(err, "invalid url pattern for filter "+filter.Name())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if atomic.LoadInt32(&r.finalized) == 1 {
		return types.Errorf(types.ErrFilterChainFinalized, "filter: %s", filter.Name())
	}

	if len(r.pending) >= MaxFilters {
		return types.NewErrorf("maximum filter count exceeded: %d", MaxFilters)
	}

	r.pending = append(r.pending, entry{
		registration: types.FilterRegistration{
			Filter:      filter,
			URLPatterns: append([]string(nil), urlPatterns...),
			Order:       order,
		},
		scope: scope,
	})

	return nil
}

// Finalize sorts the registrations and freezes the chain. Two filters with
// the same order are rejected.
func (r *Registrar) Finalize() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if atomic.LoadInt32(&r.finalized) == 1 {
		return types.Errorf(types.ErrFilterChainFinalized, "already finalized")
	}

	orders := make(map[int]string, len(r.pending))
	for _, e := range r.pending {
		name := e.registration.Filter.Name()
		if existing, exists := orders[e.registration.Order]; exists {
			return types.Errorf(types.ErrFilterOrderDuplicated, "order %d for filters '%s' and '%s'",
				e.registration.Order, existing, name)
		}
		orders[e.registration.Order] = name
	}

	ordered := make([]entry, len(r.pending))
	copy(ordered, r.pending)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].registration.Order < ordered[j].registration.Order
	})

	matchCache, err := lru.New[string, uint64](matchCacheSize)
	if err != nil {
		return types.WrapError(err, "failed to create match cache")
	}

	r.ordered = ordered
	r.matchCache = matchCache
	r.pending = nil

	atomic.StoreInt32(&r.finalized, 1)

	for _, e := range r.ordered {
		r.logger.Info("Filter registered",
			zap.String("filter", e.registration.Filter.Name()),
			zap.Int("order", e.registration.Order),
			zap.Strings("url_patterns", e.registration.URLPatterns))
	}

	return nil
}

// Registrations lists the chain in execution order once finalized, in
// registration order before that.
func (r *Registrar) Registrations() []types.FilterRegistration {
	r.mu.Lock()
	defer r.mu.Unlock()

	source := r.pending
	if atomic.LoadInt32(&r.finalized) == 1 {
		source = r.ordered
	}

	registrations := make([]types.FilterRegistration, 0, len(source))
	for _, e := range source {
		registrations = append(registrations, e.registration)
	}
	return registrations
}

// Handler wraps next with the chain. Before Finalize requests go straight to
// next.
func (r *Registrar) Handler(next types.FastHTTPHandler) types.FastHTTPHandler {
	return func(ctx *fasthttp.RequestCtx) {
		r.Execute(ctx, next)
	}
}

func (r *Registrar) Execute(ctx *fasthttp.RequestCtx, handler types.FastHTTPHandler) {
	if atomic.LoadInt32(&r.finalized) == 0 {
		handler(ctx)
		return
	}

	mask := r.matchMask(string(ctx.Path()))
	if mask == 0 {
		handler(ctx)
		return
	}

	index := 0

	var next types.FastHTTPHandler
	next = func(ctx *fasthttp.RequestCtx) {
		for index < len(r.ordered) {
			current := index
			index++
			if mask&(1<<uint(current)) != 0 {
				r.ordered[current].registration.Filter.DoFilter(ctx, next)
				return
			}
		}
		handler(ctx)
	}

	next(ctx)
}

// matchMask has bit i set when the i-th ordered registration covers path.
func (r *Registrar) matchMask(requestPath string) uint64 {
	if mask, ok := r.matchCache.Get(requestPath); ok {
		return mask
	}

	var mask uint64
	for i, e := range r.ordered {
		if e.scope.Match(requestPath, "") {
			mask |= 1 << uint(i)
		}
	}

	r.matchCache.Add(requestPath, mask)
	return mask
}
