package filter

import (
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/saiset-co/sai-authchain/pattern"
	"github.com/saiset-co/sai-authchain/types"
	"github.com/saiset-co/sai-authchain/utils"
)

// AuthenticationFilter runs the exclusion, token resolution and try-auth
// steps for one credential scope. Scope matching is done by the chain
// through the registration URL patterns.
type AuthenticationFilter struct {
	name           string
	authenticator  types.Authenticator
	failureHandler types.FailureHandler
	excludeRules   *pattern.RuleSet
	tryAuthRules   *pattern.RuleSet
	logger         types.Logger
	metrics        types.MetricsManager
}

type Option func(*AuthenticationFilter)

func WithExcludeRules(rules *pattern.RuleSet) Option {
	return func(f *AuthenticationFilter) {
		f.excludeRules = rules
	}
}

func WithTryAuthRules(rules *pattern.RuleSet) Option {
	return func(f *AuthenticationFilter) {
		f.tryAuthRules = rules
	}
}

func WithMetrics(metrics types.MetricsManager) Option {
	return func(f *AuthenticationFilter) {
		f.metrics = metrics
	}
}

func NewAuthenticationFilter(name string, authenticator types.Authenticator, failureHandler types.FailureHandler, logger types.Logger, opts ...Option) *AuthenticationFilter {
	f := &AuthenticationFilter{
		name:           name,
		authenticator:  authenticator,
		failureHandler: failureHandler,
		logger:         logger,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

func (f *AuthenticationFilter) Name() string {
	return f.name
}

func (f *AuthenticationFilter) DoFilter(ctx *fasthttp.RequestCtx, next types.FastHTTPHandler) {
	decision, err := f.Evaluate(ctx)
	if decision == types.Reject {
		f.failureHandler.Handle(ctx, err)
		return
	}

	next(ctx)
}

// Evaluate decides the request without writing a response. A Reject always
// comes with the error to hand to the failure handler.
func (f *AuthenticationFilter) Evaluate(ctx *fasthttp.RequestCtx) (types.Decision, error) {
	requestPath := utils.BytesToString(ctx.Path())
	requestMethod := utils.BytesToString(ctx.Method())

	if f.excludeRules.Match(requestPath, requestMethod) {
		f.record(types.PassThrough, "excluded")
		return types.PassThrough, nil
	}

	auth, err := f.authenticator.Authenticate(ctx)
	if err == nil {
		auth.Scope = f.authenticator.Scope()
		auth.State = types.Authenticated
		SetAuthentication(ctx, auth)
		f.record(types.PassThrough, "authenticated")
		return types.PassThrough, nil
	}

	if credentialFailure(err) && f.tryAuthRules.Match(requestPath, requestMethod) {
		SetAuthentication(ctx, &types.Authentication{
			Scope: f.authenticator.Scope(),
			State: types.Anonymous,
		})
		f.record(types.PassThrough, "anonymous")
		return types.PassThrough, nil
	}

	if !credentialFailure(err) {
		f.logger.Error("Authentication backend failed",
			zap.String("filter", f.name),
			zap.String("path", requestPath),
			zap.Error(err))
	}

	f.record(types.Reject, "rejected")
	return types.Reject, err
}

// credentialFailure reports whether err is about the presented credential
// itself. Only those may be downgraded to anonymous on try-auth routes; store
// and user lookup faults always reject.
func credentialFailure(err error) bool {
	return types.IsError(err, types.ErrTokenMissing) ||
		types.IsError(err, types.ErrTokenExpiredOrInvalid) ||
		types.IsError(err, types.ErrInsufficientPrivilege)
}

func (f *AuthenticationFilter) record(decision types.Decision, reason string) {
	if f.metrics == nil {
		return
	}

	f.metrics.Counter("auth_decisions_total", map[string]string{
		"filter":   f.name,
		"decision": decision.String(),
		"reason":   reason,
	}).Inc()
}
