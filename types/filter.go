package types

import (
	"github.com/valyala/fasthttp"
)

type FastHTTPHandler = fasthttp.RequestHandler

// Filter is one stage of the request pipeline. A filter either calls next
// or writes a terminal response and returns.
type Filter interface {
	Name() string
	DoFilter(ctx *fasthttp.RequestCtx, next FastHTTPHandler)
}

type FilterRegistration struct {
	Filter      Filter
	URLPatterns []string
	Order       int
}

type Decision int

const (
	PassThrough Decision = iota
	Reject
)

func (d Decision) String() string {
	if d == Reject {
		return "reject"
	}
	return "pass"
}

// Authenticator resolves the credential of a single scope ("api", "admin").
type Authenticator interface {
	Scope() string
	Authenticate(ctx *fasthttp.RequestCtx) (*Authentication, error)
}

type FailureHandler interface {
	Handle(ctx *fasthttp.RequestCtx, err error)
}

type Codec interface {
	Marshal(v interface{}) ([]byte, error)
}

type AuthState int

const (
	Anonymous AuthState = iota
	Authenticated
)

func (s AuthState) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "anonymous"
}

type Authentication struct {
	Scope string
	State AuthState
	Token string
	User  *User
}

func (a *Authentication) IsAuthenticated() bool {
	return a != nil && a.State == Authenticated
}
