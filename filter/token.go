package filter

import (
	"strings"

	"github.com/valyala/fasthttp"
)

const bearerPrefix = "bearer "

// extractCredential prefers the header over the query parameter.
func extractCredential(ctx *fasthttp.RequestCtx, header, param string) string {
	if value := strings.TrimSpace(string(ctx.Request.Header.Peek(header))); value != "" {
		return value
	}
	return strings.TrimSpace(string(ctx.QueryArgs().Peek(param)))
}

func stripBearer(token string) string {
	if len(token) > len(bearerPrefix) && strings.EqualFold(token[:len(bearerPrefix)], bearerPrefix) {
		return strings.TrimSpace(token[len(bearerPrefix):])
	}
	return token
}
