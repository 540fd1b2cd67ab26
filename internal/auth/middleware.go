package auth

import (
	"context"

	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/transport"
)

// userIDHeader is set by the identity gateway after it verifies the
// caller's session; this service trusts it and never sees credentials.
const userIDHeader = "X-User-Id"

// Middleware copies the gateway-resolved user id onto the request context.
// Requests without the header stay anonymous; usecases that need an
// identity reject them.
func Middleware() middleware.Middleware {
	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req interface{}) (interface{}, error) {
			if tr, ok := transport.FromServerContext(ctx); ok {
				if uid := tr.RequestHeader().Get(userIDHeader); uid != "" {
					ctx = WithUID(ctx, uid)
				}
			}
			return handler(ctx, req)
		}
	}
}
