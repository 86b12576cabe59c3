package web

import (
	"context"
	"net/http"

	"github.com/Fanfan0315/Horisation/internal/core"
	"github.com/Fanfan0315/Horisation/internal/web/middleware"
)

// WithRequestMetadata adds the client IP and User-Agent to the request
// context for operation logs.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	return core.ContextWithClient(ctx, middleware.ClientIP(r), r.UserAgent())
}
