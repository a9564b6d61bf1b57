package auth

import (
	"context"
	"strings"

	"google.golang.org/grpc/metadata"
)

type UserContext struct {
	UserID  string
	Email   string
	Role    string
	TokenID string
}

type ctxKey struct{}

func WithUser(ctx context.Context, u *UserContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// CurrentUser returns the authenticated staff member populated by the interceptors.
func CurrentUser(ctx context.Context) (*UserContext, bool) {
	u, ok := ctx.Value(ctxKey{}).(*UserContext)
	return u, ok && u != nil
}

func GetUserID(ctx context.Context) string {
	if u, ok := CurrentUser(ctx); ok {
		return u.UserID
	}
	return ""
}

// BearerToken reads the token from the incoming "authorization" metadata.
func BearerToken(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	for _, v := range md.Get("authorization") {
		if token, found := strings.CutPrefix(v, "Bearer "); found {
			return strings.TrimSpace(token)
		}
	}
	return ""
}
