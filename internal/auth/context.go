package auth

import (
	"context"

	"google.golang.org/grpc/metadata"
)

const RoleAdmin = "admin"

type UserContext struct {
	UserID string
	Role   string
}

type userKey struct{}

func WithUser(ctx context.Context, u UserContext) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// FromContext reads the identity set by the HTTP middleware or the gRPC interceptor,
// then falls back to incoming gRPC metadata.
func FromContext(ctx context.Context) (UserContext, bool) {
	if u, ok := ctx.Value(userKey{}).(UserContext); ok && u.UserID != "" {
		return u, true
	}

	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return UserContext{}, false
	}
	u := UserContext{}
	if val := md.Get("x-user-id"); len(val) > 0 {
		u.UserID = val[0]
	}
	if val := md.Get("x-user-role"); len(val) > 0 {
		u.Role = val[0]
	}
	return u, u.UserID != ""
}

func GetUserID(ctx context.Context) string {
	u, _ := FromContext(ctx)
	return u.UserID
}

func IsAdmin(role string) bool {
	return role == RoleAdmin
}
