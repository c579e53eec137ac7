package middleware

import "context"

type ctxKey int

const (
	userIDKey ctxKey = iota
	emailKey
)

func InjectUser(ctx context.Context, id, email string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, id)
	return context.WithValue(ctx, emailKey, email)
}

func UserID(ctx context.Context) string {
	v, _ := ctx.Value(userIDKey).(string)
	return v
}

// Email is empty when the token carried no email claim.
func Email(ctx context.Context) string {
	v, _ := ctx.Value(emailKey).(string)
	return v
}
