package auth

import (
	"context"
	"errors"
)

type ctxKey int

const (
	ctxUserID ctxKey = iota
	ctxSessionType
)

func WithIdentity(ctx context.Context, userID string, typ SessionType) context.Context {
	ctx = context.WithValue(ctx, ctxUserID, userID)
	ctx = context.WithValue(ctx, ctxSessionType, typ)
	return ctx
}

func UserID(ctx context.Context) (string, error) {
	if s, ok := ctx.Value(ctxUserID).(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("user_id not in context")
}

func Type(ctx context.Context) (SessionType, error) {
	if t, ok := ctx.Value(ctxSessionType).(SessionType); ok && t != "" {
		return t, nil
	}
	return "", errors.New("session_type not in context")
}
