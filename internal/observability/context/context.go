package context

import (
	"context"
	"strings"
)

type ctxKey string

const (
	requestIDKey ctxKey = "obs.request_id"
	actorKey     ctxKey = "obs.actor"
	jobKey       ctxKey = "obs.job"
)

// Actor identifies who triggered the work being logged: a logged-in usuario
// or the scheduler.
type Actor struct {
	Type string
	ID   string
	Rol  string
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, strings.TrimSpace(requestID))
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(requestIDKey).(string)
	return value
}

func WithActor(ctx context.Context, actorType, actorID, rol string) context.Context {
	return context.WithValue(ctx, actorKey, Actor{
		Type: strings.TrimSpace(actorType),
		ID:   strings.TrimSpace(actorID),
		Rol:  strings.TrimSpace(rol),
	})
}

func ActorFromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	actor, ok := ctx.Value(actorKey).(Actor)
	return actor, ok
}

// WithJob names the scheduler job running under ctx.
func WithJob(ctx context.Context, job string) context.Context {
	return context.WithValue(ctx, jobKey, strings.TrimSpace(job))
}

func JobFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	job, _ := ctx.Value(jobKey).(string)
	return job
}
