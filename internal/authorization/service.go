package authorization

import "context"

// Actor is the caller being authorized. System actors run jobs and CLI
// maintenance commands.
type Actor struct {
	UsuarioID string
	Rol       string
	System    bool
}

func SystemActor() Actor {
	return Actor{System: true}
}

type Service interface {
	Authorize(ctx context.Context, actor Actor, object string, action string) error
}
