package session

import "context"

// Store persists the client's single session State across process restarts.
// Load returns (nil, nil) when no usable state is stored; a corrupt blob is
// treated as absence, never as an error.
type Store interface {
	Load() (*State, error)
	Save(*State) error
	Clear() error
}

// Gateway is the subset of the remote API the session lifecycle needs.
type Gateway interface {
	Login(ctx context.Context, email, password string) (LoginResult, error)
	Refresh(ctx context.Context, token string) (string, error)
	Me(ctx context.Context) (Identity, error)
}
