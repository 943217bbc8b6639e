package session

import "context"

// Credential is the opaque auth token plus the display username, exactly as
// issued by the login endpoint. The client never inspects the token; validity
// is decided by the server on the next channel connection attempt.
type Credential struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// Store persists a credential across client restarts.
//
// Load returns (nil, nil) when no credential is stored. Save overwrites any
// previous credential. Clear removes token and username together.
type Store interface {
	Load(ctx context.Context) (*Credential, error)
	Save(ctx context.Context, cred *Credential) error
	Clear(ctx context.Context) error
}
