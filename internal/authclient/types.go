package authclient

// Kind classifies an authentication failure.
type Kind string

const (
	// KindNetwork means the server was unreachable or the request timed out.
	KindNetwork Kind = "network"
	// KindInvalidCredentials means login was rejected.
	KindInvalidCredentials Kind = "invalid_credentials"
	// KindConflict means the username is already registered.
	KindConflict Kind = "conflict"
	// KindInvalid means the server rejected the request payload.
	KindInvalid Kind = "invalid"
)

// AuthError is the typed failure surfaced to the login/register UI. It is
// never fatal to the session; retry is manual.
type AuthError struct {
	Kind    Kind
	Message string
	Status  int
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Kind)
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

type errorResponse struct {
	Message string `json:"message"`
}
