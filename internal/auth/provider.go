package auth

// Provider issues and validates the tokens that carry a session id.
type Provider interface {
	Issue(sessionID string) (string, error)
	Validate(token string) (string, error)
}
