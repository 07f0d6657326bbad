package session

import "context"

// Credentials identify the signed-in user. The zero value is an anonymous
// session.
type Credentials struct {
	SessionID string `json:"session_id"`
	LoginID   string `json:"login_id"`
	Token     string `json:"token"`
}

// Anonymous reports whether no token is present.
func (c Credentials) Anonymous() bool { return c.Token == "" }

type credentialsKey struct{}

// WithCredentials attaches creds to ctx for fetchers that authenticate.
func WithCredentials(ctx context.Context, creds Credentials) context.Context {
	return context.WithValue(ctx, credentialsKey{}, creds)
}

// CredentialsFrom returns the credentials carried by ctx, if any.
func CredentialsFrom(ctx context.Context) (Credentials, bool) {
	c, ok := ctx.Value(credentialsKey{}).(Credentials)
	return c, ok
}
