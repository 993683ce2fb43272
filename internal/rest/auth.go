package rest

import (
	"fmt"
	"net/http"
	"strings"
)

// AuthFunc decorates an outgoing request with credentials.
type AuthFunc func(r *http.Request)

// NewBasicAuth returns an AuthFunc for basic authentication (email + API token).
func NewBasicAuth(username, token string) AuthFunc {
	username, token = strings.TrimSpace(username), strings.TrimSpace(token)
	return func(r *http.Request) {
		r.SetBasicAuth(username, token)
	}
}

// NewBearerAuth returns an AuthFunc for bearer token authentication.
func NewBearerAuth(token string) AuthFunc {
	token = strings.TrimSpace(token)
	return func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	}
}

// ResolveAuth returns the appropriate AuthFunc based on provided credentials.
// A bearer token (personal access token) wins over email + API token.
func ResolveAuth(bearerToken, email, token string) (auth AuthFunc, method string, err error) {
	switch {
	case strings.TrimSpace(bearerToken) != "":
		return NewBearerAuth(bearerToken), "Bearer", nil
	case strings.TrimSpace(email) != "" && strings.TrimSpace(token) != "":
		return NewBasicAuth(email, token), "Basic", nil
	default:
		return nil, "", fmt.Errorf("no valid auth method configured: must provide either bearer token or email+token")
	}
}
