// ABOUTME: Simulated sign-in for ish mode
// ABOUTME: Identifies the user to an ish calendar backend with a user: bearer token

package auth

import (
	"net/http"
	"strings"
)

const defaultISHUser = "testuser"

// ISHTransport signs every request as User. The backend trusts the header
// without checking a real OAuth token.
type ISHTransport struct {
	User string
	Base http.RoundTripper
}

// ISHHeader returns the Authorization value sent for user.
func ISHHeader(user string) string {
	user = strings.TrimSpace(user)
	if user == "" {
		user = defaultISHUser
	}
	return "Bearer user:" + user
}

func (t *ISHTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	signed := req.Clone(req.Context())
	signed.Header.Set("Authorization", ISHHeader(t.User))
	return base.RoundTrip(signed)
}

// NewFakeClient returns a client signed in to an ish backend as user.
func NewFakeClient(user string) *http.Client {
	return &http.Client{Transport: &ISHTransport{User: user}}
}
