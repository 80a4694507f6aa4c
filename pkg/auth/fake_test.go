// ABOUTME: Tests for ish mode sign-in
// ABOUTME: Validates the user bearer header and request isolation

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeClient_SendsUserBearer(t *testing.T) {
	tests := []struct {
		name string
		user string
		want string
	}{
		{"explicit user", "alice", "Bearer user:alice"},
		{"default user", "", "Bearer user:testuser"},
		{"blank user", "  ", "Bearer user:testuser"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.Header.Get("Authorization")
			}))
			defer srv.Close()

			resp, err := NewFakeClient(tt.user).Get(srv.URL)
			require.NoError(t, err)
			_ = resp.Body.Close()
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFakeClient_DoesNotMutateCallerRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := NewFakeClient("bob").Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Empty(t, req.Header.Get("Authorization"))
}

func TestISHTransport_UsesBase(t *testing.T) {
	var seen string
	base := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		seen = r.Header.Get("Authorization")
		return &http.Response{StatusCode: http.StatusNoContent, Body: http.NoBody, Request: r}, nil
	})

	client := &http.Client{Transport: &ISHTransport{User: "carol", Base: base}}
	resp, err := client.Get("http://ish.invalid/calendar/v3/users/me/calendarList")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, "Bearer user:carol", seen)
	assert.Equal(t, seen, ISHHeader("carol"))
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
