package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"cryptoalert/api"
)

func TestHTTPValidator(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    Outcome
	}{
		{
			name: "ok",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"username":"bob"}`))
			},
			want: Accepted,
		},
		{
			name: "unauthorized",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
			want: Rejected,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			want: Rejected,
		},
		{
			name: "no content",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			},
			want: Accepted,
		},
		{
			name: "plain text body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/plain")
				_, _ = w.Write([]byte("ok"))
			},
			want: Accepted,
		},
		{
			name: "html body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`<!doctype html>`))
			},
			want: Accepted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
				assert.Equal(t, "/user/me", r.URL.Path)
				assert.Equal(t, "Bearer real123", r.Header.Get("Authorization"))
				tt.handler(w, r)
			}))
			defer srv.Close()

			v := NewHTTPValidator(api.NewClient(srv.URL, time.Second))
			assert.Equal(t, tt.want, v.Validate(context.Background(), "real123"))
			assert.Equal(t, 1, calls)
		})
	}
}

func TestHTTPValidator_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	v := NewHTTPValidator(api.NewClient(url, time.Second))
	assert.Equal(t, Unreachable, v.Validate(context.Background(), "real123"))
}

func TestHTTPValidator_Timeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	v := NewHTTPValidator(api.NewClient(srv.URL, 50*time.Millisecond))
	assert.Equal(t, Unreachable, v.Validate(context.Background(), "real123"))
}

func TestEvictPolicies(t *testing.T) {
	assert.False(t, EvictUnlessAccepted(Accepted))
	assert.True(t, EvictUnlessAccepted(Rejected))
	assert.True(t, EvictUnlessAccepted(Unreachable))

	assert.False(t, KeepOnUnreachable(Accepted))
	assert.True(t, KeepOnUnreachable(Rejected))
	assert.False(t, KeepOnUnreachable(Unreachable))
}
