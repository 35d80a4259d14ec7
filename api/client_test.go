package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", 0)
}

func TestClient_MeSendsBearer(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/user/me", r.URL.Path)
		assert.Equal(t, "Bearer real123", r.Header.Get("Authorization"))
		_, err := uuid.Parse(r.Header.Get("X-Request-ID"))
		assert.NoError(t, err)
		_, _ = w.Write([]byte(`{"username":"bob"}`))
	})

	user, err := c.WithToken("real123").Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "bob", user.Username)
	assert.Empty(t, c.Token, "WithToken must not mutate the original")
}

func TestClient_CheckTokenIgnoresBody(t *testing.T) {
	tests := []struct {
		name    string
		code    int
		body    string
		wantErr bool
	}{
		{name: "no content", code: http.StatusNoContent},
		{name: "plain text", code: http.StatusOK, body: "ok"},
		{name: "json", code: http.StatusOK, body: `{"username":"bob"}`},
		{name: "forbidden", code: http.StatusForbidden, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/user/me", r.URL.Path)
				assert.Equal(t, "Bearer real123", r.Header.Get("Authorization"))
				w.WriteHeader(tt.code)
				_, _ = w.Write([]byte(tt.body))
			})

			err := c.WithToken("real123").CheckToken(context.Background())
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnauthorized)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestClient_StatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "token expired", http.StatusUnauthorized)
	})

	_, err := c.WithToken("x").Me(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnauthorized, se.Code)
	assert.Equal(t, "token expired", se.Body)
}

func TestClient_ServerErrorIsNotUnauthorized(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	err := c.StartMonitoring(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnauthorized))
}

func TestClient_Login(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr error
	}{
		{name: "token", body: `{"token":"abc"}`, want: "abc"},
		{name: "access_token", body: `{"access_token":"def"}`, want: "def"},
		{name: "empty", body: `{}`, wantErr: ErrEmptyToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/auth/login", r.URL.Path)
				assert.Empty(t, r.Header.Get("Authorization"))
				var req LoginRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, LoginRequest{Username: "alice", Password: "secret"}, req)
				_, _ = w.Write([]byte(tt.body))
			})

			token, err := c.Login(context.Background(), "alice", "secret")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, token)
		})
	}
}

func TestClient_Register(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/register", r.URL.Path)
		var req RegisterRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "a@b.c", req.Email)
		w.WriteHeader(http.StatusCreated)
	})

	err := c.Register(context.Background(), RegisterRequest{Username: "a", Email: "a@b.c", Password: "secret"})
	assert.NoError(t, err)
}

func TestClient_MonitoringAndPrices(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/monitoring/status", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"active":true}`))
	})
	mux.HandleFunc("/crypto/current", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"symbol":"BTC","name":"Bitcoin","price":65000.5,"change_24h":1.2}]`))
	})
	mux.HandleFunc("/portfolio", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"holdings":[{"symbol":"ETH","quantity":2,"avg_price":3000}]}`))
	})
	mux.HandleFunc("/portfolio/transactions", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"t1","symbol":"ETH","type":"buy","quantity":2,"price":3000}]`))
	})
	c := newTestClient(t, mux.ServeHTTP).WithToken("tok")
	ctx := context.Background()

	status, err := c.MonitoringStatus(ctx)
	require.NoError(t, err)
	assert.True(t, status.Active)

	assets, err := c.CurrentCrypto(ctx)
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, "BTC", assets[0].Symbol)
	assert.InDelta(t, 65000.5, assets[0].Price, 0.001)

	portfolio, err := c.GetPortfolio(ctx)
	require.NoError(t, err)
	require.Len(t, portfolio.Holdings, 1)

	txs, err := c.GetTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "buy", txs[0].Type)
}

func TestClient_DecodeFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	})

	_, err := c.CurrentCrypto(context.Background())
	require.Error(t, err)
	var se *StatusError
	assert.False(t, errors.As(err, &se))
}
