package vaultclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   map[string]string{"code": code, "message": message},
	})
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL, opts...)
	require.NoError(t, err)
	return c
}

func TestNew_InvalidBaseURL(t *testing.T) {
	_, err := New("not a url")
	assert.Error(t, err)

	c, err := New("https://vault.example.com/")
	require.NoError(t, err)
	assert.Equal(t, "https://vault.example.com", c.baseURL)
	assert.Equal(t, DefaultTimeout, c.httpClient.Timeout)
}

func TestCreateAuthRequest(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/auth-requests", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var in CreateAuthRequestInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "alice@example.com", in.Email)

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(CreatedAuthRequest{
			AuthRequestResponse: AuthRequest{ID: "req-1", Fingerprint: "alpha-bravo"},
			AccessCode:          "code-1",
		})
	})

	out, err := c.CreateAuthRequest(context.Background(), &CreateAuthRequestInput{
		Email:            "alice@example.com",
		PublicKey:        "cHVibGlj",
		DeviceIdentifier: "device-1",
		Platform:         "Android",
	})
	require.NoError(t, err)
	assert.Equal(t, "req-1", out.ID)
	assert.Equal(t, "code-1", out.AccessCode)
}

func TestGetAuthRequestResponse_EscapesCode(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/auth-requests/req-1/response", r.URL.Path)
		assert.Equal(t, "a+b/c", r.URL.Query().Get("code"))
		_ = json.NewEncoder(w).Encode(AuthRequest{ID: "req-1"})
	})

	out, err := c.GetAuthRequestResponse(context.Background(), "req-1", "a+b/c")
	require.NoError(t, err)
	assert.Equal(t, "req-1", out.ID)
}

func TestAuthenticatedCallsSendBearer(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []AuthRequest{{ID: "req-2"}, {ID: "req-1"}},
		})
	}, WithToken("tok"))

	out, err := c.ListAuthRequests(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "req-2", out[0].ID)
}

func TestUpdateAuthRequest(t *testing.T) {
	approved := true
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/v1/auth-requests/req-1", r.URL.Path)

		var in UpdateAuthRequestInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		require.NotNil(t, in.RequestApproved)
		assert.True(t, *in.RequestApproved)
		assert.Equal(t, "cHVibGlj", in.PublicKey)

		_ = json.NewEncoder(w).Encode(AuthRequest{ID: "req-1", RequestApproved: in.RequestApproved})
	})

	out, err := c.UpdateAuthRequest(context.Background(), "req-1", &UpdateAuthRequestInput{
		PublicKey:       "cHVibGlj",
		RequestApproved: &approved,
	})
	require.NoError(t, err)
	require.NotNil(t, out.RequestApproved)
	assert.True(t, *out.RequestApproved)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		code     string
		sentinel error
	}{
		{"not found", http.StatusNotFound, "not_found", ErrNotFound},
		{"already decided", http.StatusConflict, "already_decided", ErrAlreadyDecided},
		{"other conflict", http.StatusConflict, "conflict", nil},
		{"server error", http.StatusInternalServerError, "server_error", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeError(w, tt.status, tt.code, "boom")
			})

			_, err := c.GetAuthRequest(context.Background(), "req-1")
			require.Error(t, err)

			var statusErr *StatusError
			require.True(t, errors.As(err, &statusErr))
			assert.Equal(t, tt.status, statusErr.StatusCode)
			assert.Equal(t, tt.code, statusErr.Code)
			assert.Equal(t, "boom", statusErr.Message)

			if tt.sentinel != nil {
				assert.ErrorIs(t, err, tt.sentinel)
			} else {
				assert.NotErrorIs(t, err, ErrNotFound)
				assert.NotErrorIs(t, err, ErrAlreadyDecided)
			}
			assert.NotErrorIs(t, err, ErrNetwork)
		})
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	_, err = c.ListCiphers(context.Background())
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestTimeoutIsNetworkError(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, WithTimeout(50*time.Millisecond))
	defer close(release)

	_, err := c.GetCipher(context.Background(), "c-1")
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestGetAuthRequestByFingerprint_SharesInFlightLookups(t *testing.T) {
	var calls int32
	gate := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/api/v1/auth-requests/fingerprint/alpha-bravo", r.URL.Path)
		<-gate
		_ = json.NewEncoder(w).Encode(AuthRequest{ID: "req-1", Fingerprint: "alpha-bravo"})
	}, WithToken("tok"))

	type result struct {
		req *AuthRequest
		err error
	}
	results := make(chan result, 2)
	for i := 0; i < 2; i++ {
		go func() {
			req, err := c.GetAuthRequestByFingerprint(context.Background(), "alpha-bravo")
			results <- result{req, err}
		}()
	}

	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(gate)

	for i := 0; i < 2; i++ {
		r := <-results
		require.NoError(t, r.err)
		assert.Equal(t, "req-1", r.req.ID)
	}
	assert.LessOrEqual(t, atomic.LoadInt32(&calls), int32(2))
}

func TestGetAuthRequestByFingerprint_CancelledCallerDoesNotFailOthers(t *testing.T) {
	var calls int32
	gate := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		<-gate
		_ = json.NewEncoder(w).Encode(AuthRequest{ID: "req-1", Fingerprint: "alpha-bravo"})
	}, WithToken("tok"))

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.GetAuthRequestByFingerprint(firstCtx, "alpha-bravo")
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 1 }, time.Second, 5*time.Millisecond)

	secondResult := make(chan *AuthRequest, 1)
	secondErr := make(chan error, 1)
	go func() {
		req, err := c.GetAuthRequestByFingerprint(context.Background(), "alpha-bravo")
		secondResult <- req
		secondErr <- err
	}()
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	err := <-firstErr
	assert.ErrorIs(t, err, ErrNetwork)
	assert.ErrorIs(t, err, context.Canceled)

	close(gate)
	require.NoError(t, <-secondErr)
	assert.Equal(t, "req-1", (<-secondResult).ID)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCipherCRUD(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/v1/ciphers":
			var in CipherInput
			require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(Cipher{ID: "c-1", Name: in.Name, Login: in.Login})
		case r.Method == http.MethodPut && r.URL.Path == "/api/v1/ciphers/c-1":
			_ = json.NewEncoder(w).Encode(Cipher{ID: "c-1", Name: "renamed"})
		case r.Method == http.MethodDelete && r.URL.Path == "/api/v1/ciphers/c-1":
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/ciphers":
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": []Cipher{{ID: "c-1"}}})
		default:
			writeError(w, http.StatusNotFound, "not_found", "route not found")
		}
	}, WithToken("tok"))
	ctx := context.Background()

	user := "alice"
	created, err := c.CreateCipher(ctx, &CipherInput{Type: 1, Name: "mail", Login: &CipherLogin{Username: &user}})
	require.NoError(t, err)
	assert.Equal(t, "c-1", created.ID)
	require.NotNil(t, created.Login)
	assert.Equal(t, "alice", *created.Login.Username)

	updated, err := c.UpdateCipher(ctx, "c-1", &CipherInput{Type: 1, Name: "renamed"})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Name)

	list, err := c.ListCiphers(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, c.DeleteCipher(ctx, "c-1"))

	_, err = c.GetCipher(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
