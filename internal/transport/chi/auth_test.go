package chi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// capture records the principal the handler saw.
func capture(seen **string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u := PrincipalFromContext(r.Context()); u != nil {
			email := u.Email
			*seen = &email
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware_NoHeader_Anonymous(t *testing.T) {
	var seen *string
	handler := AuthMiddleware(newAuthn())(capture(&seen))

	req := httptest.NewRequest("GET", "/index", http.NoBody)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("no header: got %d, want %d", rr.Code, http.StatusOK)
	}
	if seen != nil {
		t.Errorf("principal = %q, want anonymous", *seen)
	}
}

func TestAuthMiddleware_Bearer(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"valid", "Bearer good-token", writerUser.Email},
		{"lowercase scheme", "bearer good-token", writerUser.Email},
		{"unknown token", "Bearer bad-token", ""},
		{"empty token", "Bearer ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen *string
			handler := AuthMiddleware(newAuthn())(capture(&seen))

			req := httptest.NewRequest("GET", "/index", http.NoBody)
			req.Header.Set("Authorization", tt.header)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != http.StatusOK {
				t.Fatalf("got %d, want %d", rr.Code, http.StatusOK)
			}
			got := ""
			if seen != nil {
				got = *seen
			}
			if got != tt.want {
				t.Errorf("principal = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAuthMiddleware_Basic(t *testing.T) {
	tests := []struct {
		name     string
		user     string
		password string
		want     string
	}{
		{"valid", writerUser.Email, "correct-horse", writerUser.Email},
		{"wrong password", writerUser.Email, "wrong", ""},
		{"unknown user", "ghost@x.org", "correct-horse", ""},
		{"empty user", "", "correct-horse", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen *string
			handler := AuthMiddleware(newAuthn())(capture(&seen))

			req := httptest.NewRequest("GET", "/index", http.NoBody)
			req.SetBasicAuth(tt.user, tt.password)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			got := ""
			if seen != nil {
				got = *seen
			}
			if got != tt.want {
				t.Errorf("principal = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAuthMiddleware_ExemptPaths(t *testing.T) {
	for _, path := range []string{"/health", "/metrics"} {
		authn := newAuthn()
		var seen *string
		handler := AuthMiddleware(authn)(capture(&seen))

		req := httptest.NewRequest("GET", path, http.NoBody)
		req.Header.Set("Authorization", "Bearer good-token")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("%s: got %d, want %d", path, rr.Code, http.StatusOK)
		}
		if authn.calls != 0 {
			t.Errorf("%s: credentials verified %d times, want 0", path, authn.calls)
		}
		if seen != nil {
			t.Errorf("%s: principal = %q, want anonymous", path, *seen)
		}
	}
}

func TestRouter_TokenRateLimit(t *testing.T) {
	h := newHarness()
	h.opts.TokenRequestsPerMinute = 1
	h.users.loginFn = func(string, string) (string, error) { return "tok", nil }
	router := h.router()

	send := func() int {
		req := httptest.NewRequest("POST", "/auth/token",
			strings.NewReader("username=writer@x.org&password=correct-horse"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.RemoteAddr = "10.0.0.1:1234"
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr.Code
	}

	if got := send(); got != http.StatusOK {
		t.Fatalf("first request: got %d, want %d", got, http.StatusOK)
	}
	if got := send(); got != http.StatusTooManyRequests {
		t.Errorf("second request: got %d, want %d", got, http.StatusTooManyRequests)
	}
}
