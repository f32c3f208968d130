package httpadapter

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/kirillkom/ai-closet/internal/config"
)

const testSecret = "test-secret"

func signToken(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestIdentityUsesTokenClaimOverQuery(t *testing.T) {
	svc := newTestServices(seededItem("a", "owner"), seededItem("b", "intruder"))
	handler := NewRouter(svc.Services(), config.Config{JWTSecret: testSecret}, "", nil).Handler()

	token := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
		"user_id": "owner",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	req := httptest.NewRequest(http.MethodGet, "/api/clothing?userId=intruder", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res := serve(handler, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if calls := svc.clothing.calls; len(calls) != 1 || calls[0] != "list:owner" {
		t.Fatalf("expected list scoped to token user, got %v", calls)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/clothing/b", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	if res := serve(handler, req); res.Code != http.StatusNotFound {
		t.Fatalf("another user's item must read as not found, got %d", res.Code)
	}
}

func TestIdentityRejectsBadTokens(t *testing.T) {
	handler := newTestHandler(config.Config{JWTSecret: testSecret})

	cases := map[string]string{
		"missing": "",
		"expired": "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
			"user_id": "u1",
			"exp":     time.Now().Add(-time.Minute).Unix(),
		}),
		"wrong secret": "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{
			"user_id": "u1",
			"exp":     time.Now().Add(time.Hour).Unix(),
		}),
		"no user claim": "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
			"exp": time.Now().Add(time.Hour).Unix(),
		}),
		"no expiry": "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
			"user_id": "u1",
		}),
		"wrong algorithm": "Bearer " + signToken(t, jwt.SigningMethodHS384, []byte(testSecret), jwt.MapClaims{
			"user_id": "u1",
			"exp":     time.Now().Add(time.Hour).Unix(),
		}),
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/clothing", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			if res := serve(handler, req); res.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", res.Code)
			}
		})
	}
}

func TestHealthNeedsNoToken(t *testing.T) {
	handler := newTestHandler(config.Config{JWTSecret: testSecret})
	if res := serve(handler, httptest.NewRequest(http.MethodGet, "/api/health", nil)); res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
}

func TestBearerToken(t *testing.T) {
	for header, want := range map[string]string{
		"Bearer abc":   "abc",
		"bearer  abc ": "abc",
		"Basic abc":    "",
		"Bearer ":      "",
	} {
		got, ok := bearerToken(header)
		if got != want || ok != (want != "") {
			t.Fatalf("bearerToken(%q) = %q, %v", header, got, ok)
		}
	}
}
