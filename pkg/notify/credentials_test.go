package notify

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func generateTestKey(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("cannot generate test key: %v", err)
	}

	pemKey := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})

	return key, string(pemKey)
}

func testTokenReqFunc(statusCode int, responseBody string, callError error, requestAssert func(req *http.Request)) httpRequestFunc {
	return func(req *http.Request) (*http.Response, error) {
		requestAssert(req)

		if callError != nil {
			return nil, callError
		}

		return &http.Response{
			StatusCode: statusCode,
			Body:       io.NopCloser(strings.NewReader(responseBody)),
		}, nil
	}
}

func TestTokenSource_ExchangesSignedAssertionForAccessToken(t *testing.T) {
	key, pemKey := generateTestKey(t)

	config := CredentialConfig{
		ClientEmail:   "svc@project.iam.gserviceaccount.com",
		PrivateKey:    pemKey,
		TokenEndpoint: "https://oauth.test/token",
	}

	source := serviceAccountTokenSource{config, testTokenReqFunc(200, `{"access_token":"access-token-1"}`, nil, func(req *http.Request) {
		if req.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", req.Method)
		}

		if err := req.ParseForm(); err != nil {
			t.Fatalf("cannot parse token request form: %v", err)
		}

		if grantType := req.PostForm.Get("grant_type"); grantType != jwtBearerGrantType {
			t.Errorf("unexpected grant type: %s", grantType)
		}

		assertion := req.PostForm.Get("assertion")
		var claims assertionClaims
		_, err := jwt.ParseWithClaims(assertion, &claims, func(*jwt.Token) (interface{}, error) {
			return &key.PublicKey, nil
		}, jwt.WithValidMethods([]string{"RS256"}))
		if err != nil {
			t.Fatalf("assertion does not verify against the service key: %v", err)
		}

		if claims.Issuer != "svc@project.iam.gserviceaccount.com" {
			t.Errorf("unexpected assertion issuer: %s", claims.Issuer)
		}

		if claims.Scope != messagingScope {
			t.Errorf("unexpected assertion scope: %s", claims.Scope)
		}
	})}

	token, err := source.Token(context.Background())
	if err != nil {
		t.Fatalf("expected token, got error: %v", err)
	}

	if token != "access-token-1" {
		t.Errorf("unexpected access token: %s", token)
	}
}

func TestTokenSource_FailsWithCredentialUnavailableOnBadKey(t *testing.T) {
	config := CredentialConfig{
		ClientEmail:   "svc@project.iam.gserviceaccount.com",
		PrivateKey:    "not a pem key",
		TokenEndpoint: "https://oauth.test/token",
	}

	source := serviceAccountTokenSource{config, testTokenReqFunc(200, "{}", nil, func(*http.Request) {})}

	if _, err := source.Token(context.Background()); !errors.Is(err, ErrCredentialUnavailable) {
		t.Errorf("expected ErrCredentialUnavailable, got: %v", err)
	}
}

func TestTokenSource_FailsWhenExchangeIsRejected(t *testing.T) {
	_, pemKey := generateTestKey(t)

	config := CredentialConfig{
		ClientEmail:   "svc@project.iam.gserviceaccount.com",
		PrivateKey:    pemKey,
		TokenEndpoint: "https://oauth.test/token",
	}

	source := serviceAccountTokenSource{config, testTokenReqFunc(401, `{"error":"invalid_grant"}`, nil, func(*http.Request) {})}

	if _, err := source.Token(context.Background()); !errors.Is(err, ErrCredentialUnavailable) {
		t.Errorf("expected ErrCredentialUnavailable, got: %v", err)
	}
}

func TestTokenSource_FailsOnEmptyAccessToken(t *testing.T) {
	_, pemKey := generateTestKey(t)

	config := CredentialConfig{
		ClientEmail:   "svc@project.iam.gserviceaccount.com",
		PrivateKey:    pemKey,
		TokenEndpoint: "https://oauth.test/token",
	}

	source := serviceAccountTokenSource{config, testTokenReqFunc(200, `{}`, nil, func(*http.Request) {})}

	if _, err := source.Token(context.Background()); !errors.Is(err, ErrCredentialUnavailable) {
		t.Errorf("expected ErrCredentialUnavailable, got: %v", err)
	}
}
