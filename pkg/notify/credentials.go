package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	defaultTokenEndpoint = "https://oauth2.googleapis.com/token"
	messagingScope       = "https://www.googleapis.com/auth/firebase.messaging"
	jwtBearerGrantType   = "urn:ietf:params:oauth:grant-type:jwt-bearer"

	assertionTTL = time.Hour
)

type CredentialConfig struct {
	ClientEmail string
	// PrivateKey is the service account's PEM-encoded RSA key.
	PrivateKey string
	// TokenEndpoint defaults to the Google OAuth2 token endpoint.
	TokenEndpoint string
}

type serviceAccountTokenSource struct {
	config      CredentialConfig
	makeRequest httpRequestFunc
}

var _ TokenSource = (*serviceAccountTokenSource)(nil)

func NewServiceAccountTokenSource(config CredentialConfig) TokenSource {
	if config.TokenEndpoint == "" {
		config.TokenEndpoint = defaultTokenEndpoint
	}

	return &serviceAccountTokenSource{config, http.DefaultClient.Do}
}

type assertionClaims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

func (s *serviceAccountTokenSource) Token(ctx context.Context) (string, error) {
	assertion, err := s.signAssertion()
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrCredentialUnavailable, err)
	}

	form := url.Values{
		"grant_type": {jwtBearerGrantType},
		"assertion":  {assertion},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.TokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrCredentialUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	response, err := s.makeRequest(req)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrCredentialUnavailable, err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrCredentialUnavailable, err)
	}

	if response.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: token exchange returned status %d", ErrCredentialUnavailable, response.StatusCode)
	}

	var parsed struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%w: %s", ErrCredentialUnavailable, err)
	}

	if parsed.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token in exchange response", ErrCredentialUnavailable)
	}

	return parsed.AccessToken, nil
}

func (s *serviceAccountTokenSource) signAssertion() (string, error) {
	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(s.config.PrivateKey))
	if err != nil {
		return "", err
	}

	now := time.Now()
	claims := assertionClaims{
		Scope: messagingScope,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.ClientEmail,
			Subject:   s.config.ClientEmail,
			Audience:  jwt.ClaimStrings{s.config.TokenEndpoint},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(assertionTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(privateKey)
}

var ErrCredentialUnavailable = errors.New("push credential unavailable")
