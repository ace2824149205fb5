package identity

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultCertsURL = "https://www.googleapis.com/robot/v1/metadata/x509/securetoken@system.gserviceaccount.com"

type httpRequestFunc func(req *http.Request) (*http.Response, error)

type VerifierConfig struct {
	ProjectID string
	// CertsURL defaults to the identity provider's published x509 endpoint.
	CertsURL string
}

type tokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type tokenVerifier struct {
	config      VerifierConfig
	makeRequest httpRequestFunc

	mu          sync.Mutex
	certs       map[string]*rsa.PublicKey
	certsExpiry time.Time
}

var _ Verifier = (*tokenVerifier)(nil)

func NewTokenVerifier(config VerifierConfig) Verifier {
	if config.CertsURL == "" {
		config.CertsURL = defaultCertsURL
	}

	return &tokenVerifier{
		config:      config,
		makeRequest: http.DefaultClient.Do,
	}
}

func (v *tokenVerifier) Verify(ctx context.Context, idToken string) (*Claims, error) {
	keyFunc := func(token *jwt.Token) (interface{}, error) {
		kid, ok := token.Header["kid"].(string)
		if !ok {
			return nil, errors.New("token has no kid header")
		}
		return v.signingKey(ctx, kid)
	}

	var claims tokenClaims
	_, err := jwt.ParseWithClaims(
		idToken,
		&claims,
		keyFunc,
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer("https://securetoken.google.com/"+v.config.ProjectID),
		jwt.WithAudience(v.config.ProjectID),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return &Claims{
		UserID: claims.Subject,
		Email:  claims.Email,
	}, nil
}

func (v *tokenVerifier) signingKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if time.Now().After(v.certsExpiry) {
		if err := v.refreshCerts(ctx); err != nil {
			return nil, err
		}
	}

	key, found := v.certs[kid]
	if !found {
		return nil, errors.New("unknown signing key: " + kid)
	}

	return key, nil
}

// refreshCerts must be called with the lock held.
func (v *tokenVerifier) refreshCerts(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.config.CertsURL, nil)
	if err != nil {
		return err
	}

	response, err := v.makeRequest(req)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("cert endpoint returned status %d", response.StatusCode)
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return err
	}

	var pemCerts map[string]string
	if err := json.Unmarshal(body, &pemCerts); err != nil {
		return err
	}

	certs := make(map[string]*rsa.PublicKey, len(pemCerts))
	for kid, pemCert := range pemCerts {
		key, err := parsePublicKey(pemCert)
		if err != nil {
			return err
		}
		certs[kid] = key
	}

	v.certs = certs
	v.certsExpiry = time.Now().Add(certsMaxAge(response.Header.Get("Cache-Control")))
	return nil
}

func parsePublicKey(pemCert string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(pemCert))
	if block == nil {
		return nil, errors.New("cert is not PEM encoded")
	}

	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, err
	}

	key, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("cert does not carry an RSA public key")
	}

	return key, nil
}

var maxAgePattern = regexp.MustCompile(`max-age=(\d+)`)

func certsMaxAge(cacheControl string) time.Duration {
	match := maxAgePattern.FindStringSubmatch(cacheControl)
	if match == nil {
		return time.Hour
	}

	seconds, err := strconv.Atoi(match[1])
	if err != nil || seconds <= 0 {
		return time.Hour
	}

	return time.Duration(seconds) * time.Second
}

var ErrInvalidToken = errors.New("invalid identity token")
