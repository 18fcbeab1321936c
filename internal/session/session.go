package session

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	messagePrefix = "PayDay login: "
	issuer        = "payday"
)

var (
	ErrInvalidAddress   = errors.New("invalid wallet address")
	ErrInvalidSignature = errors.New("invalid wallet signature")
	ErrInvalidToken     = errors.New("invalid session token")
)

// Challenges is the nonce storage used by Manager.
type Challenges interface {
	Put(address, nonce string) error
	Peek(address string) (string, error)
	Take(address string) (string, error)
}

// Manager connects wallets by signed challenge and issues session tokens.
type Manager struct {
	challenges Challenges
	secret     []byte
	ttl        time.Duration
	now        func() time.Time
	logger     zerolog.Logger
}

func NewManager(challenges Challenges, secret string, ttl time.Duration, logger zerolog.Logger) *Manager {
	return &Manager{
		challenges: challenges,
		secret:     []byte(secret),
		ttl:        ttl,
		now:        time.Now,
		logger:     logger,
	}
}

// ChallengeMessage is the exact text a wallet signs to connect.
func ChallengeMessage(nonce string) string {
	return messagePrefix + nonce
}

// Challenge issues a fresh nonce for address and returns the message to sign.
func (m *Manager) Challenge(address string) (string, error) {
	if _, err := types.DecodeAddress(address); err != nil {
		return "", ErrInvalidAddress
	}

	nonce := uuid.New().String()
	if err := m.challenges.Put(address, nonce); err != nil {
		return "", fmt.Errorf("failed to store challenge: %w", err)
	}
	return ChallengeMessage(nonce), nil
}

// Connect checks the wallet's signature over the pending challenge and returns a session token.
// The signature is the wallet's arbitrary-bytes signature ("MX" prefixed), base64 encoded.
func (m *Manager) Connect(address, signatureB64 string) (string, error) {
	addr, err := types.DecodeAddress(address)
	if err != nil {
		return "", ErrInvalidAddress
	}

	// A failed signature leaves the challenge pending; only a verified one consumes it.
	nonce, err := m.challenges.Peek(address)
	if err != nil {
		return "", err
	}

	sig, err := base64.StdEncoding.DecodeString(signatureB64)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return "", ErrInvalidSignature
	}
	if !crypto.VerifyBytes(ed25519.PublicKey(addr[:]), []byte(ChallengeMessage(nonce)), sig) {
		return "", ErrInvalidSignature
	}

	taken, err := m.challenges.Take(address)
	if err != nil {
		return "", err
	}
	if taken != nonce {
		return "", ErrChallengeNotFound
	}

	now := m.now()
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   address,
		ID:        uuid.New().String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	m.logger.Info().Str("address", address).Msg("Wallet connected")
	return token, nil
}

// Verify returns the wallet address a session token was issued for.
func (m *Manager) Verify(token string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if _, err = types.DecodeAddress(claims.Subject); err != nil {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

type contextKey struct{}

// WithAddress stores the connected wallet address in ctx.
func WithAddress(ctx context.Context, address string) context.Context {
	return context.WithValue(ctx, contextKey{}, address)
}

// AddressFromContext returns the connected wallet address, if any.
func AddressFromContext(ctx context.Context) (string, bool) {
	address, ok := ctx.Value(contextKey{}).(string)
	return address, ok && address != ""
}

// Middleware rejects requests without a valid bearer session.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			unauthorized(w)
			return
		}

		address, err := m.Verify(strings.TrimSpace(raw))
		if err != nil {
			m.logger.Warn().Err(err).Msg("Rejected session token")
			unauthorized(w)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithAddress(r.Context(), address)))
	})
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"Please connect wallet first"}`))
}
