// Package verifier validates the two bearer tokens this core deals with: the
// short-lived credential minted by the external identity authority, and the
// long-lived session artifact minted by us. Both are JWTs; verification is
// pure and has no side effects.
package verifier

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"crewbase/internal/auth/models"
	id "crewbase/pkg/domain"
	dErrors "crewbase/pkg/domain-errors"
	"crewbase/pkg/requestcontext"
)

// CredentialClaims is the shape the identity authority signs.
type CredentialClaims struct {
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// ArtifactClaims is the shape of our session artifact. Epoch snapshots the
// principal's session epoch at issuance; verification later compares it
// against the current epoch so a single bump invalidates every outstanding
// artifact for that principal.
type ArtifactClaims struct {
	SessionID   string `json:"session_id"`
	Epoch       int64  `json:"epoch"`
	DisplayName string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Verifier validates credentials and mints/validates session artifacts.
type Verifier struct {
	identityKey []byte
	issuer      string
	artifactKey []byte
}

func New(identityKey, identityIssuer, artifactKey string) *Verifier {
	return &Verifier{
		identityKey: []byte(identityKey),
		issuer:      identityIssuer,
		artifactKey: []byte(artifactKey),
	}
}

// VerifyCredential validates an externally-issued credential and yields the
// asserted identity. Fails with CodeUnauthenticated on any structural,
// signature, or expiry problem. Expiry is judged against the request's
// stamped clock.
func (v *Verifier) VerifyCredential(ctx context.Context, raw string) (models.Identity, error) {
	claims := &CredentialClaims{}
	if err := v.parse(ctx, raw, claims, v.identityKey); err != nil {
		return models.Identity{}, err
	}
	if claims.Issuer != v.issuer {
		return models.Identity{}, dErrors.New(dErrors.CodeUnauthenticated, "credential issuer not recognized")
	}
	pid, err := id.ParsePrincipalID(claims.Subject)
	if err != nil {
		return models.Identity{}, dErrors.New(dErrors.CodeUnauthenticated, "credential subject is not a principal id")
	}
	return models.Identity{
		ID:          pid,
		Email:       claims.Email,
		DisplayName: claims.DisplayName,
	}, nil
}

// MintArtifact issues a session artifact bound to one principal, one session
// identifier, and the principal's current epoch. TTL is the caller's fixed
// session horizon, not the inactivity window.
func (v *Verifier) MintArtifact(identity models.Identity, sessionID id.SessionID, epoch int64, now time.Time, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, ArtifactClaims{
		SessionID:   sessionID.String(),
		Epoch:       epoch,
		DisplayName: identity.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	})
	signed, err := token.SignedString(v.artifactKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign session artifact")
	}
	return signed, nil
}

// VerifyArtifact validates a session artifact and returns its claims. The
// caller still has to check the embedded epoch against the current one.
func (v *Verifier) VerifyArtifact(ctx context.Context, raw string) (ArtifactClaims, error) {
	claims := &ArtifactClaims{}
	if err := v.parse(ctx, raw, claims, v.artifactKey); err != nil {
		return ArtifactClaims{}, err
	}
	if claims.SessionID == "" {
		return ArtifactClaims{}, dErrors.New(dErrors.CodeUnauthenticated, "artifact missing session id")
	}
	return *claims, nil
}

// parse checks expiry against requestcontext.Now so one request reasons about
// every token on the same clock reading.
func (v *Verifier) parse(ctx context.Context, raw string, claims jwt.Claims, key []byte) error {
	parsed, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return key, nil
	}, jwt.WithTimeFunc(func() time.Time { return requestcontext.Now(ctx) }))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return dErrors.New(dErrors.CodeUnauthenticated, "token has expired")
		}
		return dErrors.New(dErrors.CodeUnauthenticated, "invalid token")
	}
	if !parsed.Valid {
		return dErrors.New(dErrors.CodeUnauthenticated, "invalid token")
	}
	return nil
}
