package verifier

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/suite"

	"crewbase/internal/auth/models"
	id "crewbase/pkg/domain"
	dErrors "crewbase/pkg/domain-errors"
	"crewbase/pkg/requestcontext"
)

const (
	identityKey = "identity-key"
	issuer      = "https://identity.test"
	artifactKey = "artifact-key"
)

type VerifierSuite struct {
	suite.Suite
	verifier *Verifier
	ctx      context.Context
	now      time.Time
}

func (s *VerifierSuite) SetupTest() {
	s.verifier = New(identityKey, issuer, artifactKey)
	// A fixed clock, deliberately in the past relative to any test run:
	// expiry is judged against the stamped request time, never the wall
	// clock, so the suite's outcome cannot drift with the calendar.
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func TestVerifierSuite(t *testing.T) {
	suite.Run(t, new(VerifierSuite))
}

func (s *VerifierSuite) signCredential(claims CredentialClaims, key string) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(key))
	s.Require().NoError(err)
	return signed
}

func (s *VerifierSuite) validCredential(pid id.PrincipalID) string {
	return s.signCredential(CredentialClaims{
		Email:       "user@example.com",
		DisplayName: "User One",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   pid.String(),
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(s.now.Add(time.Minute)),
		},
	}, identityKey)
}

func (s *VerifierSuite) TestVerifyCredential() {
	s.Run("accepts a well-formed credential", func() {
		pid := id.NewPrincipalID()
		identity, err := s.verifier.VerifyCredential(s.ctx, s.validCredential(pid))
		s.Require().NoError(err)
		s.Equal(pid, identity.ID)
		s.Equal("User One", identity.DisplayName)
	})

	s.Run("rejects a credential signed with the wrong key", func() {
		raw := s.signCredential(CredentialClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   id.NewPrincipalID().String(),
				Issuer:    issuer,
				ExpiresAt: jwt.NewNumericDate(s.now.Add(time.Minute)),
			},
		}, "some-other-key")
		_, err := s.verifier.VerifyCredential(s.ctx, raw)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthenticated))
	})

	s.Run("rejects an expired credential", func() {
		raw := s.signCredential(CredentialClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   id.NewPrincipalID().String(),
				Issuer:    issuer,
				ExpiresAt: jwt.NewNumericDate(s.now.Add(-time.Minute)),
			},
		}, identityKey)
		_, err := s.verifier.VerifyCredential(s.ctx, raw)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthenticated))
	})

	s.Run("rejects a foreign issuer", func() {
		raw := s.signCredential(CredentialClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   id.NewPrincipalID().String(),
				Issuer:    "https://imposter.test",
				ExpiresAt: jwt.NewNumericDate(s.now.Add(time.Minute)),
			},
		}, identityKey)
		_, err := s.verifier.VerifyCredential(s.ctx, raw)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthenticated))
	})

	s.Run("rejects a non-uuid subject", func() {
		raw := s.signCredential(CredentialClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "bob",
				Issuer:    issuer,
				ExpiresAt: jwt.NewNumericDate(s.now.Add(time.Minute)),
			},
		}, identityKey)
		_, err := s.verifier.VerifyCredential(s.ctx, raw)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthenticated))
	})

	s.Run("rejects garbage", func() {
		_, err := s.verifier.VerifyCredential(s.ctx, "not-a-jwt")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthenticated))
	})
}

func (s *VerifierSuite) TestArtifactRoundTrip() {
	identity := models.Identity{ID: id.NewPrincipalID(), DisplayName: "User One"}
	sessionID := id.NewSessionID()

	s.Run("mint then verify preserves the bindings", func() {
		raw, err := s.verifier.MintArtifact(identity, sessionID, 4, s.now, time.Hour)
		s.Require().NoError(err)

		claims, err := s.verifier.VerifyArtifact(s.ctx, raw)
		s.Require().NoError(err)
		s.Equal(identity.ID.String(), claims.Subject)
		s.Equal(sessionID.String(), claims.SessionID)
		s.Equal(int64(4), claims.Epoch)
		s.Equal("User One", claims.DisplayName)
	})

	s.Run("artifact expires at the session horizon", func() {
		raw, err := s.verifier.MintArtifact(identity, sessionID, 0, s.now.Add(-2*time.Hour), time.Hour)
		s.Require().NoError(err)

		_, err = s.verifier.VerifyArtifact(s.ctx, raw)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthenticated))
	})

	s.Run("expiry follows the stamped clock", func() {
		raw, err := s.verifier.MintArtifact(identity, sessionID, 0, s.now, time.Hour)
		s.Require().NoError(err)

		// Within the horizon on the stamped clock.
		_, err = s.verifier.VerifyArtifact(s.ctx, raw)
		s.NoError(err)

		// Past the horizon once the request time moves beyond it.
		later := requestcontext.WithTime(context.Background(), s.now.Add(2*time.Hour))
		_, err = s.verifier.VerifyArtifact(later, raw)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthenticated))

		// An unstamped context falls back to the wall clock, which is far
		// past this suite's fixed instant.
		_, err = s.verifier.VerifyArtifact(context.Background(), raw)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthenticated))
	})

	s.Run("credential key cannot mint artifacts", func() {
		// an artifact signed with the identity key should not verify
		other := New(identityKey, issuer, identityKey)
		raw, err := other.MintArtifact(identity, sessionID, 0, s.now, time.Hour)
		s.Require().NoError(err)

		_, err = s.verifier.VerifyArtifact(s.ctx, raw)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthenticated))
	})
}
