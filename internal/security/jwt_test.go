package security

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wishp-chat/chatroom-service/internal/domain"
)

func newTestSigner(t *testing.T, ttl time.Duration) *JWTSigner {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	return NewJWTSigner(key, &key.PublicKey, "chatroom-service", "chatroom-app", ttl, 30*time.Second)
}

func TestJWT_SignAndParse(t *testing.T) {
	t.Parallel()

	s := newTestSigner(t, 15*time.Minute)

	token, err := s.SignAccessToken(domain.UserID(42), time.Now())
	require.NoError(t, err)

	claims, err := s.ParseAndValidate(token)
	require.NoError(t, err)

	uid, err := SubjectAsUserID(claims)
	require.NoError(t, err)
	require.Equal(t, domain.UserID(42), uid)
}

func TestJWT_Expired(t *testing.T) {
	t.Parallel()

	s := newTestSigner(t, time.Minute)

	// выпущен два часа назад — за пределами TTL и clockSkew
	token, err := s.SignAccessToken(domain.UserID(1), time.Now().Add(-2*time.Hour))
	require.NoError(t, err)

	_, err = s.ParseAndValidate(token)
	require.Error(t, err)
}

func TestJWT_WrongKey(t *testing.T) {
	t.Parallel()

	s := newTestSigner(t, time.Minute)
	other := newTestSigner(t, time.Minute)

	token, err := s.SignAccessToken(domain.UserID(7), time.Now())
	require.NoError(t, err)

	_, err = other.ParseAndValidate(token)
	require.Error(t, err)
}

func TestJWT_EmptyAudienceOptional(t *testing.T) {
	t.Parallel()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	// audience не сконфигурирован — токены должны проходить проверку
	s := NewJWTSigner(key, &key.PublicKey, "chatroom-service", "", 15*time.Minute, 30*time.Second)

	token, err := s.SignAccessToken(domain.UserID(9), time.Now())
	require.NoError(t, err)

	claims, err := s.ParseAndValidate(token)
	require.NoError(t, err)

	uid, err := SubjectAsUserID(claims)
	require.NoError(t, err)
	require.Equal(t, domain.UserID(9), uid)
}

func TestSubjectAsUserID_Invalid(t *testing.T) {
	t.Parallel()

	_, err := SubjectAsUserID(nil)
	require.ErrorIs(t, err, domain.ErrInvalidSubject)
}
