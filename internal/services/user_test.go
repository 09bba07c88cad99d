package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"car-journal-backend/internal/apperr"
	"car-journal-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

// memUsers is an in-memory UserStore
type memUsers struct {
	mu      sync.Mutex
	seq     int
	byID    map[string]*models.User
	tokens  map[string]*models.AuthToken
	deleted []string
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[string]*models.User{}, tokens: map[string]*models.AuthToken{}}
}

func (m *memUsers) Create(ctx context.Context, user *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == user.Email {
			return nil, apperr.New(apperr.KindConflict, "email already registered")
		}
	}
	m.seq++
	cp := *user
	cp.ID = fmt.Sprintf("00000000-0000-0000-0000-%012d", m.seq)
	cp.CreatedAt = time.Now()
	m.byID[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *memUsers) find(match func(*models.User) bool) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("user")
}

func (m *memUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.ID == id })
}

func (m *memUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.Email == email })
}

func (m *memUsers) GetByGoogleSubject(ctx context.Context, subject string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.GoogleSubject != nil && *u.GoogleSubject == subject })
}

func (m *memUsers) LinkGoogle(ctx context.Context, userID, subject string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[userID]
	if !ok {
		return apperr.NotFound("user")
	}
	u.GoogleSubject = &subject
	return nil
}

func (m *memUsers) UpdatePushToken(ctx context.Context, userID string, pushToken *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[userID]
	if !ok {
		return apperr.NotFound("user")
	}
	u.PushToken = pushToken
	return nil
}

func (m *memUsers) CreateToken(ctx context.Context, token *models.AuthToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *token
	m.tokens[token.ID] = &cp
	return nil
}

func (m *memUsers) TokenActive(ctx context.Context, tokenID, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[tokenID]
	return ok && t.UserID == userID && t.ExpiresAt.After(time.Now()), nil
}

func (m *memUsers) DeleteToken(ctx context.Context, tokenID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, tokenID)
	return nil
}

func (m *memUsers) DeleteWithTokens(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, userID)
	for id, t := range m.tokens {
		if t.UserID == userID {
			delete(m.tokens, id)
		}
	}
	m.deleted = append(m.deleted, userID)
	return nil
}

type stubGoogle struct {
	identity *GoogleIdentity
	err      error
	codes    map[string]string
}

func (g *stubGoogle) VerifyIDToken(ctx context.Context, rawIDToken string) (*GoogleIdentity, error) {
	if g.err != nil {
		return nil, g.err
	}
	if rawIDToken != "good-id-token" {
		return nil, errors.New("bad signature")
	}
	return g.identity, nil
}

func (g *stubGoogle) Exchange(ctx context.Context, code string) (string, error) {
	raw, ok := g.codes[code]
	if !ok {
		return "", errors.New("invalid_grant")
	}
	return raw, nil
}

type cascadeCall struct {
	imageID  string
	et       models.EntityType
	entityID string
}

type recordingCascade struct {
	calls []cascadeCall
	err   error
}

func (c *recordingCascade) RemoveAll(ctx context.Context, imageID string, et models.EntityType, entityID string) (*CascadeOutcome, error) {
	c.calls = append(c.calls, cascadeCall{imageID, et, entityID})
	if c.err != nil {
		return nil, c.err
	}
	return &CascadeOutcome{}, nil
}

func newUserService(users *memUsers, images ImageCascade, google GoogleVerifier) *UserService {
	return NewUserService(users, images, google, NewValidator(), testSecret, 7)
}

func TestRegisterAndLogin(t *testing.T) {
	users := newMemUsers()
	svc := newUserService(users, &recordingCascade{}, nil)
	ctx := context.Background()

	session, err := svc.Register(ctx, RegisterInput{Email: "  Dana@Example.com ", Password: "correct horse", Name: "Dana"})
	require.NoError(t, err)
	assert.Equal(t, "dana@example.com", session.User.Email)
	assert.NotEmpty(t, session.Token)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), session.ExpiresAt, time.Minute)

	stored, err := users.GetByEmail(ctx, "dana@example.com")
	require.NoError(t, err)
	require.NotNil(t, stored.PasswordHash)
	assert.NotEqual(t, "correct horse", *stored.PasswordHash)

	_, err = svc.Register(ctx, RegisterInput{Email: "dana@example.com", Password: "another one"})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	again, err := svc.Login(ctx, LoginInput{Email: "DANA@example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, again.User.ID)
	assert.NotEqual(t, session.Token, again.Token, "every login opens its own session")
}

func TestRegisterValidates(t *testing.T) {
	svc := newUserService(newMemUsers(), &recordingCascade{}, nil)

	for _, input := range []RegisterInput{
		{Email: "not-an-email", Password: "long enough"},
		{Email: "a@b.test", Password: "short"},
		{Password: "long enough"},
	} {
		_, err := svc.Register(context.Background(), input)
		assert.ErrorIs(t, err, apperr.ErrBadRequest, input.Email)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	users := newMemUsers()
	svc := newUserService(users, &recordingCascade{}, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "dana@example.com", Password: "correct horse"})
	require.NoError(t, err)
	subject := "google-sub"
	_, err = users.Create(ctx, &models.User{Email: "gina@example.com", GoogleSubject: &subject})
	require.NoError(t, err)

	tests := []struct {
		name  string
		input LoginInput
	}{
		{"wrong password", LoginInput{Email: "dana@example.com", Password: "wrong horse"}},
		{"unknown email", LoginInput{Email: "nobody@example.com", Password: "correct horse"}},
		{"google-only account", LoginInput{Email: "gina@example.com", Password: "anything"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(ctx, tt.input)
			require.ErrorIs(t, err, apperr.ErrUnauthorized)
			assert.Equal(t, "invalid email or password", err.Error())
		})
	}
}

func TestJWTRoundTripAndLogout(t *testing.T) {
	users := newMemUsers()
	svc := newUserService(users, &recordingCascade{}, nil)
	ctx := context.Background()

	token, _, err := svc.GenerateJWT(ctx, alice)
	require.NoError(t, err)

	userID, tokenID, err := svc.ValidateJWT(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, alice, userID)
	assert.NotEmpty(t, tokenID)

	require.NoError(t, svc.Logout(ctx, tokenID))
	_, _, err = svc.ValidateJWT(ctx, token)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestValidateJWTRejectsForeignTokens(t *testing.T) {
	users := newMemUsers()
	svc := newUserService(users, &recordingCascade{}, nil)
	ctx := context.Background()

	sign := func(method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	future := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not.a.token"},
		{"other secret", sign(jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"user_id": alice, "jti": "x", "exp": future})},
		{"expired", sign(jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"user_id": alice, "jti": "x", "exp": time.Now().Add(-time.Hour).Unix()})},
		{"no session row", sign(jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"user_id": alice, "jti": "missing", "exp": future})},
		{"no jti", sign(jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"user_id": alice, "exp": future})},
		{"none algorithm", sign(jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, jwt.MapClaims{"user_id": alice, "jti": "x", "exp": future})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.ValidateJWT(ctx, tt.token)
			assert.ErrorIs(t, err, apperr.ErrUnauthorized)
		})
	}
}

func TestGoogleLogin(t *testing.T) {
	ctx := context.Background()
	identity := &GoogleIdentity{Subject: "sub-1", Email: "Dana@Example.com", EmailVerified: true, Name: "Dana"}

	t.Run("creates an account", func(t *testing.T) {
		users := newMemUsers()
		svc := newUserService(users, &recordingCascade{}, &stubGoogle{identity: identity})

		session, err := svc.GoogleLogin(ctx, GoogleLoginInput{IDToken: "good-id-token"})
		require.NoError(t, err)
		assert.Equal(t, "dana@example.com", session.User.Email)
		require.NotNil(t, session.User.GoogleSubject)
		assert.Equal(t, "sub-1", *session.User.GoogleSubject)

		again, err := svc.GoogleLogin(ctx, GoogleLoginInput{IDToken: "good-id-token"})
		require.NoError(t, err)
		assert.Equal(t, session.User.ID, again.User.ID)
	})

	t.Run("links an existing email account", func(t *testing.T) {
		users := newMemUsers()
		svc := newUserService(users, &recordingCascade{}, &stubGoogle{identity: identity})
		registered, err := svc.Register(ctx, RegisterInput{Email: "dana@example.com", Password: "correct horse"})
		require.NoError(t, err)

		session, err := svc.GoogleLogin(ctx, GoogleLoginInput{IDToken: "good-id-token"})
		require.NoError(t, err)
		assert.Equal(t, registered.User.ID, session.User.ID)

		linked, err := users.GetByGoogleSubject(ctx, "sub-1")
		require.NoError(t, err)
		assert.Equal(t, registered.User.ID, linked.ID)
	})

	t.Run("exchanges an authorization code", func(t *testing.T) {
		svc := newUserService(newMemUsers(), &recordingCascade{}, &stubGoogle{
			identity: identity,
			codes:    map[string]string{"auth-code": "good-id-token"},
		})

		_, err := svc.GoogleLogin(ctx, GoogleLoginInput{Code: "auth-code"})
		require.NoError(t, err)

		_, err = svc.GoogleLogin(ctx, GoogleLoginInput{Code: "stale-code"})
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	})

	t.Run("rejects unverified email", func(t *testing.T) {
		unverified := *identity
		unverified.EmailVerified = false
		svc := newUserService(newMemUsers(), &recordingCascade{}, &stubGoogle{identity: &unverified})

		_, err := svc.GoogleLogin(ctx, GoogleLoginInput{IDToken: "good-id-token"})
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	})

	t.Run("rejects a bad token", func(t *testing.T) {
		svc := newUserService(newMemUsers(), &recordingCascade{}, &stubGoogle{identity: identity})

		_, err := svc.GoogleLogin(ctx, GoogleLoginInput{IDToken: "forged"})
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)

		_, err = svc.GoogleLogin(ctx, GoogleLoginInput{})
		assert.ErrorIs(t, err, apperr.ErrBadRequest)
	})

	t.Run("disabled without verifier", func(t *testing.T) {
		svc := newUserService(newMemUsers(), &recordingCascade{}, nil)

		_, err := svc.GoogleLogin(ctx, GoogleLoginInput{IDToken: "good-id-token"})
		assert.ErrorIs(t, err, apperr.ErrBadRequest)
	})
}

func TestUpdatePushToken(t *testing.T) {
	users := newMemUsers()
	svc := newUserService(users, &recordingCascade{}, nil)
	ctx := context.Background()
	session, err := svc.Register(ctx, RegisterInput{Email: "dana@example.com", Password: "correct horse"})
	require.NoError(t, err)
	id := session.User.ID

	token := "device-token"
	require.NoError(t, svc.UpdatePushToken(ctx, id, &token))
	me, err := svc.Me(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, me.PushToken)
	assert.Equal(t, "device-token", *me.PushToken)

	blank := "   "
	require.NoError(t, svc.UpdatePushToken(ctx, id, &blank))
	me, err = svc.Me(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, me.PushToken)
}

func TestDeleteAccount(t *testing.T) {
	users := newMemUsers()
	cascade := &recordingCascade{}
	svc := newUserService(users, cascade, nil)
	ctx := context.Background()

	session, err := svc.Register(ctx, RegisterInput{Email: "dana@example.com", Password: "correct horse"})
	require.NoError(t, err)
	id := session.User.ID
	avatar := "88888888-8888-8888-8888-888888888888"
	users.byID[id].Avatar = &avatar

	require.NoError(t, svc.DeleteAccount(ctx, id))
	assert.Equal(t, []cascadeCall{{avatar, models.EntityAvatars, id}}, cascade.calls)
	assert.Equal(t, []string{id}, users.deleted)

	_, _, err = svc.ValidateJWT(ctx, session.Token)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestDeleteAccountStopsOnCascadeFailure(t *testing.T) {
	users := newMemUsers()
	cascade := &recordingCascade{err: apperr.Upstream(errStorageDown, "storage unavailable")}
	svc := newUserService(users, cascade, nil)
	ctx := context.Background()

	session, err := svc.Register(ctx, RegisterInput{Email: "dana@example.com", Password: "correct horse"})
	require.NoError(t, err)
	poster := "99999999-9999-9999-9999-999999999999"
	users.byID[session.User.ID].Poster = &poster

	err = svc.DeleteAccount(ctx, session.User.ID)
	assert.ErrorIs(t, err, apperr.ErrUpstream)
	assert.Empty(t, users.deleted)
}
