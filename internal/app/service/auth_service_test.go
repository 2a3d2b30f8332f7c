package service

import (
	"context"
	"testing"
	"time"

	"codequest_admin/internal/common"
	"codequest_admin/internal/common/security"
	"codequest_admin/internal/domain/repository"
	"codequest_admin/internal/platform/logging"
	"codequest_admin/internal/platform/tokenstore"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authFixture struct {
	auth     *AuthService
	tokens   tokenstore.Store
	issuer   *security.TokenIssuer
	sessions *SessionManager
}

func newLocalAuth(t *testing.T) *authFixture {
	t.Helper()
	hash, err := security.HashPassword("s3cret!")
	require.NoError(t, err)

	mem := repository.NewMemoryStore()
	repository.SeedDemoData(mem, seedTime)

	tokens := tokenstore.NewMemoryStore()
	issuer := security.NewTokenIssuer([]byte("test-secret"), time.Hour)
	sessions := NewSessionManager(func(string) repository.RoomStore { return mem }, nil, nil, logging.Discard())
	identity := NewLocalIdentity("Admin@CodeQuest.io", "Admin User", hash, tokens)
	return &authFixture{
		auth:     NewAuthService(identity, tokens, issuer, sessions, logging.Discard()),
		tokens:   tokens,
		issuer:   issuer,
		sessions: sessions,
	}
}

func sessionIDOf(t *testing.T, issuer *security.TokenIssuer, token string) string {
	t.Helper()
	tok, err := issuer.JWTAuth().Decode(token)
	require.NoError(t, err)
	claims, err := tok.AsMap(context.Background())
	require.NoError(t, err)
	sid, err := security.GetSessionIDFromClaims(claims)
	require.NoError(t, err)
	return sid
}

func authorized(t *testing.T, auth *AuthService, sessionID string) bool {
	t.Helper()
	ok, err := auth.Authorized(context.Background(), sessionID)
	require.NoError(t, err)
	return ok
}

func TestAuthServiceLocalLogin(t *testing.T) {
	f := newLocalAuth(t)
	ctx := context.Background()

	_, err := f.auth.Login(ctx, LoginRequest{Email: "admin@codequest.io", Password: "wrong"})
	assert.ErrorIs(t, err, common.ErrUnauthorized)
	_, err = f.auth.Login(ctx, LoginRequest{Email: "someone@codequest.io", Password: "s3cret!"})
	assert.ErrorIs(t, err, common.ErrUnauthorized)
	_, err = f.auth.Login(ctx, LoginRequest{})
	assert.ErrorIs(t, err, common.ErrBadRequest)

	resp, err := f.auth.Login(ctx, LoginRequest{Email: " admin@codequest.io ", Password: "s3cret!"})
	require.NoError(t, err)
	assert.Equal(t, "Admin User", resp.Admin.Name)
	assert.Equal(t, "admin", resp.Admin.Role)

	sid := sessionIDOf(t, f.issuer, resp.Token)
	assert.True(t, authorized(t, f.auth, sid))
	gs, ok := f.sessions.Get(sid)
	require.True(t, ok)
	assert.Len(t, gs.ListRooms(), 1)

	me, err := f.auth.Me(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, resp.Admin, *me)
}

func TestAuthServiceLogout(t *testing.T) {
	f := newLocalAuth(t)
	ctx := context.Background()

	resp, err := f.auth.Login(ctx, LoginRequest{Email: "admin@codequest.io", Password: "s3cret!"})
	require.NoError(t, err)
	sid := sessionIDOf(t, f.issuer, resp.Token)

	require.NoError(t, f.auth.Logout(ctx, sid))
	assert.False(t, authorized(t, f.auth, sid))
	assert.Zero(t, f.sessions.Len())

	_, err = f.auth.Me(ctx, sid)
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestAuthServiceMeClearsRejectedCredential(t *testing.T) {
	f := newLocalAuth(t)
	ctx := context.Background()

	resp, err := f.auth.Login(ctx, LoginRequest{Email: "admin@codequest.io", Password: "s3cret!"})
	require.NoError(t, err)
	sid := sessionIDOf(t, f.issuer, resp.Token)

	require.NoError(t, f.tokens.Save(ctx, sid, "stale-token"))
	_, err = f.auth.Me(ctx, sid)
	assert.ErrorIs(t, err, common.ErrUnauthorized)
	assert.False(t, authorized(t, f.auth, sid))
	_, ok := f.sessions.Get(sid)
	assert.False(t, ok)
}

func TestAuthServiceLocalRegisterNotSupported(t *testing.T) {
	f := newLocalAuth(t)
	_, err := f.auth.Register(context.Background(), RegisterRequest{Username: "root", Email: "a@b.io", Password: "123456"})
	assert.ErrorIs(t, err, common.ErrNotSupported)
}

func TestLocalIdentityWithoutPassword(t *testing.T) {
	id := NewLocalIdentity("admin@codequest.io", "Admin", "", tokenstore.NewMemoryStore())
	_, err := id.Login(context.Background(), LoginRequest{Email: "admin@codequest.io", Password: "x"})
	assert.ErrorIs(t, err, common.ErrServiceUnavailable)
}

func TestSessionManagerOpenIsIdempotent(t *testing.T) {
	mem := repository.NewMemoryStore()
	calls := 0
	m := NewSessionManager(func(string) repository.RoomStore {
		calls++
		return mem
	}, nil, nil, logging.Discard())
	ctx := context.Background()

	a, err := m.Open(ctx, "s1", time.Time{})
	require.NoError(t, err)
	b, err := m.Open(ctx, "s1", time.Time{})
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, 1, calls)

	m.Close("s1")
	_, ok := m.Get("s1")
	assert.False(t, ok)
}

func TestSessionManagerExpired(t *testing.T) {
	mem := repository.NewMemoryStore()
	m := NewSessionManager(func(string) repository.RoomStore { return mem }, nil, nil, logging.Discard())
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	_, err := m.Open(ctx, "short", now.Add(time.Hour))
	require.NoError(t, err)
	_, err = m.Open(ctx, "long", now.Add(3*time.Hour))
	require.NoError(t, err)
	_, err = m.Open(ctx, "forever", time.Time{})
	require.NoError(t, err)
	// a later token for the same session extends it; an earlier one does not
	_, err = m.Open(ctx, "long", now.Add(time.Minute))
	require.NoError(t, err)
	_, err = m.Open(ctx, "short", now.Add(4*time.Hour))
	require.NoError(t, err)

	assert.Empty(t, m.Expired(now.Add(2*time.Hour)))
	assert.ElementsMatch(t, []string{"long"}, m.Expired(now.Add(3*time.Hour+time.Second)))
	assert.Equal(t, 2, m.Len())
	_, ok := m.Get("long")
	assert.False(t, ok)

	assert.ElementsMatch(t, []string{"short"}, m.Expired(now.Add(24*time.Hour)))
	_, ok = m.Get("forever")
	assert.True(t, ok)
}

func TestAuthServiceExpireSessions(t *testing.T) {
	f := newLocalAuth(t)
	ctx := context.Background()

	resp, err := f.auth.Login(ctx, LoginRequest{Email: "admin@codequest.io", Password: "s3cret!"})
	require.NoError(t, err)
	sid := sessionIDOf(t, f.issuer, resp.Token)

	assert.Zero(t, f.auth.ExpireSessions(ctx, time.Now()))
	assert.Equal(t, 1, f.sessions.Len())
	assert.True(t, authorized(t, f.auth, sid))

	assert.Equal(t, 1, f.auth.ExpireSessions(ctx, time.Now().Add(2*time.Hour)))
	assert.Zero(t, f.sessions.Len())
	assert.False(t, authorized(t, f.auth, sid))
}

func TestAuthServiceRunExpiry(t *testing.T) {
	hash, err := security.HashPassword("s3cret!")
	require.NoError(t, err)
	mem := repository.NewMemoryStore()
	tokens := tokenstore.NewMemoryStore()
	issuer := security.NewTokenIssuer([]byte("test-secret"), 20*time.Millisecond)
	sessions := NewSessionManager(func(string) repository.RoomStore { return mem }, nil, nil, logging.Discard())
	auth := NewAuthService(NewLocalIdentity("admin@codequest.io", "Admin", hash, tokens), tokens, issuer, sessions, logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		auth.RunExpiry(ctx, 10*time.Millisecond)
	}()

	_, err = auth.Login(ctx, LoginRequest{Email: "admin@codequest.io", Password: "s3cret!"})
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return sessions.Len() == 0 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expiry loop did not stop")
	}
}

func TestAuthServiceAccountRegisterAndLogin(t *testing.T) {
	tokens := tokenstore.NewMemoryStore()
	issuer := security.NewTokenIssuer([]byte("test-secret"), time.Hour)
	mem := repository.NewMemoryStore()
	sessions := NewSessionManager(func(string) repository.RoomStore { return mem }, nil, nil, logging.Discard())
	auth := NewAuthService(NewAccountIdentity(repository.NewMemoryAdminRepository(), tokens), tokens, issuer, sessions, logging.Discard())
	ctx := context.Background()

	reg := RegisterRequest{Username: "arena-host", Email: "Host@Arena.io", Password: "hunter22", TeamName: "Hosts"}
	created, err := auth.Register(ctx, reg)
	require.NoError(t, err)
	assert.Equal(t, "host@arena.io", created.Admin.Email)
	assert.Equal(t, "admin", created.Admin.Role)

	_, err = auth.Register(ctx, reg)
	assert.ErrorIs(t, err, common.ErrConflict)

	_, err = auth.Login(ctx, LoginRequest{Email: "host@arena.io", Password: "wrong"})
	assert.ErrorIs(t, err, common.ErrUnauthorized)
	_, err = auth.Login(ctx, LoginRequest{Email: "nobody@arena.io", Password: "hunter22"})
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	resp, err := auth.Login(ctx, LoginRequest{Email: "host@arena.io", Password: "hunter22"})
	require.NoError(t, err)
	sid := sessionIDOf(t, issuer, resp.Token)

	me, err := auth.Me(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, created.Admin, *me)
}

func TestAuthServiceTokenStoreOutageKeepsSession(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { rdb.Close() })

	hash, err := security.HashPassword("s3cret!")
	require.NoError(t, err)
	mem := repository.NewMemoryStore()
	repository.SeedDemoData(mem, seedTime)
	tokens := tokenstore.NewRedisStore(rdb)
	issuer := security.NewTokenIssuer([]byte("test-secret"), time.Hour)
	sessions := NewSessionManager(func(string) repository.RoomStore { return mem }, nil, nil, logging.Discard())
	auth := NewAuthService(NewLocalIdentity("admin@codequest.io", "Admin User", hash, tokens), tokens, issuer, sessions, logging.Discard())
	ctx := context.Background()

	resp, err := auth.Login(ctx, LoginRequest{Email: "admin@codequest.io", Password: "s3cret!"})
	require.NoError(t, err)
	sid := sessionIDOf(t, issuer, resp.Token)

	mr.SetError("LOADING Redis is loading the dataset in memory")
	ok, err := auth.Authorized(ctx, sid)
	assert.ErrorIs(t, err, common.ErrServiceUnavailable)
	assert.False(t, ok)
	_, err = auth.Me(ctx, sid)
	assert.ErrorIs(t, err, common.ErrServiceUnavailable)
	_, open := sessions.Get(sid)
	assert.True(t, open, "a store outage does not end the session")

	mr.SetError("")
	assert.True(t, authorized(t, auth, sid))
	me, err := auth.Me(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, "Admin User", me.Name)
}
