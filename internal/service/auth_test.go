package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volunteerhub/volunteerhub-api/internal/config"
	"github.com/volunteerhub/volunteerhub-api/internal/domain"
	"github.com/volunteerhub/volunteerhub-api/internal/pkg/mailer"
	"github.com/volunteerhub/volunteerhub-api/internal/repository"
	"github.com/volunteerhub/volunteerhub-api/internal/repository/dao"
	"github.com/volunteerhub/volunteerhub-api/internal/testutil"
)

type fakeMailer struct {
	mu   sync.Mutex
	fail bool
	sent []mailer.OtpMessage
}

func (m *fakeMailer) SendOtp(_ context.Context, msg mailer.OtpMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fail {
		return errors.New("broker unavailable")
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMailer) Close() error { return nil }

func (m *fakeMailer) last() mailer.OtpMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent[len(m.sent)-1]
}

type authEnv struct {
	svc    *AuthService
	users  *repository.UserRepository
	mailer *fakeMailer
}

func newAuthEnv(t *testing.T) authEnv {
	t.Helper()

	db := testutil.NewSQLiteDB(t)
	users := repository.NewUserRepository(dao.NewUserDAO(db))
	otps := repository.NewOtpRepository(dao.NewOtpDAO(db))
	m := &fakeMailer{}

	return authEnv{
		svc:    NewAuthService(users, otps, m, &config.OtpConfig{TTL: 5 * time.Minute, Issuer: "VolunteerHub"}),
		users:  users,
		mailer: m,
	}
}

func (e authEnv) signup(t *testing.T, email, password string, role domain.Role) domain.User {
	t.Helper()

	ctx := context.Background()
	_, err := e.svc.RequestOtp(ctx, email, domain.OtpPurposeRegister)
	require.NoError(t, err)

	user, err := e.svc.Signup(ctx, domain.User{Email: email, Password: password, Name: "Jamie", Role: role}, e.mailer.last().Code)
	require.NoError(t, err)

	return user
}

func TestAuthService_SignupAndLogin(t *testing.T) {
	env := newAuthEnv(t)
	ctx := context.Background()

	expires, err := env.svc.RequestOtp(ctx, "jamie@example.com", domain.OtpPurposeRegister)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), expires, 5*time.Second)

	msg := env.mailer.last()
	assert.Equal(t, "jamie@example.com", msg.Email)
	assert.Len(t, msg.Code, 6)
	assert.Equal(t, "REGISTER", msg.Purpose)

	_, err = env.svc.Signup(ctx, domain.User{Email: "jamie@example.com", Password: "secret123", Role: domain.RoleVolunteer}, "000000x")
	assert.ErrorIs(t, err, ErrInvalidOtp)

	user, err := env.svc.Signup(ctx, domain.User{
		Email:    "jamie@example.com",
		Password: "secret123",
		Name:     "Jamie",
		Role:     domain.RoleVolunteer,
	}, msg.Code)
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, domain.UserStatusActive, user.Status)
	assert.NotEqual(t, "secret123", user.Password)

	_, err = env.svc.Signup(ctx, domain.User{Email: "jamie@example.com", Password: "secret123", Role: domain.RoleVolunteer}, msg.Code)
	assert.ErrorIs(t, err, ErrUserEmailExists)

	_, err = env.svc.RequestOtp(ctx, "jamie@example.com", domain.OtpPurposeRegister)
	assert.ErrorIs(t, err, ErrUserEmailExists)

	logged, err := env.svc.Login(ctx, "jamie@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)

	_, err = env.svc.Login(ctx, "jamie@example.com", "wrong-pass1")
	assert.ErrorIs(t, err, ErrWrongPassword)

	_, err = env.svc.Login(ctx, "nobody@example.com", "secret123")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAuthService_SignupRoles(t *testing.T) {
	env := newAuthEnv(t)

	manager := env.signup(t, "manager@example.com", "secret123", domain.RoleEventManager)
	assert.Equal(t, domain.RoleEventManager, manager.Role)

	_, err := env.svc.RequestOtp(context.Background(), "admin@example.com", domain.OtpPurposeRegister)
	require.NoError(t, err)
	_, err = env.svc.Signup(context.Background(), domain.User{
		Email:    "admin@example.com",
		Password: "secret123",
		Role:     domain.RoleAdmin,
	}, env.mailer.last().Code)
	assert.ErrorIs(t, err, ErrRoleNotAllowed)
}

func TestAuthService_OtpExpiry(t *testing.T) {
	env := newAuthEnv(t)
	ctx := context.Background()

	start := time.Now()
	env.svc.now = func() time.Time { return start }
	_, err := env.svc.RequestOtp(ctx, "late@example.com", domain.OtpPurposeRegister)
	require.NoError(t, err)
	code := env.mailer.last().Code

	env.svc.now = func() time.Time { return start.Add(5 * time.Minute) }
	_, err = env.svc.Signup(ctx, domain.User{Email: "late@example.com", Password: "secret123", Role: domain.RoleVolunteer}, code)
	assert.ErrorIs(t, err, ErrOtpExpired)
}

func TestAuthService_NewCodeReplacesOld(t *testing.T) {
	env := newAuthEnv(t)
	ctx := context.Background()

	_, err := env.svc.RequestOtp(ctx, "twice@example.com", domain.OtpPurposeRegister)
	require.NoError(t, err)
	first := env.mailer.last().Code

	_, err = env.svc.RequestOtp(ctx, "twice@example.com", domain.OtpPurposeRegister)
	require.NoError(t, err)
	second := env.mailer.last().Code

	if first != second {
		_, err = env.svc.Signup(ctx, domain.User{Email: "twice@example.com", Password: "secret123", Role: domain.RoleVolunteer}, first)
		assert.ErrorIs(t, err, ErrInvalidOtp)
	}

	_, err = env.svc.Signup(ctx, domain.User{Email: "twice@example.com", Password: "secret123", Role: domain.RoleVolunteer}, second)
	assert.NoError(t, err)
}

func TestAuthService_ResetPassword(t *testing.T) {
	env := newAuthEnv(t)
	ctx := context.Background()
	env.signup(t, "reset@example.com", "secret123", domain.RoleVolunteer)

	_, err := env.svc.RequestOtp(ctx, "ghost@example.com", domain.OtpPurposeReset)
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = env.svc.RequestOtp(ctx, "reset@example.com", domain.OtpPurposeReset)
	require.NoError(t, err)
	msg := env.mailer.last()
	assert.Equal(t, "RESET", msg.Purpose)

	assert.ErrorIs(t, env.svc.ResetPassword(ctx, "reset@example.com", "999999x", "newpass99"), ErrInvalidOtp)

	require.NoError(t, env.svc.ResetPassword(ctx, "reset@example.com", msg.Code, "newpass99"))

	_, err = env.svc.Login(ctx, "reset@example.com", "secret123")
	assert.ErrorIs(t, err, ErrWrongPassword)
	_, err = env.svc.Login(ctx, "reset@example.com", "newpass99")
	assert.NoError(t, err)

	assert.ErrorIs(t, env.svc.ResetPassword(ctx, "reset@example.com", msg.Code, "another1"), ErrInvalidOtp)
}

func TestAuthService_LockedUser(t *testing.T) {
	env := newAuthEnv(t)
	ctx := context.Background()
	user := env.signup(t, "locked@example.com", "secret123", domain.RoleVolunteer)

	_, err := env.users.UpdateStatus(ctx, user.ID, domain.UserStatusLocked)
	require.NoError(t, err)

	_, err = env.svc.Login(ctx, "locked@example.com", "wrong-pass1")
	assert.ErrorIs(t, err, ErrWrongPassword)

	_, err = env.svc.Login(ctx, "locked@example.com", "secret123")
	assert.ErrorIs(t, err, ErrUserLocked)
}

func TestAuthService_MailerFailure(t *testing.T) {
	env := newAuthEnv(t)
	env.mailer.fail = true

	_, err := env.svc.RequestOtp(context.Background(), "down@example.com", domain.OtpPurposeRegister)
	assert.Error(t, err)
}

func wrongCode(code string) string {
	if code == "000000" {
		return "111111"
	}
	return "000000"
}

func TestAuthService_OtpAttemptsLimited(t *testing.T) {
	env := newAuthEnv(t)
	ctx := context.Background()
	env.signup(t, "guess@example.com", "secret123", domain.RoleVolunteer)

	// Four misses leave one try for the right code.
	_, err := env.svc.RequestOtp(ctx, "guess@example.com", domain.OtpPurposeReset)
	require.NoError(t, err)
	code := env.mailer.last().Code
	for i := 0; i < 4; i++ {
		assert.ErrorIs(t, env.svc.ResetPassword(ctx, "guess@example.com", wrongCode(code), "newpass99"), ErrInvalidOtp)
	}
	require.NoError(t, env.svc.ResetPassword(ctx, "guess@example.com", code, "newpass99"))

	// Five misses burn the code.
	_, err = env.svc.RequestOtp(ctx, "guess@example.com", domain.OtpPurposeReset)
	require.NoError(t, err)
	code = env.mailer.last().Code
	for i := 0; i < 5; i++ {
		assert.ErrorIs(t, env.svc.ResetPassword(ctx, "guess@example.com", wrongCode(code), "another1"), ErrInvalidOtp)
	}
	assert.ErrorIs(t, env.svc.ResetPassword(ctx, "guess@example.com", code, "another1"), ErrInvalidOtp)

	_, err = env.svc.Login(ctx, "guess@example.com", "newpass99")
	assert.NoError(t, err)
}
