package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mariellesantos/floracart-backend/internal/users"
	pkgauth "github.com/mariellesantos/floracart-backend/pkg/auth"
	"github.com/mariellesantos/floracart-backend/pkg/auth/session"
	"github.com/mariellesantos/floracart-backend/pkg/config"
	"github.com/mariellesantos/floracart-backend/pkg/db/models"
	"github.com/mariellesantos/floracart-backend/pkg/enums"
	pkgerrors "github.com/mariellesantos/floracart-backend/pkg/errors"
	"github.com/mariellesantos/floracart-backend/pkg/security"
)

type fakeUserRepo struct {
	byEmail map[string]*models.User
	byID    map[uuid.UUID]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byEmail: map[string]*models.User{},
		byID:    map[uuid.UUID]*models.User{},
	}
}

func (f *fakeUserRepo) Create(_ context.Context, dto users.CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	f.byEmail[user.Email] = user
	f.byID[user.ID] = user
	return user, nil
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	user, ok := f.byEmail[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := f.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

type fakeSessionManager struct {
	tokens map[string]string
}

func newFakeSessionManager() *fakeSessionManager {
	return &fakeSessionManager{tokens: map[string]string{}}
}

func (f *fakeSessionManager) Generate(_ context.Context, accessID string) (string, error) {
	token := "refresh-" + accessID
	f.tokens[accessID] = token
	return token, nil
}

func (f *fakeSessionManager) Rotate(_ context.Context, oldAccessID, provided string) (string, string, error) {
	stored, ok := f.tokens[oldAccessID]
	if !ok || stored != provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(f.tokens, oldAccessID)
	newID := session.NewAccessID()
	newToken := "refresh-" + newID
	f.tokens[newID] = newToken
	return newID, newToken, nil
}

func (f *fakeSessionManager) Revoke(_ context.Context, accessID string) error {
	delete(f.tokens, accessID)
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", Issuer: "floracart", ExpirationMinutes: 30}
}

func newTestService(t *testing.T) (Service, *fakeUserRepo, *fakeSessionManager) {
	t.Helper()
	repo := newFakeUserRepo()
	sessions := newFakeSessionManager()
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: sessions,
		JWTConfig:      testJWTConfig(),
		PasswordConfig: config.PasswordConfig{},
	})
	require.NoError(t, err)
	return svc, repo, sessions
}

func seedUser(t *testing.T, repo *fakeUserRepo, email, password string, role enums.UserRole) *models.User {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	require.NoError(t, err)
	user, err := repo.Create(context.Background(), users.CreateUserDTO{
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Maria",
		LastName:     "Santos",
		Role:         role,
	})
	require.NoError(t, err)
	return user
}

func TestRegisterIssuesTokenPair(t *testing.T) {
	svc, _, _ := newTestService(t)

	resp, err := svc.Register(context.Background(), RegisterRequest{
		FirstName: "Maria",
		LastName:  "Santos",
		Email:     "Maria@Example.com",
		Password:  "strongpassword",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "maria@example.com", resp.User.Email)
	assert.Equal(t, enums.UserRoleCustomer, resp.User.Role)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, repo, _ := newTestService(t)
	seedUser(t, repo, "maria@example.com", "strongpassword", enums.UserRoleCustomer)

	_, err := svc.Register(context.Background(), RegisterRequest{
		FirstName: "Maria",
		LastName:  "Santos",
		Email:     "maria@example.com",
		Password:  "strongpassword",
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
}

func TestRegisterShortPassword(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Register(context.Background(), RegisterRequest{
		FirstName: "Maria",
		LastName:  "Santos",
		Email:     "maria@example.com",
		Password:  "short",
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestLoginSuccess(t *testing.T) {
	svc, repo, _ := newTestService(t)
	seeded := seedUser(t, repo, "maria@example.com", "strongpassword", enums.UserRoleCustomer)

	resp, err := svc.Login(context.Background(), LoginRequest{Email: "maria@example.com", Password: "strongpassword"})
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, resp.User.ID)

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, claims.UserID)
	assert.Equal(t, enums.UserRoleCustomer, claims.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, repo, _ := newTestService(t)
	seedUser(t, repo, "maria@example.com", "strongpassword", enums.UserRoleCustomer)

	_, err := svc.Login(context.Background(), LoginRequest{Email: "maria@example.com", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())
	assert.True(t, strings.Contains(err.Error(), invalidCredentialsMessage))
}

func TestAdminLoginRejectsCustomer(t *testing.T) {
	svc, repo, _ := newTestService(t)
	seedUser(t, repo, "maria@example.com", "strongpassword", enums.UserRoleCustomer)

	_, err := svc.AdminLogin(context.Background(), LoginRequest{Email: "maria@example.com", Password: "strongpassword"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())
}

func TestAdminLoginAdmitsStaff(t *testing.T) {
	svc, repo, _ := newTestService(t)
	seedUser(t, repo, "staff@example.com", "strongpassword", enums.UserRoleAdmin)

	resp, err := svc.AdminLogin(context.Background(), LoginRequest{Email: "staff@example.com", Password: "strongpassword"})
	require.NoError(t, err)
	assert.Equal(t, enums.UserRoleAdmin, resp.User.Role)
}

func TestRefreshRotatesSession(t *testing.T) {
	svc, repo, sessions := newTestService(t)
	seedUser(t, repo, "maria@example.com", "strongpassword", enums.UserRoleCustomer)

	login, err := svc.Login(context.Background(), LoginRequest{Email: "maria@example.com", Password: "strongpassword"})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  login.AccessToken,
		RefreshToken: login.RefreshToken,
	})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// the old pair is single-use
	_, err = svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  login.AccessToken,
		RefreshToken: login.RefreshToken,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())
	assert.Len(t, sessions.tokens, 1)
}

func TestLogoutRevokesSession(t *testing.T) {
	svc, repo, sessions := newTestService(t)
	seedUser(t, repo, "maria@example.com", "strongpassword", enums.UserRoleCustomer)

	login, err := svc.Login(context.Background(), LoginRequest{Email: "maria@example.com", Password: "strongpassword"})
	require.NoError(t, err)

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), login.AccessToken)
	require.NoError(t, err)
	require.NoError(t, svc.Logout(context.Background(), claims.ID))
	assert.Empty(t, sessions.tokens)
}
