package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rpalomino/storefront-backend/internal/users"
	pkgAuth "github.com/rpalomino/storefront-backend/pkg/auth"
	"github.com/rpalomino/storefront-backend/pkg/auth/session"
	"github.com/rpalomino/storefront-backend/pkg/config"
	"github.com/rpalomino/storefront-backend/pkg/db/models"
	pkgerrors "github.com/rpalomino/storefront-backend/pkg/errors"
	"github.com/rpalomino/storefront-backend/pkg/security"
)

type stubTxRunner struct{}

func (s stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubUserRepository struct {
	data      map[string]*models.User
	created   *models.User
	lastLogin map[uuid.UUID]time.Time
}

func newStubUserRepository() *stubUserRepository {
	return &stubUserRepository{
		data:      map[string]*models.User{},
		lastLogin: map[uuid.UUID]time.Time{},
	}
}

func (s *stubUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := s.data[email]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepository) Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error) {
	user := &models.User{
		ID:           uuid.New(),
		Name:         dto.Name,
		Email:        dto.Email,
		PasswordHash: dto.PasswordHash,
	}
	s.data[dto.Email] = user
	s.created = user
	return user, nil
}

func (s *stubUserRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	s.lastLogin[id] = at
	return nil
}

type stubSessionManager struct {
	tokens  map[string]string
	revoked []string
}

func newStubSessionManager() *stubSessionManager {
	return &stubSessionManager{tokens: map[string]string{}}
}

func (s *stubSessionManager) Generate(ctx context.Context, accessID string) (string, error) {
	token := fmt.Sprintf("refresh-%s", accessID)
	s.tokens[accessID] = token
	return token, nil
}

func (s *stubSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	stored, ok := s.tokens[oldAccessID]
	if !ok || stored != provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(s.tokens, oldAccessID)
	newID := uuid.NewString()
	token, _ := s.Generate(ctx, newID)
	return newID, token, nil
}

func (s *stubSessionManager) Revoke(ctx context.Context, accessID string) error {
	delete(s.tokens, accessID)
	s.revoked = append(s.revoked, accessID)
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "storefront",
		ExpirationMinutes: 30,
	}
}

func buildTestService(t *testing.T) (Service, *stubUserRepository, *stubSessionManager) {
	t.Helper()
	repo := newStubUserRepository()
	sessions := newStubSessionManager()
	svc, err := NewService(ServiceParams{
		UserRepo: repo,
		TxRunner: stubTxRunner{},
		UserRepoFactory: func(tx *gorm.DB) RegisterUserRepository {
			return repo
		},
		SessionManager: sessions,
		JWTConfig:      testJWTConfig(),
		PasswordConfig: config.PasswordConfig{},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, repo, sessions
}

func mustHashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

func TestRegisterCreatesUserAndIssuesTokens(t *testing.T) {
	svc, repo, _ := buildTestService(t)

	resp, err := svc.Register(context.Background(), RegisterRequest{
		Name:     "Jamie Rivera",
		Email:    "Jamie@Example.com",
		Password: "Secret123!",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if repo.created == nil {
		t.Fatalf("expected user to be created")
	}
	if repo.created.Email != "jamie@example.com" {
		t.Fatalf("expected normalized email, got %q", repo.created.Email)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatalf("expected token pair")
	}
	if resp.User == nil || resp.User.ID != repo.created.ID {
		t.Fatalf("expected created user in response")
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != repo.created.ID {
		t.Fatalf("expected user_id claim %s, got %s", repo.created.ID, claims.UserID)
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, repo, _ := buildTestService(t)
	repo.data["taken@example.com"] = &models.User{ID: uuid.New(), Email: "taken@example.com"}

	_, err := svc.Register(context.Background(), RegisterRequest{
		Name:     "Dup",
		Email:    "taken@example.com",
		Password: "Secret123!",
	})
	if err == nil {
		t.Fatal("expected conflict error")
	}
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict code, got %v", err)
	}
}

func TestLoginIssuesTokensAndRecordsLogin(t *testing.T) {
	svc, repo, _ := buildTestService(t)
	password := "Secret123!"
	user := &models.User{
		ID:           uuid.New(),
		Name:         "Shopper",
		Email:        "shopper@example.com",
		PasswordHash: mustHashPassword(t, password),
	}
	repo.data[user.Email] = user

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    "Shopper@Example.com",
		Password: password,
	})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if resp.RefreshToken == "" {
		t.Fatalf("expected refresh token")
	}
	if _, ok := repo.lastLogin[user.ID]; !ok {
		t.Fatalf("expected last login to be recorded")
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	svc, repo, _ := buildTestService(t)
	user := &models.User{
		ID:           uuid.New(),
		Email:        "shopper@example.com",
		PasswordHash: mustHashPassword(t, "correct-password"),
	}
	repo.data[user.Email] = user

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    user.Email,
		Password: "wrong-password",
	})
	if err == nil {
		t.Fatal("expected unauthorized error")
	}
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized code, got %v", err)
	}
}

func TestLoginUnknownEmailIsUnauthorized(t *testing.T) {
	svc, _, _ := buildTestService(t)

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "ghost@example.com",
		Password: "whatever",
	})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized code, got %v", err)
	}
}

func TestRefreshRotatesSession(t *testing.T) {
	svc, repo, _ := buildTestService(t)
	password := "Secret123!"
	user := &models.User{
		ID:           uuid.New(),
		Email:        "shopper@example.com",
		PasswordHash: mustHashPassword(t, password),
	}
	repo.data[user.Email] = user

	loginResp, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: password})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	refreshResp, err := svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  loginResp.AccessToken,
		RefreshToken: loginResp.RefreshToken,
	})
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if refreshResp.AccessToken == loginResp.AccessToken {
		t.Fatalf("expected a new access token")
	}
	if refreshResp.RefreshToken == loginResp.RefreshToken {
		t.Fatalf("expected a new refresh token")
	}

	// The old pair must be dead after rotation.
	if _, err := svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  loginResp.AccessToken,
		RefreshToken: loginResp.RefreshToken,
	}); err == nil {
		t.Fatal("expected rotation with stale tokens to fail")
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	svc, _, sessions := buildTestService(t)

	if err := svc.Logout(context.Background(), "access-7"); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if len(sessions.revoked) != 1 || sessions.revoked[0] != "access-7" {
		t.Fatalf("expected session to be revoked, got %v", sessions.revoked)
	}
}
