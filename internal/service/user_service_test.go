package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"procureflow/internal/database"
	"procureflow/internal/repository"
	"procureflow/pkg/apperrors"
)

func setupUserService(t *testing.T) UserService {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "users.sqlite")
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	if err := database.Migrate(db); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return NewUserService(repository.NewUserRepository(db), repository.NewTokenRepository(db))
}

func TestCreateUserAndLogin(t *testing.T) {
	svc := setupUserService(t)
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, CreateUserRequest{
		Username: "alice",
		Email:    "alice@example.com",
		FullName: "Alice Nguyen",
		Password: "s3cret-pass",
		Role:     "staff",
	})
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if created.Role != "staff" || created.RoleDisplay != "Staff" {
		t.Fatalf("role = %s / %s", created.Role, created.RoleDisplay)
	}

	tokens, err := svc.Login(ctx, LoginUserRequest{Email: "alice@example.com", Password: "s3cret-pass"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatal("token pair incomplete")
	}

	if _, err := svc.Login(ctx, LoginUserRequest{Email: "alice@example.com", Password: "wrong"}); !errors.Is(err, apperrors.ErrForbidden) {
		t.Fatalf("bad password error = %v, want forbidden", err)
	}
}

func TestCreateUserValidation(t *testing.T) {
	svc := setupUserService(t)
	ctx := context.Background()

	if _, err := svc.CreateUser(ctx, CreateUserRequest{
		Username: "bob", Email: "bob@example.com", Password: "password", Role: "superuser",
	}); !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("invalid role error = %v, want validation error", err)
	}

	if _, err := svc.CreateUser(ctx, CreateUserRequest{
		Username: "bob", Email: "bob@example.com", Password: "password", Role: "staff",
	}); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if _, err := svc.CreateUser(ctx, CreateUserRequest{
		Username: "bob", Email: "other@example.com", Password: "password", Role: "staff",
	}); !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("duplicate username error = %v, want validation error", err)
	}
	if _, err := svc.CreateUser(ctx, CreateUserRequest{
		Username: "robert", Email: "bob@example.com", Password: "password", Role: "staff",
	}); !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("duplicate email error = %v, want validation error", err)
	}
}

func TestUpdateAndDeleteUser(t *testing.T) {
	svc := setupUserService(t)
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, CreateUserRequest{
		Username: "erin", Email: "erin@example.com", Password: "password", Role: "staff",
	})
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	id := mustParse(t, created.ID)

	updated, err := svc.UpdateUser(ctx, id, UpdateUserRequest{Role: "approver_l1", Department: "Ops"})
	if err != nil {
		t.Fatalf("UpdateUser() error = %v", err)
	}
	if updated.Role != "approver_l1" || updated.Department != "Ops" {
		t.Fatalf("updated = %+v", updated)
	}
	if updated.Username != "erin" {
		t.Fatal("unpatched fields changed")
	}

	if _, err := svc.UpdateUser(ctx, id, UpdateUserRequest{Role: "emperor"}); !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("invalid role error = %v, want validation error", err)
	}

	if err := svc.DeleteUser(ctx, id); err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}
	if _, err := svc.GetUserByID(ctx, id); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("GetUserByID() after delete error = %v, want not found", err)
	}
	if err := svc.DeleteUser(ctx, id); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("DeleteUser() twice error = %v, want not found", err)
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	svc := setupUserService(t)
	ctx := context.Background()

	if _, err := svc.CreateUser(ctx, CreateUserRequest{
		Username: "carol", Email: "carol@example.com", Password: "password", Role: "finance",
	}); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	tokens, err := svc.Login(ctx, LoginUserRequest{Email: "carol@example.com", Password: "password"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	rotated, err := svc.Refresh(ctx, tokens.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if rotated.RefreshToken == tokens.RefreshToken {
		t.Fatal("refresh token not rotated")
	}

	// the old token is single-use
	if _, err := svc.Refresh(ctx, tokens.RefreshToken); !errors.Is(err, apperrors.ErrForbidden) {
		t.Fatalf("reused token error = %v, want forbidden", err)
	}
}

func TestLogoutInvalidatesToken(t *testing.T) {
	svc := setupUserService(t)
	ctx := context.Background()

	if _, err := svc.CreateUser(ctx, CreateUserRequest{
		Username: "dave", Email: "dave@example.com", Password: "password", Role: "staff",
	}); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	tokens, err := svc.Login(ctx, LoginUserRequest{Email: "dave@example.com", Password: "password"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if err := svc.Logout(ctx, tokens.RefreshToken); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if _, err := svc.Refresh(ctx, tokens.RefreshToken); !errors.Is(err, apperrors.ErrForbidden) {
		t.Fatalf("refresh after logout error = %v, want forbidden", err)
	}

	if err := svc.Logout(ctx, "unknown-token"); err != nil {
		t.Fatalf("logout of unknown token error = %v", err)
	}
}
