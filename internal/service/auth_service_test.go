package service

import (
	"context"
	"testing"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository/memory"
	"github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

func newAuthService() *AuthService {
	cfg := config.Config{Auth: config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 5, BcryptCost: 4}}
	return NewAuthService(cfg, memory.NewStore().Users())
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService()
	created, err := svc.CreateUser(ctx, NewUserInput{Username: "alice", Email: "alice@example.com", Password: "correct-horse", IsStaff: true})
	mustNil(t, err)
	if !created.Settings.EmailOnTicketAssign || created.Settings.EmailOnTicketChange {
		t.Errorf("settings = %+v", created.Settings)
	}
	if _, err := svc.CreateUser(ctx, NewUserInput{Username: "alice", Password: "another-pass"}); !errorutil.IsCode(err, errorutil.CodeConflict) {
		t.Errorf("duplicate err = %v, want CONFLICT", err)
	}
	if _, err := svc.CreateUser(ctx, NewUserInput{Username: "bob", Password: "short"}); !errorutil.IsCode(err, errorutil.CodeValidation) {
		t.Errorf("short password err = %v, want VALIDATION_FAILED", err)
	}

	user, token, _, err := svc.Login(ctx, "alice", "correct-horse")
	mustNil(t, err)
	claims, err := svc.TokenManager().ParseToken(token)
	mustNil(t, err)
	if claims.UserID != user.ID || !claims.Staff {
		t.Errorf("claims = %+v", claims)
	}

	tests := []struct {
		name     string
		username string
		password string
	}{
		{name: "wrong password", username: "alice", password: "wrong-horse"},
		{name: "unknown user", username: "mallory", password: "correct-horse"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, _, err := svc.Login(ctx, tc.username, tc.password); !errorutil.IsCode(err, errorutil.CodeUnauthorized) {
				t.Errorf("err = %v, want UNAUTHORIZED", err)
			}
		})
	}
}

func TestChangePasswordAndSettings(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService()
	user, err := svc.CreateUser(ctx, NewUserInput{Username: "alice", Password: "correct-horse"})
	mustNil(t, err)

	if err := svc.ChangePassword(ctx, user, "wrong-horse", "battery-staple"); !errorutil.IsCode(err, errorutil.CodeUnauthorized) {
		t.Errorf("wrong current password err = %v", err)
	}
	mustNil(t, svc.ChangePassword(ctx, user, "correct-horse", "battery-staple"))
	if _, _, _, err := svc.Login(ctx, "alice", "battery-staple"); err != nil {
		t.Errorf("login with new password: %v", err)
	}

	updated, err := svc.UpdateSettings(ctx, user, domain.UserSettings{EmailOnTicketChange: true})
	mustNil(t, err)
	if updated.Settings.EmailOnTicketAssign || !updated.Settings.EmailOnTicketChange {
		t.Errorf("settings = %+v", updated.Settings)
	}
}
