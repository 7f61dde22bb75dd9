package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
)

type fakeStore struct {
	users     map[string]AuthUser
	lastLogin string
}

func (f *fakeStore) FindActiveUserByEmail(_ context.Context, email string) (AuthUser, error) {
	user, ok := f.users[email]
	if !ok {
		return AuthUser{}, pgx.ErrNoRows
	}
	return user, nil
}

func (f *fakeStore) UpdateLastLogin(_ context.Context, userID string) error {
	f.lastLogin = userID
	return nil
}

func TestLogin(t *testing.T) {
	hash, err := HashPassword("Passw0rd!")
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	store := &fakeStore{users: map[string]AuthUser{
		"lead@example.com": {ID: "u1", TenantID: "t1", Role: RoleLeader, Name: "Lead", Password: hash},
	}}
	svc := NewService(store, "secret", time.Hour)

	result, err := svc.Login(context.Background(), " Lead@Example.com ", "Passw0rd!")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.UserID != "u1" || result.Role != RoleLeader || result.Token == "" {
		t.Fatalf("unexpected login result: %+v", result)
	}
	if store.lastLogin != "u1" {
		t.Fatal("expected last login to be updated")
	}
	claims, err := ParseToken("secret", result.Token)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if claims.TenantID != "t1" {
		t.Fatalf("unexpected tenant claim: %+v", claims)
	}

	if _, err := svc.Login(context.Background(), "lead@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := svc.Login(context.Background(), "nobody@example.com", "x"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for unknown user, got %v", err)
	}
}
