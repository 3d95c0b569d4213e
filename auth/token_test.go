package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/gastroflow/ledger/id"
	"github.com/gastroflow/ledger/user"
)

func waiter() *user.User {
	return &user.User{ID: id.NewUserID(), TenantID: "resto-1", Name: "Ana", Role: user.RoleWaiter}
}

func TestIssueAndVerify(t *testing.T) {
	m := NewManager("s3cret", "floord", time.Hour)
	u := waiter()

	tok, err := m.Issue(u)
	if err != nil {
		t.Fatal(err)
	}
	p, err := m.Verify(tok)
	if err != nil {
		t.Fatal(err)
	}
	if p.TenantID != "resto-1" || p.UserID != u.ID || p.Role != user.RoleWaiter {
		t.Errorf("principal = %+v", p)
	}
}

func TestVerifyRejects(t *testing.T) {
	m := NewManager("s3cret", "floord", time.Hour)
	good, err := m.Issue(waiter())
	if err != nil {
		t.Fatal(err)
	}

	expired := NewManager("s3cret", "floord", time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	old, err := expired.Issue(waiter())
	if err != nil {
		t.Fatal(err)
	}

	otherKey, err := NewManager("other", "floord", time.Hour).Issue(waiter())
	if err != nil {
		t.Fatal(err)
	}
	otherIssuer, err := NewManager("s3cret", "someone-else", time.Hour).Issue(waiter())
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"tampered", good + "x"},
		{"expired", old},
		{"wrong key", otherKey},
		{"wrong issuer", otherIssuer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.Verify(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("err = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestPrincipalCan(t *testing.T) {
	tests := []struct {
		role  user.Role
		roles []user.Role
		want  bool
	}{
		{user.RoleWaiter, nil, true},
		{user.RoleWaiter, []user.Role{user.RoleWaiter, user.RoleManager}, true},
		{user.RoleKitchen, []user.Role{user.RoleManager}, false},
		{user.RoleAdmin, []user.Role{user.RoleManager}, true},
	}
	for _, tt := range tests {
		if got := (Principal{Role: tt.role}).Can(tt.roles...); got != tt.want {
			t.Errorf("%s.Can(%v) = %v, want %v", tt.role, tt.roles, got, tt.want)
		}
	}
}
