package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccount_JSONOmitsPasswordHash(t *testing.T) {
	acc := Account{ID: 7, Username: "alice", PasswordHash: "$2a$10$secret", Role: RoleUser}

	raw, err := json.Marshal(acc)
	require.NoError(t, err)

	assert.NotContains(t, string(raw), "secret")
	assert.NotContains(t, string(raw), "password")
	assert.Equal(t, PublicAccount{ID: 7, Username: "alice", Role: RoleUser}, acc.Public())
}

func TestNormalizeRole(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"", RoleUser, true},
		{"user", RoleUser, true},
		{"ADMIN", RoleAdmin, true},
		{" Admin ", RoleAdmin, true},
		{"root", "root", false},
	}
	for _, tc := range tests {
		got, ok := NormalizeRole(tc.in)
		assert.Equal(t, tc.want, got, tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
	}
}
