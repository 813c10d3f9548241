package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPasswordConfig(t *testing.T) {
	tests := []struct {
		name       string
		bcryptCost string
		wantCost   int
		wantErr    bool
	}{
		{"default cost", "", 12, false},
		{"valid cost", "12", 12, false},
		{"minimum cost", "10", 10, false},
		{"maximum cost", "14", 14, false},
		{"cost too low", "9", 0, true},
		{"cost too high", "15", 0, true},
		{"not a number", "abc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("BCRYPT_COST", tt.bcryptCost)

			cfg, err := NewPasswordConfig()
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, cfg)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, cfg)
			assert.Equal(t, tt.wantCost, cfg.BcryptCost)
		})
	}
}

func TestPasswordConfig_HashAndVerify(t *testing.T) {
	cfg := &PasswordConfig{BcryptCost: 10}

	hash, err := cfg.HashPassword("correct horse battery staple")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.True(t, cfg.VerifyPassword("correct horse battery staple", hash))
	assert.False(t, cfg.VerifyPassword("wrong password", hash))
	assert.False(t, cfg.VerifyPassword("", hash))
}

func TestPasswordConfig_HashUniqueness(t *testing.T) {
	cfg := &PasswordConfig{BcryptCost: 10}

	hash1, err := cfg.HashPassword("same password")
	require.NoError(t, err)
	hash2, err := cfg.HashPassword("same password")
	require.NoError(t, err)

	// bcrypt salts every hash
	assert.NotEqual(t, hash1, hash2)
	assert.True(t, cfg.VerifyPassword("same password", hash1))
	assert.True(t, cfg.VerifyPassword("same password", hash2))
}

func TestPasswordConfig_PasswordExceeding72Bytes(t *testing.T) {
	cfg := &PasswordConfig{BcryptCost: 10}

	long := strings.Repeat("a", 80)
	_, err := cfg.HashPassword(long)
	assert.Error(t, err, "bcrypt rejects passwords longer than 72 bytes")
}

func TestPasswordConfig_VerifyGarbageHash(t *testing.T) {
	cfg := &PasswordConfig{BcryptCost: 10}

	assert.False(t, cfg.VerifyPassword("anything", "not-a-bcrypt-hash"))
	assert.False(t, cfg.VerifyPassword("anything", ""))
}
