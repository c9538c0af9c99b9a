package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordManager(t *testing.T) {
	pm := NewPasswordManager(testConfig())

	hash, err := pm.HashPassword("caster2024x")
	require.NoError(t, err)
	assert.NoError(t, pm.VerifyPassword("caster2024x", hash))
	assert.Error(t, pm.VerifyPassword("caster2024y", hash))
}

func TestValidatePassword(t *testing.T) {
	pm := NewPasswordManager(testConfig())

	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"ok", "wheel9876", false},
		{"too short", "a1", true},
		{"letters only", "castersonly", true},
		{"digits only", "9876543210", true},
		{"common", "password12", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := pm.ValidatePassword(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
