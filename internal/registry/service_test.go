package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDriftNeeded(t *testing.T) {
	tests := []struct {
		name     string
		stored   string
		reported string
		want     bool
	}{
		{"hashes match", "abc123", "abc123", false},
		{"hashes differ", "abc123", "def456", true},
		{"nothing stored yet", "", "abc123", false},
		{"nothing stored, nothing reported", "", "", false},
		{"stored but node reports none", "abc123", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, driftNeeded(tt.stored, tt.reported))
		})
	}
}

func TestHashAPIKey(t *testing.T) {
	hash := HashAPIKey("some-key")

	assert.Len(t, hash, 64)
	assert.Equal(t, hash, HashAPIKey("some-key"))
	assert.NotEqual(t, hash, HashAPIKey("other-key"))
}
