package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "priya@example.com", NormalizeEmail("  Priya@Example.COM "))
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email string
		err   error
	}{
		{"priya@example.com", nil},
		{"a@b.in", nil},
		{"", ErrEmailRequired},
		{"not-an-email", ErrInvalidEmail},
		{"missing@tld", ErrInvalidEmail},
		{"spaces in@example.com", ErrInvalidEmail},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.err == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.err)
			}
		})
	}
}
