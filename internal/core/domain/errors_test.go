package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsClientError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "configuration", err: ErrConfiguration, expected: true},
		{name: "wrapped configuration", err: fmt.Errorf("load: %w", ErrConfiguration), expected: true},
		{name: "folder required", err: ErrFolderRequired, expected: true},
		{name: "no folder configured", err: ErrNoFolderConfigured, expected: true},
		{name: "invalid input", err: ErrInvalidInput, expected: true},
		{name: "rate limited", err: ErrRateLimited, expected: false},
		{name: "arbitrary", err: errors.New("network down"), expected: false},
		{name: "nil", err: nil, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsClientError(tt.err))
		})
	}
}
