package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserError(t *testing.T) {
	t.Run("with wrapped error", func(t *testing.T) {
		inner := errors.New("disk full")
		err := NewUserError("could not save receipt", inner)

		assert.Equal(t, "could not save receipt: disk full", err.Error())
		assert.ErrorIs(t, err, inner)
	})

	t.Run("message only", func(t *testing.T) {
		err := &UserError{UserMessage: "nothing to do"}
		assert.Equal(t, "nothing to do", err.Error())
		assert.Nil(t, err.Unwrap())
	})
}

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		format  string
		wantErr bool
	}{
		{name: "debug console", level: "debug", format: "console"},
		{name: "info json", level: "info", format: "json"},
		{name: "warn default format", level: "warn", format: ""},
		{name: "error level", level: "error", format: "console"},
		{name: "bad level", level: "verbose", format: "console", wantErr: true},
		{name: "bad format", level: "info", format: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := SetupLogger(tt.level, tt.format)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			assert.NoError(t, err)
		})
	}
}
