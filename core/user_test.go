package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePermission(t *testing.T) {
	tests := []struct {
		input    string
		expected Permission
	}{
		{"read", Read},
		{"write", Write},
		{"read_and_write", ReadAndWrite},
		{"admin", Admin},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			p, err := ParsePermission(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, p)
			assert.Equal(t, tt.input, p.String())
		})
	}
}

func TestParsePermissionIsCaseSensitive(t *testing.T) {
	for _, input := range []string{"Read", "ADMIN", "owner", "", "read-and-write"} {
		_, err := ParsePermission(input)
		assert.ErrorIs(t, err, ErrInvalidPermission, input)
	}
}

func TestPermissionCapabilities(t *testing.T) {
	assert.True(t, Read.CanRead())
	assert.False(t, Read.CanWrite())
	assert.False(t, Write.CanRead())
	assert.True(t, Write.CanWrite())
	assert.True(t, ReadAndWrite.CanRead())
	assert.True(t, ReadAndWrite.CanWrite())
	assert.False(t, ReadAndWrite.IsAdmin())
	assert.True(t, Admin.CanRead())
	assert.True(t, Admin.CanWrite())
	assert.True(t, Admin.IsAdmin())
}

func TestPermissionText(t *testing.T) {
	text, err := Admin.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "admin", string(text))

	var p Permission
	require.NoError(t, p.UnmarshalText([]byte("write")))
	assert.Equal(t, Write, p)

	assert.Error(t, p.UnmarshalText([]byte("owner")))
}
