package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateInviteToken(t *testing.T) {
	a, err := GenerateInviteToken(32)
	require.NoError(t, err)
	assert.Len(t, a, 64) // hex doubles the byte length

	b, err := GenerateInviteToken(32)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestGenerateInviteToken_DefaultLength(t *testing.T) {
	tok, err := GenerateInviteToken(0)
	require.NoError(t, err)
	assert.Len(t, tok, 64)
}
