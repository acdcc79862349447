package utils

import (
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateTemporaryPasswordAlwaysPassesPolicy(t *testing.T) {
	g := Generator{}
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		pw, err := g.GenerateTemporaryPassword()
		require.NoError(t, err)
		assert.Len(t, pw, tempPasswordLen)
		assert.True(t, g.ValidatePasswordStrength(pw).IsValid, "generated %q", pw)

		// Ambiguous characters are excluded from every class.
		assert.NotContains(t, pw, "l")
		assert.NotContains(t, pw, "1")
		assert.NotContains(t, pw, "O")
		assert.NotContains(t, pw, "0")

		seen[pw] = true
	}
	assert.Greater(t, len(seen), 1, "passwords must not repeat")
}

func TestGenerateResetTokenHashMatchesRaw(t *testing.T) {
	g := Generator{}
	raw, hash, err := g.GenerateResetToken()
	require.NoError(t, err)
	assert.NotEmpty(t, raw)
	assert.Equal(t, HashToken(raw), hash)
	assert.NotEqual(t, raw, hash)

	raw2, _, err := g.GenerateResetToken()
	require.NoError(t, err)
	assert.NotEqual(t, raw, raw2)
}

func TestValidatePasswordStrength(t *testing.T) {
	g := Generator{}

	cases := []struct {
		password string
		valid    bool
		score    int
	}{
		{"Abcdef12", true, 4},
		{"abcdef12", false, 3},          // no upper
		{"ABCDEF12", false, 3},          // no lower
		{"Abcdefgh", false, 3},          // no digit
		{"Ab1", false, 3},               // too short
		{"", false, 0},
		{strings.Repeat("Ab1", 10), true, 4},
	}
	for _, tc := range cases {
		res := g.ValidatePasswordStrength(tc.password)
		assert.Equal(t, tc.valid, res.IsValid, "password %q", tc.password)
		assert.Equal(t, tc.score, res.Score, "password %q", tc.password)
		if !tc.valid {
			assert.NotEmpty(t, res.Feedback)
		}
	}
}

func TestHashTokenIsStableHex(t *testing.T) {
	h1 := HashToken("some-token")
	h2 := HashToken("some-token")
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
	for _, r := range h1 {
		assert.True(t, unicode.Is(unicode.ASCII_Hex_Digit, r))
	}
	assert.NotEqual(t, h1, HashToken("some-other-token"))
}

func TestVerifyPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret-Value", 4)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "s3cret-Value"))
	assert.False(t, VerifyPassword(hash, "other"))

	// The leveling placeholder never verifies anything real.
	assert.False(t, VerifyPassword(PlaceholderHash, "anything at all"))
}
