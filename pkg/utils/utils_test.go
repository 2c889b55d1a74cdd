package utils

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripMarkup(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain text untouched", "hello world", "hello world"},
		{"tags removed", "<b>bold</b> and <i>italic</i>", "bold and italic"},
		{"script gutted", `<script>alert("x")</script>hi`, `alert("x")hi`},
		{"attrs inside tags", `<a href="https://x.test">link</a>`, "link"},
		{"whitespace trimmed", "  padded  ", "padded"},
		{"stray closing bracket kept", "a > b", "a > b"},
		{"unclosed tag swallows rest", "before <img src=x", "before"},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StripMarkup(tc.in))
		})
	}
}

func TestInvalidTransitionError(t *testing.T) {
	err := NewInvalidTransition("open", "done", []string{"in_progress", "waiting_on_client"})
	var terr *InvalidTransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "open", terr.From)
	assert.Contains(t, err.Error(), "in_progress, waiting_on_client")

	terminal := NewInvalidTransition("done", "open", nil)
	assert.Contains(t, terminal.Error(), "terminal state")
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	require.NoError(t, err)
	assert.NoError(t, ComparePasswords(hash, "correct horse battery"))
	assert.Error(t, ComparePasswords(hash, "wrong password"))
}

func TestGenerateSecureToken(t *testing.T) {
	tok, err := GenerateSecureToken(48)
	require.NoError(t, err)
	assert.NotEmpty(t, tok)

	other, err := GenerateSecureToken(48)
	require.NoError(t, err)
	assert.NotEqual(t, tok, other)

	_, err = GenerateSecureToken(0)
	assert.Error(t, err)
}

func TestTokenRoundTrip(t *testing.T) {
	userID := uuid.New()
	token, err := CreateToken(userID, true)
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.True(t, claims.IsAdmin)

	_, err = ValidateToken(token + "tampered")
	assert.Error(t, err)
}
