package passwords

import (
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	t.Parallel()
	plaintext := "password123"
	pass, err := NewPassword(PasswordInput{Password: plaintext})
	require.NoError(t, err)
	require.True(t, IsArgonEncoded(string(pass)))

	require.True(t, pass.Matches(plaintext))
	require.False(t, pass.Matches(strings.ToUpper(plaintext)))
	require.Equal(t, "[redacted]", pass.String())
}

func TestNewPassword_Length(t *testing.T) {
	t.Parallel()

	_, err := NewPassword(PasswordInput{Password: "short"})
	require.ErrorIs(t, err, ErrPasswordTooShort)

	_, err = NewPassword(PasswordInput{Password: strings.Repeat("x", MaxPasswordLength+1)})
	require.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestMatches_Malformed(t *testing.T) {
	t.Parallel()

	require.False(t, Password("").Matches(""))
	require.False(t, Password("bcrypt:$2a$10$...").Matches("anything"))
}

func TestIsArgonEncoded(t *testing.T) {
	t.Parallel()

	require.True(t, IsArgonEncoded("$argon2id$v=19$m=65536,t=3,p=2$abc$def"))
	require.False(t, IsArgonEncoded(""))
	require.False(t, IsArgonEncoded("$argon2i$v=19$m=65536,t=3,p=2$abc$def"))
}

func TestPassword_ScanTextAndTextValue(t *testing.T) {
	t.Parallel()

	var p Password
	require.NoError(t, p.ScanText(pgtype.Text{Valid: false}))
	require.Equal(t, Password(""), p)

	require.NoError(t, p.ScanText(pgtype.Text{String: "abc", Valid: true}))
	require.Equal(t, Password("abc"), p)

	tv, err := (Password("xyz")).TextValue()
	require.NoError(t, err)
	require.True(t, tv.Valid)
	require.Equal(t, "xyz", tv.String)

	tv, err = Password("").TextValue()
	require.NoError(t, err)
	require.False(t, tv.Valid)
}
