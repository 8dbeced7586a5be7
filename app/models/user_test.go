package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser(t *testing.T) {
	u, err := CreateUser("Ana García", "ana@example.com", "secreto123")
	require.NoError(t, err)

	assert.NotEmpty(t, u.PublicID)
	assert.Equal(t, ROLE_USER, u.Role)
	assert.Equal(t, STATUS_INACTIVE, u.Status)
	assert.NotEqual(t, "secreto123", u.Password)
	assert.True(t, u.CheckPassword("secreto123"))
	assert.False(t, u.CheckPassword("otra-clave"))
}

func TestCreateUserValidation(t *testing.T) {
	_, err := CreateUser("A", "not-an-email", "secreto123")
	assert.Error(t, err)
}

func TestNewBotUser(t *testing.T) {
	u := NewBotUser("5491122334455")

	require.NotNil(t, u.ChatID)
	assert.Equal(t, "5491122334455", *u.ChatID)
	assert.True(t, u.HasChatLinked())
	assert.Equal(t, STATUS_INACTIVE, u.Status)
	assert.NotEmpty(t, u.PublicID)
	assert.Contains(t, u.Email, "@bot.recuerdame.app")
}

func TestHasChatLinked(t *testing.T) {
	empty := ""
	chat := "549112233"

	assert.False(t, (&User{}).HasChatLinked())
	assert.False(t, (&User{ChatID: &empty}).HasChatLinked())
	assert.True(t, (&User{ChatID: &chat}).HasChatLinked())
}

func TestGenerateActivationToken(t *testing.T) {
	u := &User{}
	require.NoError(t, u.GenerateActivationToken())

	assert.Len(t, u.ActivationToken, 32)
	assert.NotNil(t, u.ActivationSentAt)

	first := u.ActivationToken
	require.NoError(t, u.GenerateActivationToken())
	assert.NotEqual(t, first, u.ActivationToken)
}
