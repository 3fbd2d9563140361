package ps

import (
	"testing"

	"github.com/nickyhof/CommitKV/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndVerifyUser(t *testing.T) {
	persistence, _ := NewMemoryPersistence()

	_, err := persistence.CreateUser("alice", "secret", core.ReadAndWrite, testIdentity)
	require.NoError(t, err)

	user, err := persistence.GetUser("alice")
	require.NoError(t, err)
	assert.NotEmpty(t, user.PasswordHash)
	assert.NotEqual(t, "secret", user.PasswordHash, "password must be stored hashed")
	assert.Equal(t, core.ReadAndWrite, user.Permission)

	_, err = persistence.VerifyUser("alice", "secret")
	assert.NoError(t, err)
	_, err = persistence.VerifyUser("alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = persistence.VerifyUser("bob", "secret")
	assert.ErrorIs(t, err, ErrInvalidCredentials, "unknown users look like bad passwords")

	_, err = persistence.CreateUser("alice", "other", core.Read, testIdentity)
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestUpdateUser(t *testing.T) {
	persistence, _ := NewMemoryPersistence()

	admin := core.Admin
	_, err := persistence.UpdateUser("ghost", nil, &admin, testIdentity)
	require.ErrorIs(t, err, ErrUserNotFound)

	persistence.CreateUser("bob", "old", core.Read, testIdentity)

	_, err = persistence.UpdateUser("bob", nil, &admin, testIdentity)
	require.NoError(t, err)
	user, _ := persistence.VerifyUser("bob", "old")
	assert.Equal(t, core.Admin, user.Permission)

	password := "new"
	_, err = persistence.UpdateUser("bob", &password, nil, testIdentity)
	require.NoError(t, err)
	user, err = persistence.VerifyUser("bob", "new")
	require.NoError(t, err)
	assert.Equal(t, core.Admin, user.Permission, "permission is kept on password change")
}

func TestDeleteUserAndCount(t *testing.T) {
	persistence, _ := NewMemoryPersistence()

	n, _ := persistence.CountUsers()
	assert.Equal(t, 0, n)

	persistence.CreateUser("a", "p", core.Read, testIdentity)
	persistence.CreateUser("b", "p", core.Write, testIdentity)
	n, _ = persistence.CountUsers()
	assert.Equal(t, 2, n)

	_, err := persistence.DeleteUser("a", testIdentity)
	require.NoError(t, err)
	_, err = persistence.DeleteUser("a", testIdentity)
	assert.ErrorIs(t, err, ErrUserNotFound)
	n, _ = persistence.CountUsers()
	assert.Equal(t, 1, n)

	// Users live apart from data keys
	keys, _ := persistence.ListKeys()
	assert.Empty(t, keys)
}
