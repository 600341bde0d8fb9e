package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// BeforeSave never dereferences the tx, so a nil handle is enough here.
var mockTx *gorm.DB = nil

func TestUser_BeforeSave_HashesPassword(t *testing.T) {
	// Arrange: a user with a plaintext password
	plainPassword := "mySecretPassword123"
	user := &User{
		Username: "testuser",
		Email:    "test@example.com",
		Password: plainPassword,
	}

	// Act
	err := user.BeforeSave(mockTx)

	// Assert: the password must be hashed
	require.NoError(t, err)
	assert.NotEqual(t, plainPassword, user.Password, "the password must change after hashing")
	assert.True(t, len(user.Password) > 50, "a bcrypt hash is longer than 50 characters")

	err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(plainPassword))
	assert.NoError(t, err, "the hash must match the original password")
}

func TestUser_BeforeSave_SkipsAlreadyHashedPassword(t *testing.T) {
	// Arrange: a user whose password is already a bcrypt hash
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("alreadyHashed"), bcrypt.DefaultCost)
	require.NoError(t, err)

	user := &User{
		Username: "testuser",
		Email:    "test@example.com",
		Password: string(hashedPassword),
	}
	originalHash := user.Password

	// Act
	err = user.BeforeSave(mockTx)

	// Assert: no double hashing
	require.NoError(t, err)
	assert.Equal(t, originalHash, user.Password, "an already hashed password must stay unchanged")
}

func TestUser_CheckPassword(t *testing.T) {
	correctPassword := "correctPassword123"
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(correctPassword), bcrypt.DefaultCost)
	require.NoError(t, err)

	user := &User{
		Username: "testuser",
		Email:    "test@example.com",
		Password: string(hashedPassword),
	}

	assert.True(t, user.CheckPassword(correctPassword))
	assert.False(t, user.CheckPassword("wrongPassword456"))
	assert.False(t, user.CheckPassword(""))
}

func TestUser_Roles(t *testing.T) {
	admin := &User{Role: RoleAdmin}
	sponsor := &User{Role: RoleSponsor}
	user := &User{Role: RoleUser}

	assert.True(t, admin.IsAdmin())
	assert.False(t, sponsor.IsAdmin())
	assert.False(t, user.IsAdmin())

	assert.True(t, admin.CanCreateContests())
	assert.True(t, sponsor.CanCreateContests())
	assert.False(t, user.CanCreateContests(), "plain users only participate")
}
