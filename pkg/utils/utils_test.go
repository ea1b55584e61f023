package utils

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/vaultgate/pkg/constants"
	"github.com/turtacn/vaultgate/pkg/errors"
)

func TestFingerprintPhrase(t *testing.T) {
	key := base64.StdEncoding.EncodeToString([]byte("device-public-key"))

	phrase, err := FingerprintPhrase("Alice@Example.com", key)
	require.NoError(t, err)

	words := strings.Split(phrase, "-")
	assert.Len(t, words, constants.FingerprintWordCount)
	for _, w := range words {
		assert.Contains(t, fingerprintWords[:], w)
	}

	again, err := FingerprintPhrase(" alice@example.com ", key)
	require.NoError(t, err)
	assert.Equal(t, phrase, again, "email is normalised")

	other, err := FingerprintPhrase("bob@example.com", key)
	require.NoError(t, err)
	assert.NotEqual(t, phrase, other)

	otherKey, err := FingerprintPhrase("alice@example.com", base64.StdEncoding.EncodeToString([]byte("another-key")))
	require.NoError(t, err)
	assert.NotEqual(t, phrase, otherKey)
}

func TestFingerprintPhrase_InvalidKey(t *testing.T) {
	_, err := FingerprintPhrase("alice@example.com", "not base64!")
	assert.Error(t, err)

	_, err = FingerprintPhrase("alice@example.com", "")
	assert.Error(t, err)
}

func TestGenerateSecureRandomString(t *testing.T) {
	a, err := GenerateSecureRandomString(32)
	require.NoError(t, err)
	b, err := GenerateSecureRandomString(32)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.NotEmpty(t, a)
}

func TestStringPtr(t *testing.T) {
	assert.Equal(t, "x", StringValue(StringPtr("x")))
	assert.Equal(t, "", StringValue(nil))
}

type sample struct {
	Email    string  `validate:"required,email"`
	FolderID *string `validate:"omitempty,uuid_str"`
	Platform string  `validate:"required,device_type"`
}

func TestValidateStruct(t *testing.T) {
	folder := "2b1c3c1e-3f55-4c1e-9a6c-2f7d8d0e9a11"
	assert.Nil(t, ValidateStruct(&sample{Email: "alice@example.com", FolderID: &folder, Platform: "Android"}))

	bad := "nope"
	apiErr := ValidateStruct(&sample{Email: "alice", FolderID: &bad, Platform: "Toaster"})
	require.NotNil(t, apiErr)
	assert.Equal(t, errors.CodeInvalidRequest, apiErr.Code())
	assert.Equal(t, "must be a valid email address", apiErr.Metadata()["email"])
	assert.Equal(t, "must be a valid UUID", apiErr.Metadata()["folder_id"])
	assert.Equal(t, "must be a known device type", apiErr.Metadata()["platform"])
}

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("alice@example.com"))
	assert.False(t, ValidateEmail("alice"))
	assert.False(t, ValidateEmail(""))
}
