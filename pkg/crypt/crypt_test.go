package crypt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/bazaar/pkg/crypt"
)

func TestSealOpenJSON(t *testing.T) {
	box, err := crypt.New("base64:test-key")
	require.NoError(t, err)

	enc, err := box.SealJSON(map[string]string{"otp": "123456"})
	require.NoError(t, err)
	assert.NotContains(t, enc, "123456")

	var out map[string]string
	require.NoError(t, box.OpenJSON(enc, &out))
	assert.Equal(t, "123456", out["otp"])
}

func TestOpenWithWrongKey(t *testing.T) {
	a, _ := crypt.New("one")
	b, _ := crypt.New("two")

	enc, err := a.Seal([]byte("secret"))
	require.NoError(t, err)

	_, err = b.Open(enc)
	assert.ErrorIs(t, err, crypt.ErrDecrypt)

	_, err = a.Open("!!not-base64!!")
	assert.ErrorIs(t, err, crypt.ErrDecrypt)
}

func TestNewRequiresKey(t *testing.T) {
	_, err := crypt.New("")
	assert.ErrorIs(t, err, crypt.ErrNoKey)
}
