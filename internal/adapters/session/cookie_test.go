package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCookieCodec_RoundTrip(t *testing.T) {
	codec, err := NewCookieCodec("secret")
	require.NoError(t, err)

	value, err := codec.Encode("session-123")
	require.NoError(t, err)

	id, err := codec.Decode(value)
	require.NoError(t, err)
	assert.Equal(t, "session-123", id)
}

func TestCookieCodec_RejectsForeignSignature(t *testing.T) {
	a, _ := NewCookieCodec("secret-a")
	b, _ := NewCookieCodec("secret-b")

	value, err := a.Encode("session-123")
	require.NoError(t, err)

	_, err = b.Decode(value)
	require.Error(t, err)
}

func TestCookieCodec_RejectsGarbage(t *testing.T) {
	codec, _ := NewCookieCodec("secret")

	_, err := codec.Decode("not-a-token")
	require.Error(t, err)
}

func TestNewCookieCodec_RequiresSecret(t *testing.T) {
	_, err := NewCookieCodec("")
	require.Error(t, err)
}
