package globalid

import (
	"encoding/base64"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelayCodec(t *testing.T) {
	t.Parallel()

	codec := RelayCodec{}
	id := uuid.Must(uuid.NewV4())

	t.Run("Round trips", func(t *testing.T) {
		opaque := codec.Encode(TypePost, id)
		decoded, err := codec.Decode(TypePost, opaque)
		require.NoError(t, err)
		assert.Equal(t, id, decoded)
	})

	t.Run("Accepts unpadded input", func(t *testing.T) {
		opaque := base64.RawStdEncoding.EncodeToString([]byte(TypePost + ":" + id.String()))
		decoded, err := codec.Decode(TypePost, opaque)
		require.NoError(t, err)
		assert.Equal(t, id, decoded)
	})

	t.Run("Accepts the URL-safe alphabet", func(t *testing.T) {
		opaque := base64.URLEncoding.EncodeToString([]byte(TypePost + ":" + id.String()))
		decoded, err := codec.Decode(TypePost, opaque)
		require.NoError(t, err)
		assert.Equal(t, id, decoded)
	})

	t.Run("Rejects malformed input", func(t *testing.T) {
		cases := map[string]string{
			"not base64":   "%%%not-base64%%%",
			"no separator": base64.StdEncoding.EncodeToString([]byte("PostNode" + id.String())),
			"wrong type":   codec.Encode(TypeUser, id),
			"bad uuid":     base64.StdEncoding.EncodeToString([]byte("PostNode:42")),
			"nil uuid":     codec.Encode(TypePost, uuid.Nil),
			"empty":        "",
		}
		for name, opaque := range cases {
			_, err := codec.Decode(TypePost, opaque)
			assert.ErrorIs(t, err, ErrMalformed, name)
		}
	})
}

func TestUUIDCodec(t *testing.T) {
	t.Parallel()

	codec := UUIDCodec{}
	id := uuid.Must(uuid.NewV4())

	decoded, err := codec.Decode(TypePost, codec.Encode(TypePost, id))
	require.NoError(t, err)
	assert.Equal(t, id, decoded)

	_, err = codec.Decode(TypePost, "not-a-uuid")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestNewCodec(t *testing.T) {
	t.Parallel()

	c, err := NewCodec(EncodingRelay)
	require.NoError(t, err)
	assert.IsType(t, RelayCodec{}, c)

	c, err = NewCodec(EncodingUUID)
	require.NoError(t, err)
	assert.IsType(t, UUIDCodec{}, c)

	_, err = NewCodec("base32")
	assert.Error(t, err)
}
