package hcert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBase45(t *testing.T) {
	t.Run("RFC 9285 vectors", func(tt *testing.T) {
		vectors := map[string]string{
			"AB":      "BB8",
			"Hello!!": "%69 VD92EX0",
			"base-45": "UJCLQE7W581",
			"ietf!":   "QED8WEX0",
		}
		for plain, encoded := range vectors {
			assert.Equal(tt, encoded, Base45Encode([]byte(plain)))

			decoded, err := Base45Decode(encoded)
			require.NoError(tt, err)
			assert.Equal(tt, plain, string(decoded))
		}
	})

	t.Run("invalid input", func(tt *testing.T) {
		for _, input := range []string{"", "A", "GGW", "ZZZ", "abc", "BB8!"} {
			_, err := Base45Decode(input)
			assert.Error(tt, err, input)
		}
	})

	t.Run("stage records its outcome", func(tt *testing.T) {
		out, result := DecodeBase45("BB8", DecodeResult{})
		assert.Equal(tt, []byte("AB"), out)
		assert.True(tt, result.Base45Decoded)
		assert.Empty(tt, result.Errors)

		out, result = DecodeBase45("not base45", DecodeResult{})
		assert.Nil(tt, out)
		assert.False(tt, result.Base45Decoded)
		assert.Len(tt, result.Errors, 1)
	})
}

func TestStripPrefix(t *testing.T) {
	t.Run("known prefix", func(tt *testing.T) {
		out, result := StripPrefix("HC1:NCF", DecodeResult{})
		assert.Equal(tt, "NCF", out)
		assert.True(tt, result.PrefixValid)
		assert.Equal(tt, HC1Prefix, result.ContextPrefix)
	})

	t.Run("missing prefix passes the input through", func(tt *testing.T) {
		out, result := StripPrefix("NCF", DecodeResult{})
		assert.Equal(tt, "NCF", out)
		assert.False(tt, result.PrefixValid)
		assert.Empty(tt, result.ContextPrefix)
		assert.NotEmpty(tt, result.Errors)
	})
}
