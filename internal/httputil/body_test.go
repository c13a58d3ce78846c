package httputil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadLimitedBody(t *testing.T) {
	t.Run("under limit", func(t *testing.T) {
		body, err := ReadLimitedBody(strings.NewReader("hello"), 10)
		require.NoError(t, err)
		assert.Equal(t, "hello", string(body))
	})

	t.Run("exactly at limit", func(t *testing.T) {
		body, err := ReadLimitedBody(strings.NewReader("12345"), 5)
		require.NoError(t, err)
		assert.Equal(t, "12345", string(body))
	})

	t.Run("over limit", func(t *testing.T) {
		body, err := ReadLimitedBody(strings.NewReader("123456"), 5)
		require.ErrorIs(t, err, ErrResponseBodyTooLarge)
		assert.Len(t, body, 5)
	})

	t.Run("no limit", func(t *testing.T) {
		body, err := ReadLimitedBody(strings.NewReader("unbounded"), 0)
		require.NoError(t, err)
		assert.Equal(t, "unbounded", string(body))
	})
}
