package env

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	t.Setenv("EMBEDMUX_TEST_SECRET", "s3cret")

	p := New()
	val, err := p.Get(context.Background(), "EMBEDMUX_TEST_SECRET")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", val)
}

func TestGet_Unset(t *testing.T) {
	p := New()
	_, err := p.Get(context.Background(), "EMBEDMUX_DEFINITELY_UNSET")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EMBEDMUX_DEFINITELY_UNSET")
}
