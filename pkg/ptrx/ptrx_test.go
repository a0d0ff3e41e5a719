package ptrx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNonZero(t *testing.T) {
	assert.Nil(t, NonZero(""))
	assert.Nil(t, NonZero(0))

	p := NonZero("a@b.io")
	require.NotNil(t, p)
	assert.Equal(t, "a@b.io", *p)
}

func TestDeref(t *testing.T) {
	assert.Equal(t, "fallback", Deref(nil, "fallback"))
	assert.Equal(t, "v", Deref(To("v"), "fallback"))
}
