package pagination_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	svcErr "github.com/oggyb/matchmaker/internal/errors"
	"github.com/oggyb/matchmaker/internal/utils/pagination"
)

func TestEncodeDecode(t *testing.T) {
	in := pagination.Cursor{UserID: "ana@test.com", CreatedUnix: 1700000000123}
	token, err := pagination.Encode(in)
	require.NoError(t, err)

	out, err := pagination.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDecodeEmptyIsFirstPage(t *testing.T) {
	c, err := pagination.Decode("")
	require.NoError(t, err)
	assert.True(t, c.IsZero())
}

func TestDecodeGarbage(t *testing.T) {
	_, err := pagination.Decode("%%%")
	assert.ErrorIs(t, err, svcErr.ErrInvalidArgument)

	_, err = pagination.Decode("bm90IGpzb24=") // "not json"
	assert.ErrorIs(t, err, svcErr.ErrInvalidArgument)
}
