package pagination

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	at := time.Date(2026, 5, 1, 10, 30, 0, 123, time.UTC)
	token, err := EncodeCursor(Cursor{ID: snowflake.ID(99), CreatedAt: at})
	require.NoError(t, err)

	decoded, err := DecodeCursor(token)
	require.NoError(t, err)
	assert.Equal(t, snowflake.ID(99), decoded.ID)
	assert.True(t, at.Equal(decoded.CreatedAt))
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	_, err := DecodeCursor("%%%")
	assert.ErrorIs(t, err, ErrInvalidPageToken)

	c, err := DecodeCursor("")
	assert.NoError(t, err)
	assert.Nil(t, c)
}

func TestTrimBuildsNextToken(t *testing.T) {
	items := []int{5, 4, 3}
	page, info := Trim(items, 2, func(v int) Cursor {
		return Cursor{ID: snowflake.ID(v), CreatedAt: time.Unix(int64(v), 0)}
	})
	assert.Equal(t, []int{5, 4}, page)
	assert.True(t, info.HasMore)

	next, err := DecodeCursor(info.NextPageToken)
	require.NoError(t, err)
	assert.Equal(t, snowflake.ID(4), next.ID)

	page, info = Trim(items, 5, nil)
	assert.Len(t, page, 3)
	assert.False(t, info.HasMore)
}

func TestLimitClamps(t *testing.T) {
	assert.Equal(t, DefaultPageSize, Pagination{}.Limit())
	assert.Equal(t, MaxPageSize, Pagination{PageSize: 1000}.Limit())
	assert.Equal(t, 10, Pagination{PageSize: 10}.Limit())
}
