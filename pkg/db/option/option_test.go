package option

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithQuerySortBy(t *testing.T) {
	allowed := map[string]bool{"name": true}

	assert.Nil(t, WithQuerySortBy("password", "asc", allowed))
	assert.Nil(t, WithQuerySortBy("", "asc", allowed))

	s := WithQuerySortBy(" Name ", "DESC", allowed)
	if assert.NotNil(t, s) {
		assert.Equal(t, "name", s.column)
		assert.True(t, s.desc)
	}
}

func TestWithSortByDefaultsToID(t *testing.T) {
	opt := WithSortBy(nil)
	assert.Equal(t, sortBy{column: "id"}, opt)
}
