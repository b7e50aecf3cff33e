package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageRequestNormalize(t *testing.T) {
	page, size := PageRequest{}.Normalize()
	assert.Equal(t, uint64(1), page)
	assert.Equal(t, uint64(defaultPageSize), size)

	page, size = PageRequest{Page: 3, PageSize: 1000}.Normalize()
	assert.Equal(t, uint64(3), page)
	assert.Equal(t, uint64(maxPageSize), size)
}
