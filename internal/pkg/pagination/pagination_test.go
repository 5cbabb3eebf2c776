package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	page, size := Normalize(0, 0)
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, size)

	page, size = Normalize(3, 500)
	assert.Equal(t, 3, page)
	assert.Equal(t, 100, size)
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0, 20))
	assert.Equal(t, 1, TotalPages(20, 20))
	assert.Equal(t, 2, TotalPages(21, 20))
	assert.Equal(t, 0, TotalPages(5, 0))
	assert.Equal(t, 40, Offset(3, 20))
}
