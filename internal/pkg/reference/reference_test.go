package reference

import (
	"strings"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferencesAreUniqueAndParseable(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		ref := Payment()
		require.False(t, seen[ref], "duplicate reference %s", ref)
		seen[ref] = true
	}

	ref := Subscription()
	require.True(t, strings.HasPrefix(ref, "SUB-"))
	_, err := ulid.Parse(strings.TrimPrefix(ref, "SUB-"))
	assert.NoError(t, err)
}
