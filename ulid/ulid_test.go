package ulid

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestULID(t *testing.T) {
	tm := time.Now()
	ul1, err := MakeULID(tm)
	require.NoError(t, err)
	ul2, err := MakeULID(tm)
	require.NoError(t, err)

	assert.NotEqual(t, ul1.String(), ul2.String())
	assert.Equal(t, -1, ul1.Compare(ul2), "ids in the same millisecond should increase")
	assert.Equal(t, oklidTime(tm), ul1.Time())
	t.Logf("ulid string 1 and 2: %s | %s", ul1.String(), ul2.String())
}

func oklidTime(t time.Time) uint64 {
	return uint64(t.UnixMilli())
}
