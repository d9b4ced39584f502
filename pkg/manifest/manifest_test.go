package manifest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSortNewestFirst(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	entries := []Entry{
		{ID: "b", AddedAt: t0},
		{ID: "c", AddedAt: t0.Add(time.Minute)},
		{ID: "a", AddedAt: t0},
	}

	SortNewestFirst(entries)

	var ids []string
	for _, e := range entries {
		ids = append(ids, string(e.ID))
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
}
