package migrations

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSorted(t *testing.T) {
	list := Sorted()
	for i := 1; i < len(list); i++ {
		assert.Less(t, list[i-1].ID, list[i].ID)
	}
}

func TestPending(t *testing.T) {
	all := Sorted()
	assert.Len(t, Pending(nil), len(all))

	applied := map[string]bool{all[0].ID: true}
	pending := Pending(applied)
	assert.Len(t, pending, len(all)-1)
	for _, m := range pending {
		assert.NotEqual(t, all[0].ID, m.ID)
	}

	everything := make(map[string]bool)
	for _, m := range all {
		everything[m.ID] = true
	}
	assert.Empty(t, Pending(everything))
}

func TestRecordOrderIndexHasTiebreaker(t *testing.T) {
	list := Sorted()
	last := list[len(list)-1]
	assert.Contains(t, last.UpSQL, "ADD COLUMN seq BIGSERIAL")
	assert.Contains(t, last.UpSQL, "(fetched_at DESC, seq DESC)")
}
