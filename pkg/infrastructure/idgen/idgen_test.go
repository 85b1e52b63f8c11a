package idgen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/dough/pkg/domain/entities"
)

func TestSequence_IsDeterministic(t *testing.T) {
	seq := NewSequence("B-", 7)
	assert.Equal(t, entities.BatchID("B-7"), seq.NextID())
	assert.Equal(t, entities.BatchID("B-8"), seq.NextID())
	assert.Equal(t, entities.BatchID("B-9"), seq.NextID())
}

func TestNew_Strategies(t *testing.T) {
	cases := []struct {
		strategy Strategy
		prefix   string
	}{
		{StrategySequence, "B-"},
		{"", "B-"},
		{StrategyTypeID, "batch_"},
		{StrategySnowflake, "B-"},
		{"TypeID", "batch_"},
	}

	for _, tc := range cases {
		t.Run(string(tc.strategy), func(t *testing.T) {
			gen, err := New(tc.strategy, 1)
			require.NoError(t, err)

			seen := make(map[entities.BatchID]struct{})
			for i := 0; i < 100; i++ {
				id := gen.NextID()
				assert.True(t, strings.HasPrefix(string(id), tc.prefix), "id %s", id)
				_, dup := seen[id]
				require.False(t, dup, "duplicate id %s", id)
				seen[id] = struct{}{}
			}
		})
	}
}

func TestNew_UnknownStrategy(t *testing.T) {
	_, err := New("random", 1)
	assert.Error(t, err)
}

func TestNewSnowflake_RejectsBadNode(t *testing.T) {
	_, err := NewSnowflake(-1)
	assert.Error(t, err)
}
