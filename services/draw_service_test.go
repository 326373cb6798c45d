package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entryIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("e%d", i+1)
	}
	return ids
}

func TestGenerateRoundRobinEveryoneMeetsOnce(t *testing.T) {
	for _, n := range []int{2, 4, 6, 8} {
		pairs := GenerateRoundRobin(entryIDs(n))
		require.Len(t, pairs, n*(n-1)/2, "n=%d", n)

		seen := map[string]bool{}
		for _, p := range pairs {
			require.NotEmpty(t, p.EntryA)
			require.NotEmpty(t, p.EntryB)
			require.NotEqual(t, p.EntryA, p.EntryB)
			key := p.EntryA + "|" + p.EntryB
			if p.EntryB < p.EntryA {
				key = p.EntryB + "|" + p.EntryA
			}
			assert.False(t, seen[key], "pair %s repeated (n=%d)", key, n)
			seen[key] = true
		}
	}
}

func TestGenerateRoundRobinOddFieldGetsBye(t *testing.T) {
	pairs := GenerateRoundRobin(entryIDs(5))
	// 5 entries still produce a full cycle of 10 pairings, each round one
	// entry sits out
	require.Len(t, pairs, 10)

	perRound := map[int]int{}
	for _, p := range pairs {
		perRound[p.Round]++
	}
	assert.Len(t, perRound, 5)
	for round, count := range perRound {
		assert.Equal(t, 2, count, "round %d", round)
	}
}

func TestGenerateRoundRobinNoMatchPossible(t *testing.T) {
	assert.Nil(t, GenerateRoundRobin(nil))
	assert.Nil(t, GenerateRoundRobin(entryIDs(1)))
}

func TestGenerateRoundRobinNoSameRoundOverlap(t *testing.T) {
	pairs := GenerateRoundRobin(entryIDs(6))

	byRound := map[int][]DrawPair{}
	for _, p := range pairs {
		byRound[p.Round] = append(byRound[p.Round], p)
	}
	for round, rp := range byRound {
		busy := map[string]bool{}
		for _, p := range rp {
			assert.False(t, busy[p.EntryA], "entry %s plays twice in round %d", p.EntryA, round)
			assert.False(t, busy[p.EntryB], "entry %s plays twice in round %d", p.EntryB, round)
			busy[p.EntryA] = true
			busy[p.EntryB] = true
		}
	}
}

func TestGenerateBracketRound(t *testing.T) {
	pairs := GenerateBracketRound(entryIDs(8))
	require.Len(t, pairs, 4)
	for i, p := range pairs {
		assert.Equal(t, 1, p.Round)
		assert.Equal(t, i+1, p.MatchNumber)
		assert.NotEmpty(t, p.EntryA)
		assert.NotEmpty(t, p.EntryB)
	}
}

func TestGenerateBracketRoundOddFieldLastSeedBye(t *testing.T) {
	pairs := GenerateBracketRound(entryIDs(5))
	require.Len(t, pairs, 3)
	last := pairs[len(pairs)-1]
	assert.Equal(t, "e5", last.EntryA)
	assert.Empty(t, last.EntryB, "odd field gives the last seed a bye")
}

func TestGenerateBracketRoundTooFewEntries(t *testing.T) {
	assert.Nil(t, GenerateBracketRound(nil))
	assert.Nil(t, GenerateBracketRound(entryIDs(1)))
}
