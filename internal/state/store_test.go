package state

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := newMemoryStore()
	ctx := context.Background()
	key := For(42)

	conv, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, StepNone, conv.Step)

	conv.Step = StepName
	conv.OrderID = "ord-1"
	require.NoError(t, s.Set(ctx, key, conv))

	got, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, StepName, got.Step)
	assert.Equal(t, "ord-1", got.OrderID)

	require.NoError(t, s.Clear(ctx, key))
	got, err = s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, StepNone, got.Step)
}

func TestMemoryStoreIsolatesIdentities(t *testing.T) {
	s := newMemoryStore()
	ctx := context.Background()

	buyer := For(100)
	reviewer := For(200)

	require.NoError(t, s.Set(ctx, buyer, &Conversation{Step: StepAwaitReceipt, OrderID: "ord-7"}))
	require.NoError(t, s.Set(ctx, reviewer, &Conversation{Step: StepOverrideAmount, OrderID: "ord-7"}))

	b, err := s.Get(ctx, buyer)
	require.NoError(t, err)
	r, err := s.Get(ctx, reviewer)
	require.NoError(t, err)

	assert.Equal(t, StepAwaitReceipt, b.Step)
	assert.Equal(t, StepOverrideAmount, r.Step)

	// Clearing the reviewer must not touch the buyer.
	require.NoError(t, s.Clear(ctx, reviewer))
	b, err = s.Get(ctx, buyer)
	require.NoError(t, err)
	assert.Equal(t, StepAwaitReceipt, b.Step)
}

func TestMemoryStoreCopiesOnWrite(t *testing.T) {
	s := newMemoryStore()
	ctx := context.Background()
	key := For(1)

	conv := &Conversation{Step: StepPhone, Name: "Anna"}
	require.NoError(t, s.Set(ctx, key, conv))
	conv.Name = "changed after set"

	got, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "Anna", got.Name)
}

func TestNewStoreFallsBackWithoutAddr(t *testing.T) {
	s, err := NewStore("", "", 0)
	require.NoError(t, err)
	_, ok := s.(*memoryStore)
	assert.True(t, ok)
}
