package roomtalk

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	messages []ChatMessage
	err      error
}

func (s *stubStore) History(context.Context, int64) ([]ChatMessage, error) {
	return s.messages, s.err
}

func backlog() []ChatMessage {
	return []ChatMessage{
		{ID: 1, RoomID: 5, UserID: 1, MessageText: "first", Timestamp: Timestamp{time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)}},
		{ID: 2, RoomID: 5, UserID: 2, MessageText: "second", Timestamp: Timestamp{time.Date(2025, 1, 1, 10, 1, 0, 0, time.UTC)}},
	}
}

func TestLoaderRendersInOrder(t *testing.T) {
	names := NewUserCache(newCountingResolver(map[int64]string{1: "alice", 2: "bob"}))
	l := NewLoader(&stubStore{messages: backlog()}, names)

	var rendered []RenderedMessage
	err := l.Load(context.Background(), 5, func(m RenderedMessage) { rendered = append(rendered, m) }, func() int64 { return 5 })

	require.NoError(t, err)
	require.Len(t, rendered, 2)
	assert.Equal(t, "alice", rendered[0].Username)
	assert.Equal(t, "first", rendered[0].Message.MessageText)
	assert.Equal(t, "bob", rendered[1].Username)
	assert.Equal(t, "second", rendered[1].Message.MessageText)
}

func TestLoaderPlaceholderOnLookupFailure(t *testing.T) {
	names := NewUserCache(newCountingResolver(map[int64]string{1: "alice"}))
	l := NewLoader(&stubStore{messages: backlog()}, names)

	var rendered []RenderedMessage
	err := l.Load(context.Background(), 5, func(m RenderedMessage) { rendered = append(rendered, m) }, func() int64 { return 5 })

	require.NoError(t, err)
	require.Len(t, rendered, 2)
	assert.Equal(t, "UnknownUser(2)", rendered[1].Username)
}

func TestLoaderDiscardsStaleResult(t *testing.T) {
	names := NewUserCache(newCountingResolver(map[int64]string{1: "alice", 2: "bob"}))
	l := NewLoader(&stubStore{messages: backlog()}, names)

	// The user switched to room 9 while the fetch for room 5 was in flight.
	var rendered []RenderedMessage
	err := l.Load(context.Background(), 5, func(m RenderedMessage) { rendered = append(rendered, m) }, func() int64 { return 9 })

	require.NoError(t, err)
	assert.Empty(t, rendered)
}

func TestLoaderAbandonsBackfillMidway(t *testing.T) {
	names := NewUserCache(newCountingResolver(map[int64]string{1: "alice", 2: "bob"}))
	l := NewLoader(&stubStore{messages: backlog()}, names)

	// Room switches after the first message renders.
	current := int64(5)
	var rendered []RenderedMessage
	err := l.Load(context.Background(), 5, func(m RenderedMessage) {
		rendered = append(rendered, m)
		current = 9
	}, func() int64 { return current })

	require.NoError(t, err)
	assert.Len(t, rendered, 1)
}

func TestLoaderFetchFailure(t *testing.T) {
	names := NewUserCache(newCountingResolver(nil))
	l := NewLoader(&stubStore{err: errors.New("boom")}, names)

	err := l.Load(context.Background(), 5, func(RenderedMessage) { t.Fatal("must not render") }, func() int64 { return 5 })

	require.Error(t, err)
	assert.ErrorIs(t, err, NewError(ErrorRequest, ""))
}
