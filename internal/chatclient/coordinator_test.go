package chatclient

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quickchat/backend/internal/models"
)

// settle gives the coordinator's goroutines time to run.
func settle() { time.Sleep(60 * time.Millisecond) }

func TestSend_NoRoomOpen(t *testing.T) {
	c := newTestCoordinator(newFakeFallback())

	err := c.Send("hello")

	assert.ErrorIs(t, err, ErrNoRoomOpen)
	assert.Empty(t, c.Transcript())
}

func TestSend_LivePushMarksSentWithoutAck(t *testing.T) {
	fallback := newFakeFallback()
	c := newTestCoordinator(fallback)
	conn := newFakeConn()
	c.mu.Lock()
	c.chatID = "room1"
	c.conn = conn
	c.mu.Unlock()

	require.NoError(t, c.Send("hello"))

	transcript := c.Transcript()
	require.Len(t, transcript, 1)
	assert.Equal(t, models.StatusSent, transcript[0].Status,
		"the push itself completes the sent transition, no ack awaited")
	assert.Equal(t, "user_me", transcript[0].SenderID)

	cmds := conn.sent()
	require.Len(t, cmds, 1)
	assert.Equal(t, models.ActionMessage, cmds[0].Action)
	assert.Equal(t, "hello", cmds[0].Content)
	assert.Empty(t, fallback.store["room1"], "live path must not touch the fallback")
}

func TestSend_FallbackThenReconcilePicksUpAutoresponse(t *testing.T) {
	fallback := newFakeFallback()
	c := newTestCoordinator(fallback)
	c.OpenRoom("room1")
	defer c.Close()
	settle()

	require.NoError(t, c.Send("hello"))

	transcript := c.Transcript()
	require.Len(t, transcript, 1)
	assert.Equal(t, models.StatusSent, transcript[0].Status)
	assert.Equal(t, "hello", transcript[0].Content)

	fallback.appendServerMessage("room1", models.Message{
		ID:        "srv-auto-1",
		ChatID:    "room1",
		SenderID:  "assistant",
		Content:   "noted!",
		Type:      models.MessageTypeText,
		Status:    models.StatusSent,
		CreatedAt: time.Now(),
	})
	settle()

	transcript = c.Transcript()
	require.Len(t, transcript, 2,
		"the bounded reconcile poll must surface the autoresponse")
	assert.Equal(t, "hello", transcript[0].Content)
	assert.Equal(t, "noted!", transcript[1].Content)
}

func TestReconcile_StopsAtAttemptBound(t *testing.T) {
	fallback := newFakeFallback()
	c := newTestCoordinator(fallback)
	c.OpenRoom("room1")
	defer c.Close()
	settle()
	baseline := fallback.fetches() // the poll loop's initial fetch

	require.NoError(t, c.Send("hello"))
	time.Sleep(150 * time.Millisecond)

	afterBound := fallback.fetches()
	assert.Equal(t, baseline+c.reconcileAttempts, afterBound,
		"reconcile polls exactly the bounded attempt count when nothing new arrives")

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, afterBound, fallback.fetches(), "no further polls after the bound")
}

func TestSend_FallbackFailureRestoresDraft(t *testing.T) {
	fallback := newFakeFallback()
	fallback.postErr = errors.New("503 from server")
	c := newTestCoordinator(fallback)
	var reported atomic.Int32
	c.OnError = func(error) { reported.Add(1) }
	c.mu.Lock()
	c.chatID = "room1"
	c.mu.Unlock()

	err := c.Send("hello")

	assert.Error(t, err)
	assert.Empty(t, c.Transcript(), "the optimistic entry is rolled back")
	assert.Equal(t, "hello", c.Draft(), "content is parked for retry")
	assert.Empty(t, c.Draft(), "draft is cleared once taken")
	assert.EqualValues(t, 1, reported.Load())
}

func TestOpenRoom_InitialFetchSeedsTranscript(t *testing.T) {
	fallback := newFakeFallback()
	fallback.store["room1"] = []models.Message{
		{ID: "m1", ChatID: "room1", SenderID: "user_other", Content: "hi"},
		{ID: "m2", ChatID: "room1", SenderID: "user_other", Content: "there"},
	}
	c := newTestCoordinator(fallback)
	c.OpenRoom("room1")
	defer c.Close()
	settle()

	transcript := c.Transcript()
	require.Len(t, transcript, 2)
	assert.Equal(t, "m1", transcript[0].ID)
	assert.Equal(t, "m2", transcript[1].ID)
}

func TestMergeIncoming_MatchesOwnEchoByContentProximity(t *testing.T) {
	c := newTestCoordinator(newFakeFallback())
	c.mu.Lock()
	c.chatID = "room1"
	c.mu.Unlock()
	c.appendEntry(models.Message{
		ID:        "local-1",
		ChatID:    "room1",
		SenderID:  "user_me",
		Content:   "hello",
		Status:    models.StatusSent,
		CreatedAt: time.Now(),
	})

	c.mergeIncoming(models.Message{
		ID:        "srv-9",
		ChatID:    "room1",
		SenderID:  "user_me",
		Content:   "hello",
		Status:    models.StatusSent,
		CreatedAt: time.Now(),
	})

	transcript := c.Transcript()
	require.Len(t, transcript, 1, "the echo replaces the optimistic entry, no duplicate")
	assert.Equal(t, "srv-9", transcript[0].ID)
}

func TestMergeIncoming_OtherSenderArrivesDelivered(t *testing.T) {
	c := newTestCoordinator(newFakeFallback())
	c.mu.Lock()
	c.chatID = "room1"
	c.mu.Unlock()

	c.mergeIncoming(models.Message{
		ID: "srv-1", ChatID: "room1", SenderID: "user_other",
		Content: "hi", Status: models.StatusSent, CreatedAt: time.Now(),
	})

	transcript := c.Transcript()
	require.Len(t, transcript, 1)
	assert.Equal(t, models.StatusDelivered, transcript[0].Status)

	c.MarkRead()
	assert.Equal(t, models.StatusRead, c.Transcript()[0].Status)
}

func TestMergeIncoming_DuplicateIDKeepsLocalReceipt(t *testing.T) {
	c := newTestCoordinator(newFakeFallback())
	c.mu.Lock()
	c.chatID = "room1"
	c.transcript = []models.Message{
		{ID: "srv-1", ChatID: "room1", SenderID: "user_other", Content: "hi", Status: models.StatusRead},
	}
	c.mu.Unlock()

	c.mergeIncoming(models.Message{
		ID: "srv-1", ChatID: "room1", SenderID: "user_other",
		Content: "hi", Status: models.StatusSent,
		Reactions: []models.Reaction{{MessageID: "srv-1", Emoji: "👍", Count: 1}},
	})

	transcript := c.Transcript()
	require.Len(t, transcript, 1)
	assert.Equal(t, models.StatusRead, transcript[0].Status,
		"a rebroadcast must not demote a locally read message")
	require.Len(t, transcript[0].Reactions, 1)
	assert.Equal(t, "👍", transcript[0].Reactions[0].Emoji)
}

func TestMergeIncoming_WrongChatIgnored(t *testing.T) {
	c := newTestCoordinator(newFakeFallback())
	c.mu.Lock()
	c.chatID = "room1"
	c.mu.Unlock()

	c.mergeIncoming(models.Message{ID: "srv-1", ChatID: "room2", SenderID: "user_other", Content: "hi"})

	assert.Empty(t, c.Transcript())
}

func TestConnectLoop_BoundedDialAttempts(t *testing.T) {
	c := newTestCoordinator(newFakeFallback())
	c.reconnectAttempts = 3
	var dials atomic.Int32
	c.dial = func(string) (LiveConn, error) {
		dials.Add(1)
		return nil, errors.New("connection refused")
	}

	c.OpenRoom("room1")
	defer c.Close()
	time.Sleep(100 * time.Millisecond)

	assert.EqualValues(t, 3, dials.Load(), "dialing gives up at the attempt bound")
	assert.False(t, c.Connected())
}

func TestConnectLoop_JoinWriteFailureIsBoundedAndBackedOff(t *testing.T) {
	c := newTestCoordinator(newFakeFallback())
	c.reconnectAttempts = 3
	var dials atomic.Int32
	c.dial = func(string) (LiveConn, error) {
		dials.Add(1)
		conn := newFakeConn()
		conn.writeErr = errors.New("broken pipe")
		return conn, nil
	}

	c.OpenRoom("room1")
	defer c.Close()
	time.Sleep(100 * time.Millisecond)

	assert.EqualValues(t, 3, dials.Load(),
		"a failed join write consumes a bounded, backed-off attempt rather than hot-redialing")
	assert.False(t, c.Connected())
}

func TestConnectLoop_RejoinsAfterReconnect(t *testing.T) {
	first := newFakeConn()
	second := newFakeConn()
	conns := make(chan *fakeConn, 2)
	conns <- first
	conns <- second

	c := newTestCoordinator(newFakeFallback())
	c.reconnectAttempts = 2
	c.dial = func(string) (LiveConn, error) {
		select {
		case fc := <-conns:
			return fc, nil
		default:
			return nil, errors.New("exhausted")
		}
	}

	c.OpenRoom("room1")
	defer c.Close()
	settle()
	require.True(t, c.Connected())

	first.Close() // drop the live channel
	settle()

	firstCmds := first.sent()
	secondCmds := second.sent()
	require.NotEmpty(t, firstCmds)
	require.NotEmpty(t, secondCmds,
		"a fresh join must be issued on the new connection, the server forgot the membership")
	assert.Equal(t, models.ActionJoin, firstCmds[0].Action)
	assert.Equal(t, models.ActionJoin, secondCmds[0].Action)
	assert.Equal(t, "room1", secondCmds[0].ChatID)
}

func TestLiveEvents_DriveCallbacksAndTranscript(t *testing.T) {
	conn := newFakeConn()
	c := newTestCoordinator(newFakeFallback())
	c.dial = func(string) (LiveConn, error) { return conn, nil }

	var presence atomic.Int32
	var typings atomic.Int32
	c.OnPresence = func(models.PresenceChange) { presence.Add(1) }
	c.OnTyping = func(models.TypingChange) { typings.Add(1) }

	c.OpenRoom("room1")
	defer c.Close()
	settle()

	conn.push(models.Event{
		Type:    models.EventMessageCreated,
		ChatID:  "room1",
		Message: &models.Message{ID: "srv-1", ChatID: "room1", SenderID: "user_other", Content: "hi", CreatedAt: time.Now()},
	})
	conn.push(models.Event{
		Type:     models.EventPresenceChanged,
		ChatID:   "room1",
		Presence: &models.PresenceChange{UserID: "user_other", Kind: models.PresenceJoined},
	})
	conn.push(models.Event{
		Type:   models.EventTypingChanged,
		ChatID: "room1",
		Typing: &models.TypingChange{UserID: "user_other", IsTyping: true},
	})
	settle()

	transcript := c.Transcript()
	require.Len(t, transcript, 1)
	assert.Equal(t, models.StatusDelivered, transcript[0].Status)
	assert.EqualValues(t, 1, presence.Load())
	assert.EqualValues(t, 1, typings.Load())
}

func TestClose_SendsLeaveAndStopsLoops(t *testing.T) {
	conn := newFakeConn()
	fallback := newFakeFallback()
	c := newTestCoordinator(fallback)
	c.dial = func(string) (LiveConn, error) { return conn, nil }

	c.OpenRoom("room1")
	settle()
	require.True(t, c.Connected())

	c.Close()
	settle()

	assert.False(t, c.Connected())
	cmds := conn.sent()
	require.NotEmpty(t, cmds)
	last := cmds[len(cmds)-1]
	assert.Equal(t, models.ActionLeave, last.Action)
	assert.Equal(t, "room1", last.ChatID)

	fetchesAtClose := fallback.fetches()
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, fetchesAtClose, fallback.fetches(), "no polling after close")
}

func TestSleepCtx_CancelledEarly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, sleepCtx(ctx, time.Hour))
}
