package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"mentorlink/internal/database"
	"mentorlink/internal/models"
	"mentorlink/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func textMessage(id, key, from, to, content string, at time.Time) *models.DirectMessage {
	return &models.DirectMessage{
		ID:             id,
		ConversationID: key,
		SenderID:       from,
		RecipientID:    to,
		Content:        content,
		MessageType:    models.MessageTypeText,
		CreatedAt:      at,
		UpdatedAt:      at,
	}
}

func TestFindOrCreateConversationConcurrent(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]*models.Conversation, 20)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conv, err := store.FindOrCreateConversation(ctx, "a_b", []string{"a", "b"}, t0)
			assert.NoError(t, err)
			results[i] = conv
		}(i)
	}
	wg.Wait()

	assert.Len(t, store.conversations, 1)
	for _, conv := range results {
		assert.Equal(t, "a_b", conv.ID)
		assert.Equal(t, map[string]int{"a": 0, "b": 0}, conv.UnreadCount)
	}
}

func TestAppendAndMarkRead(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	_, err := store.FindOrCreateConversation(ctx, "a_b", []string{"a", "b"}, t0)
	require.NoError(t, err)

	require.NoError(t, store.AppendMessage(ctx, textMessage("1", "a_b", "a", "b", "hi", t0.Add(time.Second))))
	require.NoError(t, store.AppendMessage(ctx, textMessage("2", "a_b", "a", "b", "there", t0.Add(2*time.Second))))
	require.NoError(t, store.AppendMessage(ctx, textMessage("3", "a_b", "b", "a", "yo", t0.Add(3*time.Second))))

	conv, err := store.GetConversation(ctx, "a_b")
	require.NoError(t, err)
	assert.Equal(t, 2, conv.UnreadFor("b"))
	assert.Equal(t, 1, conv.UnreadFor("a"))
	assert.Equal(t, "yo", conv.LastMessage.Content)

	modified, err := store.MarkConversationRead(ctx, "a_b", "b", "a", t0.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(2), modified)

	conv, _ = store.GetConversation(ctx, "a_b")
	assert.Equal(t, 0, conv.UnreadFor("b"))
	assert.Equal(t, 1, conv.UnreadFor("a"))

	msg, _ := store.GetMessage(ctx, "3")
	assert.False(t, msg.IsRead)
	msg, _ = store.GetMessage(ctx, "1")
	assert.True(t, msg.IsRead)
	require.NotNil(t, msg.ReadAt)
}

func TestAppendRequiresConversation(t *testing.T) {
	store := NewStore()
	err := store.AppendMessage(context.Background(), textMessage("1", "a_b", "a", "b", "hi", t0))
	assert.True(t, utils.IsErrorCode(err, utils.ErrNotFound))
}

func TestListMessagesPaginatesBackwards(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	_, _ = store.FindOrCreateConversation(ctx, "a_b", []string{"a", "b"}, t0)
	for i, content := range []string{"one", "two", "three", "four"} {
		require.NoError(t, store.AppendMessage(ctx, textMessage(content, "a_b", "a", "b", content, t0.Add(time.Duration(i)*time.Second))))
	}

	page, err := store.ListMessages(ctx, "a_b", 2, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"three", "four"}, contents(page))

	before := page[0].CreatedAt
	page, err = store.ListMessages(ctx, "a_b", 2, &before)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, contents(page))
}

func TestAddDeletionIsIdempotent(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	_, _ = store.FindOrCreateConversation(ctx, "a_b", []string{"a", "b"}, t0)
	require.NoError(t, store.AppendMessage(ctx, textMessage("1", "a_b", "a", "b", "hi", t0)))

	msg, err := store.AddDeletion(ctx, "1", "a", t0)
	require.NoError(t, err)
	msg, err = store.AddDeletion(ctx, "1", "a", t0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, msg.DeletedBy.IDs())
	assert.False(t, msg.IsDeleted)

	msg, err = store.AddDeletion(ctx, "1", "b", t0)
	require.NoError(t, err)
	assert.True(t, msg.IsDeleted)

	page, _ := store.ListMessages(ctx, "a_b", 50, nil)
	assert.Empty(t, page)

	_, err = store.AddDeletion(ctx, "missing", "a", t0)
	assert.True(t, utils.IsErrorCode(err, utils.ErrNotFound))
}

func TestSearchMessages(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	_, _ = store.FindOrCreateConversation(ctx, "a_b", []string{"a", "b"}, t0)
	_, _ = store.FindOrCreateConversation(ctx, "c_d", []string{"c", "d"}, t0)
	require.NoError(t, store.AppendMessage(ctx, textMessage("1", "a_b", "a", "b", "Project kickoff", t0)))
	require.NoError(t, store.AppendMessage(ctx, textMessage("2", "a_b", "b", "a", "the PROJECT plan", t0.Add(time.Second))))
	require.NoError(t, store.AppendMessage(ctx, textMessage("3", "c_d", "c", "d", "project secrets", t0)))

	found, err := store.SearchMessages(ctx, "a", "project", 50)
	require.NoError(t, err)
	assert.Equal(t, []string{"the PROJECT plan", "Project kickoff"}, contents(found))
}

func TestListConversationsFiltersAndOrders(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	for _, key := range [][]string{{"a", "b"}, {"a", "c"}, {"a", "d"}} {
		_, _ = store.FindOrCreateConversation(ctx, key[0]+"_"+key[1], key, t0)
	}
	require.NoError(t, store.AppendMessage(ctx, textMessage("1", "a_b", "a", "b", "old", t0.Add(time.Second))))
	require.NoError(t, store.AppendMessage(ctx, textMessage("2", "a_c", "a", "c", "new", t0.Add(time.Minute))))
	require.NoError(t, store.SetArchived(ctx, "a_d", "a", true))

	list, err := store.ListConversations(ctx, "a", []string{"b", "c", "d"}, 50)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a_c", list[0].ID)
	assert.Equal(t, "a_b", list[1].ID)

	list, _ = store.ListConversations(ctx, "a", []string{"b"}, 50)
	assert.Len(t, list, 1)

	// d still sees it
	list, _ = store.ListConversations(ctx, "d", []string{"a"}, 50)
	assert.Len(t, list, 1)

	err = store.SetArchived(ctx, "a_b", "z", true)
	assert.True(t, utils.IsErrorCode(err, utils.ErrNotFound))
}

func TestUnreadTotal(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	_, _ = store.FindOrCreateConversation(ctx, "a_b", []string{"a", "b"}, t0)
	_, _ = store.FindOrCreateConversation(ctx, "a_c", []string{"a", "c"}, t0)
	require.NoError(t, store.AppendMessage(ctx, textMessage("1", "a_b", "b", "a", "x", t0)))
	require.NoError(t, store.AppendMessage(ctx, textMessage("2", "a_c", "c", "a", "y", t0)))
	require.NoError(t, store.AppendMessage(ctx, textMessage("3", "a_c", "c", "a", "z", t0)))

	total, err := store.UnreadTotal(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}

func TestMentorshipRequests(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	require.NoError(t, store.CreateRequest(ctx, &models.MentorshipRequest{
		ID: "r1", StudentID: "s1", MentorID: "m1", Status: models.MentorshipPending, CreatedAt: t0,
	}))

	active, err := store.FindActiveRequest(ctx, "s1", "m1")
	require.NoError(t, err)
	require.NotNil(t, active)

	ok, _ := store.HasRequestBetween(ctx, "m1", "s1", models.MentorshipAccepted)
	assert.False(t, ok)

	_, err = store.TransitionRequest(ctx, "r1", "someone-else", models.MentorshipAccepted, t0)
	assert.True(t, utils.IsErrorCode(err, utils.ErrNotFound))

	accepted, err := store.TransitionRequest(ctx, "r1", "m1", models.MentorshipAccepted, t0)
	require.NoError(t, err)
	assert.Equal(t, models.MentorshipAccepted, accepted.Status)

	_, err = store.TransitionRequest(ctx, "r1", "m1", models.MentorshipRejected, t0)
	assert.True(t, utils.IsErrorCode(err, utils.ErrNotFound))

	ok, _ = store.HasRequestBetween(ctx, "m1", "s1", models.MentorshipAccepted)
	assert.True(t, ok)

	partners, _ := store.AcceptedPartners(ctx, "m1")
	assert.Equal(t, []string{"s1"}, partners)

	listed, _ := store.ListRequests(ctx, database.RequestFilter{MentorID: "m1", Status: models.MentorshipAccepted})
	assert.Len(t, listed, 1)
}

func contents(messages []*models.DirectMessage) []string {
	out := make([]string, len(messages))
	for i, m := range messages {
		out[i] = m.Content
	}
	return out
}
