package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestDeletionSetCapsAtTwo(t *testing.T) {
	s := NewDeletionSet()
	assert.True(t, s.Add("a"))
	assert.False(t, s.Add("a"), "same account must not count twice")
	assert.False(t, s.Full())
	assert.True(t, s.Add("b"))
	assert.True(t, s.Full())
	assert.False(t, s.Add("c"))
	assert.Equal(t, []string{"a", "b"}, s.IDs())
	assert.False(t, s.Add(""))
}

func TestMarkDeletedByFlipsOnlyAtTwo(t *testing.T) {
	msg := &DirectMessage{SenderID: "s1", RecipientID: "m1"}

	assert.True(t, msg.MarkDeletedBy("s1"))
	assert.False(t, msg.IsDeleted)
	assert.Equal(t, 1, msg.DeletedBy.Len())

	assert.False(t, msg.MarkDeletedBy("s1"))
	assert.False(t, msg.IsDeleted)

	assert.True(t, msg.MarkDeletedBy("m1"))
	assert.True(t, msg.IsDeleted)
}

func TestDeletionSetEncoding(t *testing.T) {
	type doc struct {
		DeletedBy DeletionSet `bson:"deletedBy" json:"deletedBy"`
	}

	raw, err := bson.Marshal(doc{DeletedBy: NewDeletionSet()})
	require.NoError(t, err)
	arr, ok := bson.Raw(raw).Lookup("deletedBy").ArrayOK()
	require.True(t, ok, "empty set must be stored as an array, not null")
	values, err := arr.Values()
	require.NoError(t, err)
	assert.Empty(t, values)

	raw, err = bson.Marshal(bson.M{"deletedBy": []string{"x", "x", "y", "z"}})
	require.NoError(t, err)
	var decoded doc
	require.NoError(t, bson.Unmarshal(raw, &decoded))
	assert.Equal(t, []string{"x", "y"}, decoded.DeletedBy.IDs())

	out, err := json.Marshal(doc{DeletedBy: NewDeletionSet("x")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"deletedBy":["x"]}`, string(out))
}

func TestPreview(t *testing.T) {
	text := &DirectMessage{MessageType: MessageTypeText, Content: "hello"}
	image := &DirectMessage{MessageType: MessageTypeImage}
	assert.Equal(t, "hello", text.Preview())
	assert.Equal(t, "Sent a image", image.Preview())
}

func TestConversationHelpers(t *testing.T) {
	c := &Conversation{Participants: []string{"a", "b"}}
	assert.Equal(t, "b", c.OtherParticipant("a"))
	assert.Equal(t, "a", c.OtherParticipant("b"))
	assert.True(t, c.HasParticipant("a"))
	assert.False(t, c.HasParticipant("z"))
	assert.Equal(t, 0, c.UnreadFor("a"))
	assert.False(t, c.ArchivedFor("a"))

	c.UnreadCount = map[string]int{"a": 3}
	assert.Equal(t, 3, c.UnreadFor("a"))
}
