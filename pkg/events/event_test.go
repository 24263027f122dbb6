package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithFieldDoesNotMutateOriginal(t *testing.T) {
	e := New(TypeQuerySent, map[string]interface{}{"view_id": "v1"})

	tagged := WithField(e, "user_id", "u1")

	assert.Equal(t, "u1", tagged.Payload()["user_id"])
	assert.NotContains(t, e.Payload(), "user_id")
	assert.Equal(t, e.Timestamp(), tagged.Timestamp())
}

func TestEncodeDecode(t *testing.T) {
	data, err := Encode(New(TypeConversationCreated, map[string]interface{}{"conversation_id": "c1"}))
	require.NoError(t, err)

	env, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, TypeConversationCreated, env.Type)
	assert.Equal(t, "c1", env.Payload["conversation_id"])
	assert.False(t, env.OccurredAt.IsZero())
}
