package rabbitmq

import (
	"encoding/json"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docanalyst/internal/model"
)

func TestExchangeMessage_RoundTrip(t *testing.T) {
	answer, reasoning, score := "Yes, under plan B.", "Section 1.", 92
	in := &model.Exchange{
		UserID:          3,
		DocumentID:      7,
		Question:        "Is knee surgery covered?",
		Answer:          &answer,
		Evidence:        []string{"Knee surgery is covered under plan B."},
		ConfidenceScore: &score,
		Reasoning:       &reasoning,
		Outcome:         "structured",
		Document:        model.Document{ID: 7, Content: "full text"},
	}

	msg, err := exchangeMessage(in)
	require.NoError(t, err)
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.NotContains(t, string(msg.Body), "full text")

	var out model.Exchange
	require.NoError(t, json.Unmarshal(msg.Body, &out))
	assert.Equal(t, uint(3), out.UserID)
	assert.Equal(t, uint(7), out.DocumentID)
	assert.Equal(t, in.Question, out.Question)
	require.NotNil(t, out.Answer)
	assert.Equal(t, answer, *out.Answer)
	require.NotNil(t, out.ConfidenceScore)
	assert.Equal(t, 92, *out.ConfidenceScore)
	assert.Equal(t, in.Evidence, out.Evidence)
	assert.Equal(t, "structured", out.Outcome)
}

func TestExchangeMessage_FailureStub(t *testing.T) {
	msg, err := exchangeMessage(&model.Exchange{
		UserID:     1,
		DocumentID: 2,
		Question:   "q",
		Evidence:   []string{},
		Outcome:    "failed",
	})
	require.NoError(t, err)

	var out model.Exchange
	require.NoError(t, json.Unmarshal(msg.Body, &out))
	assert.Nil(t, out.Answer)
	assert.Nil(t, out.ConfidenceScore)
	assert.Nil(t, out.Reasoning)
	assert.Equal(t, "failed", out.Outcome)
}
