package mailer

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"

	"github.com/deusflow/eyewear-digest/internal/logger"
	"github.com/deusflow/eyewear-digest/internal/metrics"
	"github.com/deusflow/eyewear-digest/internal/retry"
)

func testMessage() Message {
	return Message{
		From:    "digest@example.com",
		To:      []string{"team@example.com", "ops@example.com"},
		Subject: "Eyewear Monthly — 2025.09 Summary",
		Text:    "Spring frames",
		HTML:    "<p>Spring frames</p>",
	}
}

func TestBuildMsg(t *testing.T) {
	mm, err := buildMsg(testMessage())
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = mm.WriteTo(&buf)
	require.NoError(t, err)

	raw := buf.String()
	assert.Contains(t, raw, "digest@example.com")
	assert.Contains(t, raw, "team@example.com")
	assert.Contains(t, raw, "text/plain")
	assert.Contains(t, raw, "text/html")
}

func TestBuildMsg_Invalid(t *testing.T) {
	msg := testMessage()
	msg.To = nil
	_, err := buildMsg(msg)
	assert.Error(t, err)

	msg = testMessage()
	msg.From = "not an address"
	_, err = buildMsg(msg)
	assert.ErrorContains(t, err, "invalid from address")
}

func TestSend_RetriesTransientFailures(t *testing.T) {
	m := metrics.New()
	mr := New(Config{Host: "smtp.example.com", Port: 587}, retry.Config{MaxAttempts: 3}, m, logger.Discard())

	calls := 0
	mr.send = func(ctx context.Context, msg *mail.Msg) error {
		calls++
		if calls < 3 {
			return errors.New("421 try again later")
		}
		return nil
	}

	require.NoError(t, mr.Send(context.Background(), testMessage()))
	assert.Equal(t, 3, calls)
	assert.Equal(t, int64(1), m.MailsSent)
}

func TestSend_GivesUp(t *testing.T) {
	m := metrics.New()
	mr := New(Config{Host: "smtp.example.com", Port: 465}, retry.Config{MaxAttempts: 2}, m, logger.Discard())

	calls := 0
	mr.send = func(ctx context.Context, msg *mail.Msg) error {
		calls++
		return errors.New("connection refused")
	}

	err := mr.Send(context.Background(), testMessage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "send mail failed after 2 attempts")
	assert.Equal(t, 2, calls)
	assert.Equal(t, int64(0), m.MailsSent)
}

func TestSend_InvalidMessageSkipsDelivery(t *testing.T) {
	mr := New(Config{Host: "smtp.example.com", Port: 25}, retry.Config{MaxAttempts: 3}, nil, logger.Discard())
	mr.send = func(ctx context.Context, msg *mail.Msg) error {
		t.Fatal("send must not be called")
		return nil
	}

	msg := testMessage()
	msg.To = nil
	assert.Error(t, mr.Send(context.Background(), msg))
}

func TestClientOptions(t *testing.T) {
	for _, port := range []int{465, 587, 25} {
		mr := New(Config{Host: "smtp.example.com", Port: port, Username: "u", Password: "p"}, retry.Config{}, nil, logger.Discard())
		client, err := mail.NewClient("smtp.example.com", mr.clientOptions()...)
		require.NoError(t, err, "port %d", port)
		assert.NotNil(t, client)
	}
}
