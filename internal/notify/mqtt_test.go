package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeToken struct {
	err error
}

func (t *fakeToken) Wait() bool { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t *fakeToken) Error() error { return t.err }

type published struct {
	topic   string
	qos     byte
	payload []byte
}

// fakeClient 只实现 Publish / Disconnect
type fakeClient struct {
	mqtt.Client
	err          error
	messages     []published
	disconnected bool
}

func (c *fakeClient) Publish(topic string, qos byte, _ bool, payload interface{}) mqtt.Token {
	c.messages = append(c.messages, published{topic: topic, qos: qos, payload: payload.([]byte)})
	return &fakeToken{err: c.err}
}

func (c *fakeClient) Disconnect(uint) { c.disconnected = true }

func TestMQTTPublisher_NotifyDevice(t *testing.T) {
	client := &fakeClient{}
	p := NewMQTTPublisher(client, "medimate")

	err := p.NotifyDevice(context.Background(), 7, map[string]string{"title": "Medication Reminder"})
	require.NoError(t, err)

	require.Len(t, client.messages, 1)
	assert.Equal(t, "medimate/users/7/notifications", client.messages[0].topic)
	assert.Equal(t, byte(1), client.messages[0].qos)
	assert.JSONEq(t, `{"title":"Medication Reminder"}`, string(client.messages[0].payload))

	p.Close()
	assert.True(t, client.disconnected)
}

func TestMQTTPublisher_PublishError(t *testing.T) {
	client := &fakeClient{err: errors.New("not connected")}
	p := NewMQTTPublisher(client, "medimate")

	err := p.NotifyDevice(context.Background(), 7, "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "medimate/users/7/notifications")
}
