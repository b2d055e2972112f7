package service

import (
	"context"
	"errors"
	"sync"

	"github.com/tmc/langchaingo/llms"

	"medimate-backend/internal/events"
	"medimate-backend/internal/notify"
)

type fakeModel struct {
	reply string
	err   error
	calls [][]llms.MessageContent
}

func (m *fakeModel) GenerateContent(_ context.Context, msgs []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	m.calls = append(m.calls, msgs)
	if m.err != nil {
		return nil, m.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: m.reply}}}, nil
}

type fakeSMS struct {
	mu     sync.Mutex
	sent   map[string]string
	failTo string
}

func (f *fakeSMS) SendSMS(_ context.Context, to, body string) (string, error) {
	if to == f.failTo {
		return "", errors.New("twilio: invalid number")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sent == nil {
		f.sent = map[string]string{}
	}
	f.sent[to] = body
	return "SM" + to, nil
}

type fakePush struct {
	msgs []notify.PushMessage
	err  error
}

func (f *fakePush) SendPush(_ context.Context, msgs []notify.PushMessage) ([]notify.PushTicket, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.msgs = append(f.msgs, msgs...)
	tickets := make([]notify.PushTicket, len(msgs))
	for i := range msgs {
		tickets[i] = notify.PushTicket{Status: "ok", ID: "ticket"}
	}
	return tickets, nil
}

type fakeDevices struct {
	userIDs []int64
}

func (f *fakeDevices) NotifyDevice(_ context.Context, userID int64, _ any) error {
	f.userIDs = append(f.userIDs, userID)
	return nil
}

type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.events = append(p.events, e)
	return nil
}
