package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/service"
)

type publishedMessage struct {
	channel string
	payload []byte
}

type fakePublisher struct {
	messages []publishedMessage
	err      error
}

func (p *fakePublisher) Publish(_ context.Context, channel string, payload []byte) error {
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, publishedMessage{channel: channel, payload: payload})
	return nil
}

var _ = Describe("NotificationService", func() {
	var (
		ctx        context.Context
		dispatcher events.Dispatcher
		publisher  *fakePublisher
		event      events.Event
	)

	BeforeEach(func() {
		ctx = context.Background()
		dispatcher = events.NewInMemoryDispatcher()
		publisher = &fakePublisher{}
		event = events.Event{
			ID:           "evt-1",
			Type:         events.EventTicketStatusChanged,
			TicketNumber: 2048,
			Timestamp:    time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
		}
	})

	register := func(enabled bool) {
		service.NewNotificationService(dispatcher, publisher, nil, config.NotificationConfig{
			Enabled: enabled,
			Channel: "desk.events",
		}).RegisterHandlers()
	}

	It("forwards events as JSON to the configured channel", func() {
		register(true)

		Expect(dispatcher.Publish(ctx, event)).To(Succeed())
		Expect(publisher.messages).To(HaveLen(1))
		Expect(publisher.messages[0].channel).To(Equal("desk.events"))

		var decoded map[string]any
		Expect(json.Unmarshal(publisher.messages[0].payload, &decoded)).To(Succeed())
		Expect(decoded).To(HaveKeyWithValue("type", "ticket_status_changed"))
	})

	It("stays silent when disabled", func() {
		register(false)

		Expect(dispatcher.Publish(ctx, event)).To(Succeed())
		Expect(publisher.messages).To(BeEmpty())
	})

	It("surfaces publisher failures to the dispatcher", func() {
		publisher.err = errors.New("redis down")
		register(true)

		err := dispatcher.Publish(ctx, event)
		Expect(err).To(MatchError(ContainSubstring("redis down")))
	})
})
