package realtime

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/org-chat/internal/core/events"
)

var _ = Describe("Hub", func() {
	var (
		registry *Registry
		hub      *Hub
		bus      *events.EventBus
		ctx      context.Context

		alice *Session
		bob   *Session
	)

	BeforeEach(func() {
		registry = NewRegistry(testLogger())
		hub = NewHub(registry, testLogger())
		bus = events.NewEventBus(testLogger())
		hub.Attach(bus)
		ctx = context.Background()

		alice = NewSession("alice", 8)
		bob = NewSession("bob", 8)
		registry.Join(alice)
		registry.Join(bob)
	})

	Describe("message fanout", func() {
		It("should echo to the sender and deliver to the receiver", func() {
			sentAt := time.Now().UTC()
			err := bus.PublishSync(ctx, events.NewMessageSentEvent("m1", "alice", "bob", "hello", sentAt))
			Expect(err).NotTo(HaveOccurred())

			aliceEvents := drain(alice)
			Expect(aliceEvents).To(HaveLen(1))
			payload, ok := aliceEvents[0].(MessagePayload)
			Expect(ok).To(BeTrue())
			Expect(payload.ID).To(Equal("m1"))
			Expect(payload.Body).To(Equal("hello"))

			Expect(drain(bob)).To(HaveLen(1))
		})

		It("should reach every session of the receiver", func() {
			bobPhone := NewSession("bob", 8)
			registry.Join(bobPhone)

			err := bus.PublishSync(ctx, events.NewMessageSentEvent("m1", "alice", "bob", "hi", time.Now().UTC()))
			Expect(err).NotTo(HaveOccurred())

			Expect(drain(bob)).To(HaveLen(1))
			Expect(drain(bobPhone)).To(HaveLen(1))
		})

		It("should drop silently when the receiver is offline", func() {
			err := bus.PublishSync(ctx, events.NewMessageSentEvent("m1", "alice", "carol", "hi", time.Now().UTC()))
			Expect(err).NotTo(HaveOccurred())

			// Only the sender echo lands.
			Expect(drain(alice)).To(HaveLen(1))
		})
	})

	Describe("status fanout", func() {
		It("should tell both participants about a disable", func() {
			err := bus.PublishSync(ctx, events.NewStatusChangedEvent(true, []string{"alice", "bob"}))
			Expect(err).NotTo(HaveOccurred())

			aliceEvents := drain(alice)
			Expect(aliceEvents).To(HaveLen(1))
			status, ok := aliceEvents[0].(StatusUpdateEvent)
			Expect(ok).To(BeTrue())
			Expect(status.Type).To(Equal("status_update"))
			Expect(status.IsDisabled).To(BeTrue())

			Expect(drain(bob)).To(HaveLen(1))
		})
	})

	Describe("activity fanout", func() {
		It("should route clear_chat to the initiator only", func() {
			err := bus.PublishSync(ctx, events.NewChatActivityEvent(
				events.ActivityClearChat, "alice", "", "", []string{"alice", "bob"}))
			Expect(err).NotTo(HaveOccurred())

			aliceEvents := drain(alice)
			Expect(aliceEvents).To(HaveLen(1))
			activity, ok := aliceEvents[0].(ActivityEvent)
			Expect(ok).To(BeTrue())
			Expect(activity.Action).To(Equal(events.ActivityClearChat))

			Expect(drain(bob)).To(BeEmpty())
		})

		It("should route edits to both participants", func() {
			err := bus.PublishSync(ctx, events.NewChatActivityEvent(
				events.ActivityEditMessage, "alice", "m1", "new text", []string{"alice", "bob"}))
			Expect(err).NotTo(HaveOccurred())

			Expect(drain(alice)).To(HaveLen(1))

			bobEvents := drain(bob)
			Expect(bobEvents).To(HaveLen(1))
			activity, ok := bobEvents[0].(ActivityEvent)
			Expect(ok).To(BeTrue())
			Expect(activity.MessageID).To(Equal("m1"))
			Expect(activity.NewText).To(Equal("new text"))
		})

		It("should route deletes to both participants", func() {
			err := bus.PublishSync(ctx, events.NewChatActivityEvent(
				events.ActivityDeleteMessage, "bob", "m2", "", []string{"alice", "bob"}))
			Expect(err).NotTo(HaveOccurred())

			Expect(drain(alice)).To(HaveLen(1))
			Expect(drain(bob)).To(HaveLen(1))
		})
	})
})
