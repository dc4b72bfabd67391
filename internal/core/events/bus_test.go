package events_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/frahmantamala/project-management/internal/core/events"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestEvents(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Events Suite")
}

var _ = Describe("EventBus", func() {
	var (
		ctx context.Context
		bus *events.EventBus
	)

	BeforeEach(func() {
		ctx = context.Background()
		bus = events.NewEventBus(slog.New(slog.NewTextHandler(io.Discard, nil)))
	})

	Describe("Drain", func() {
		It("should wait for handlers started by Publish", func() {
			// Given
			var handled atomic.Int32
			bus.Subscribe(events.EventTypeTaskTransitioned, func(context.Context, events.Event) error {
				time.Sleep(20 * time.Millisecond)
				handled.Add(1)
				return nil
			})
			Expect(bus.Publish(ctx, events.NewTaskTransitionedEvent(1, 2, "TODO", "DONE", "DEVELOPMENT", "DEVELOPMENT"))).To(Succeed())

			// When
			err := bus.Drain(ctx)

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(handled.Load()).To(Equal(int32(1)))
		})

		It("should give up when the context ends first", func() {
			// Given
			release := make(chan struct{})
			bus.Subscribe(events.EventTypeTaskTransitioned, func(context.Context, events.Event) error {
				<-release
				return nil
			})
			Expect(bus.Publish(ctx, events.NewTaskTransitionedEvent(1, 2, "TODO", "DONE", "DEVELOPMENT", "DEVELOPMENT"))).To(Succeed())
			short, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
			defer cancel()

			// When
			err := bus.Drain(short)

			// Then
			Expect(errors.Is(err, context.DeadlineExceeded)).To(BeTrue())
			close(release)
			Expect(bus.Drain(ctx)).To(Succeed())
		})

		It("should return at once with nothing in flight", func() {
			Expect(bus.Drain(ctx)).To(Succeed())
		})
	})

	Describe("PublishSync", func() {
		It("should stop at the first failing handler", func() {
			// Given
			var calls atomic.Int32
			bus.Subscribe(events.EventTypeTaskCloned, func(context.Context, events.Event) error {
				calls.Add(1)
				return errors.New("boom")
			})
			bus.Subscribe(events.EventTypeTaskCloned, func(context.Context, events.Event) error {
				calls.Add(1)
				return nil
			})

			// When
			err := bus.PublishSync(ctx, events.NewTaskClonedEvent(1, 2, "TESTING", "created_testing_task"))

			// Then
			Expect(err).To(MatchError(ContainSubstring("boom")))
			Expect(calls.Load()).To(Equal(int32(1)))
		})
	})
})
