package eventbus

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type registered struct {
	slug string
}

type other struct{}

func bufferedLogger(level logrus.Level) (*logrus.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	log := logrus.New()
	log.SetOutput(buf)
	log.SetLevel(level)
	return log, buf
}

func TestPublish_NoMatchingSubscriberWarns(t *testing.T) {
	log, buf := bufferedLogger(logrus.WarnLevel)
	bus := NewEventPublisher(log)
	bus.Subscribe(func(e *registered) { t.Error("should not be called") })

	bus.Publish(&other{})

	assert.Contains(t, buf.String(), "no matching subscribers")
}

func TestPublish_DeliversWithContext(t *testing.T) {
	bus := NewEventPublisher(logrus.New())
	var got string
	bus.Subscribe(func(ctx context.Context, e *registered) { got = e.slug })

	bus.Publish(context.Background(), &registered{slug: "frituurnolim"})

	assert.Equal(t, "frituurnolim", got)
}

func TestMatchSignature(t *testing.T) {
	assert.True(t, MatchSignature(func(e *registered) {}, []any{&registered{}}))
	assert.False(t, MatchSignature(func(e *registered) {}, []any{&other{}}))
	assert.False(t, MatchSignature(func(e *registered) {}, []any{}))
	assert.True(t, MatchSignature(func(ctx context.Context) {}, []any{context.Background()}))
	assert.True(t, MatchSignature(func(e *registered) {}, []any{nil}))
	assert.False(t, MatchSignature("not a func", []any{}))
}

func TestPublish_PanicIsRecovered(t *testing.T) {
	log, buf := bufferedLogger(logrus.WarnLevel)
	bus := NewEventPublisher(log)

	var first, third bool
	bus.Subscribe(func(e *registered) { first = true })
	bus.Subscribe(func(e *registered) { panic("boom") })
	bus.Subscribe(func(e *registered) { third = true })

	require.NotPanics(t, func() { bus.Publish(&registered{}) })
	assert.True(t, first)
	assert.True(t, third)
	assert.Contains(t, buf.String(), "panicked")
	assert.NotContains(t, buf.String(), "no matching subscribers")
}

func TestPublishE(t *testing.T) {
	t.Run("no subscribers", func(t *testing.T) {
		bus := NewEventPublisher(nil)
		assert.ErrorIs(t, bus.PublishE(&registered{}), ErrNoSubscribers)
	})

	t.Run("joins handler errors", func(t *testing.T) {
		bus := NewEventPublisher(nil)
		err1, err2 := errors.New("err1"), errors.New("err2")
		bus.Subscribe(func(e *registered) error { return err1 })
		bus.Subscribe(func(e *registered) error { return err2 })

		err := bus.PublishE(&registered{})
		assert.ErrorIs(t, err, err1)
		assert.ErrorIs(t, err, err2)
	})

	t.Run("panic surfaces as error", func(t *testing.T) {
		bus := NewEventPublisher(nil)
		called := false
		bus.Subscribe(func(e *registered) error { panic("boom") })
		bus.Subscribe(func(e *registered) error { called = true; return nil })

		require.Error(t, bus.PublishE(&registered{}))
		assert.True(t, called)
	})

	t.Run("invalid return", func(t *testing.T) {
		bus := NewEventPublisher(nil)
		bus.Subscribe(func(e *registered) int { return 1 })
		assert.ErrorIs(t, bus.PublishE(&registered{}), ErrInvalidHandlerReturn)
	})
}

func TestUnsubscribe(t *testing.T) {
	bus := NewEventPublisher(nil)
	h := func(e *registered) {}
	bus.Subscribe(h)
	require.Equal(t, 1, bus.SubscribersCount())

	bus.Unsubscribe(h)
	assert.Equal(t, 0, bus.SubscribersCount())
}

func TestPublish_ConcurrentSubscribe(t *testing.T) {
	bus := NewEventPublisher(nil)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); bus.Subscribe(func(e *registered) {}) }()
		go func() { defer wg.Done(); bus.Publish(&registered{}) }()
	}
	wg.Wait()
	assert.Equal(t, 20, bus.SubscribersCount())
}
