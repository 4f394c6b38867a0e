package event

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/venkatesh-palenso/palenso-api/internal/domain"
	pkgkafka "github.com/venkatesh-palenso/palenso-api/pkg/kafka"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, topic string, event *pkgkafka.Event) error {
	args := m.Called(ctx, topic, event)
	return args.Error(0)
}

type mockWelcomeSender struct {
	mock.Mock
}

func (m *mockWelcomeSender) SendWelcome(ctx context.Context, to, name string) error {
	args := m.Called(ctx, to, name)
	return args.Error(0)
}

func TestTopics(t *testing.T) {
	assert.Equal(t, "palenso.user.signed_up", TopicUserSignedUp)
	assert.Equal(t, "palenso.user.activated", TopicUserActivated)
	assert.Equal(t, "palenso.user.channel_verified", TopicUserChannelVerified)
	assert.Equal(t, "palenso.user.password_reset", TopicUserPasswordReset)
}

func TestProducer_PublishUserActivated(t *testing.T) {
	pub := new(mockPublisher)
	var published *pkgkafka.Event
	pub.On("Publish", mock.Anything, TopicUserActivated, mock.AnythingOfType("*kafka.Event")).
		Run(func(args mock.Arguments) { published = args.Get(2).(*pkgkafka.Event) }).
		Return(nil)

	p := NewProducer(pub, newTestLogger())
	user := &domain.User{ID: "u-1", Email: "ada@example.com", FirstName: "Ada", Role: domain.RoleStudent}
	require.NoError(t, p.PublishUserActivated(context.Background(), user))

	require.NotNil(t, published)
	assert.Equal(t, "u-1", published.AggregateID)
	assert.Equal(t, AggregateTypeUser, published.AggregateType)
	assert.Equal(t, SourceAPI, published.Source)

	var data UserData
	require.NoError(t, published.UnmarshalData(&data))
	assert.Equal(t, "ada@example.com", data.Email)
	pub.AssertExpectations(t)
}

func TestProducer_PublishFailureIsReturned(t *testing.T) {
	pub := new(mockPublisher)
	pub.On("Publish", mock.Anything, TopicUserPasswordReset, mock.Anything).Return(errors.New("broker down"))

	err := NewProducer(pub, newTestLogger()).PublishPasswordReset(context.Background(), "u-1")
	assert.ErrorContains(t, err, "broker down")
}

func TestProducer_WithoutKafkaDropsEvents(t *testing.T) {
	p := NewProducer(nil, newTestLogger())
	assert.NoError(t, p.PublishChannelVerified(context.Background(), "u-1", domain.ChannelEmail))

	var nilProducer *Producer
	assert.NoError(t, nilProducer.PublishUserSignedUp(context.Background(), &domain.User{ID: "u-1"}))
}

func activatedEvent(t *testing.T, data UserData) *pkgkafka.Event {
	t.Helper()
	ev, err := pkgkafka.NewEvent(context.Background(), TopicUserActivated, data.ID, AggregateTypeUser, SourceAPI, data)
	require.NoError(t, err)
	return ev
}

func TestWelcomeHandler_SendsWelcome(t *testing.T) {
	sender := new(mockWelcomeSender)
	sender.On("SendWelcome", mock.Anything, "ada@example.com", "Ada").Return(nil)

	h := NewWelcomeHandler(sender, newTestLogger())
	require.NoError(t, h.Handle(context.Background(), activatedEvent(t, UserData{ID: "u-1", Email: "ada@example.com", FirstName: "Ada"})))
	sender.AssertExpectations(t)
}

func TestWelcomeHandler_SkipsUsersWithoutEmail(t *testing.T) {
	sender := new(mockWelcomeSender)
	h := NewWelcomeHandler(sender, newTestLogger())

	require.NoError(t, h.Handle(context.Background(), activatedEvent(t, UserData{ID: "u-1", MobileNumber: "+9779812345678"})))
	sender.AssertNotCalled(t, "SendWelcome", mock.Anything, mock.Anything, mock.Anything)
}

func TestWelcomeHandler_IgnoresOtherEvents(t *testing.T) {
	sender := new(mockWelcomeSender)
	h := NewWelcomeHandler(sender, newTestLogger())

	ev, err := pkgkafka.NewEvent(context.Background(), TopicUserSignedUp, "u-1", AggregateTypeUser, SourceAPI, UserData{ID: "u-1"})
	require.NoError(t, err)
	require.NoError(t, h.Handle(context.Background(), ev))
	sender.AssertNotCalled(t, "SendWelcome", mock.Anything, mock.Anything, mock.Anything)
}

func TestWelcomeHandler_SendFailureIsRetried(t *testing.T) {
	sender := new(mockWelcomeSender)
	sender.On("SendWelcome", mock.Anything, "ada@example.com", "ada@example.com").Return(errors.New("smtp down"))

	h := NewWelcomeHandler(sender, newTestLogger())
	err := h.Handle(context.Background(), activatedEvent(t, UserData{ID: "u-1", Email: "ada@example.com"}))
	assert.ErrorContains(t, err, "smtp down")
}

func TestWelcomeHandler_IdempotentByEventID(t *testing.T) {
	sender := new(mockWelcomeSender)
	sender.On("SendWelcome", mock.Anything, "ada@example.com", "Ada").Return(nil).Once()

	h := NewWelcomeHandler(sender, newTestLogger())
	handle := pkgkafka.IdempotentHandler(pkgkafka.NewMemoryIdempotencyStore(time.Hour), h.Handle, newTestLogger())

	ev := activatedEvent(t, UserData{ID: "u-1", Email: "ada@example.com", FirstName: "Ada"})
	require.NoError(t, handle(context.Background(), ev))
	require.NoError(t, handle(context.Background(), ev))
	sender.AssertNumberOfCalls(t, "SendWelcome", 1)
}
