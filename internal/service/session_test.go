package service

import (
	"context"
	"testing"
	"time"

	"github.com/cloo-solutions/sevakai/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockResponder is a mock implementation of Responder
type MockResponder struct {
	mock.Mock
}

func (m *MockResponder) Respond(ctx context.Context, history []domain.Turn, userMessage string) Reply {
	args := m.Called(ctx, history, userMessage)
	return args.Get(0).(Reply)
}

func (m *MockResponder) Available() bool {
	return m.Called().Bool(0)
}

func (m *MockResponder) Greeting() string {
	return m.Called().String(0)
}

// MockUUIDGenerator is a mock implementation of UUIDGenerator
type MockUUIDGenerator struct {
	mock.Mock
}

func (m *MockUUIDGenerator) NewString() string {
	return m.Called().String(0)
}

func newAvailableResponder() *MockResponder {
	r := new(MockResponder)
	r.On("Available").Return(true)
	r.On("Greeting").Return("Hello!")
	return r
}

func TestSessionService_Start(t *testing.T) {
	responder := newAvailableResponder()
	uuidGen := new(MockUUIDGenerator)
	uuidGen.On("NewString").Return("session-1").Once()
	svc := NewSessionServiceWithUUIDGen(responder, time.Hour, nil, uuidGen)

	sess := svc.Start(context.Background())

	assert.Equal(t, "session-1", sess.ID)
	assert.Equal(t, domain.SessionStateIdle, sess.State)
	require.Len(t, sess.Turns, 1)
	assert.Equal(t, domain.RoleAssistant, sess.Turns[0].Role)
	assert.Equal(t, "Hello!", sess.Turns[0].Content)
	assert.Equal(t, 1, svc.Len())
}

func TestSessionService_Start_DisabledWithoutCapability(t *testing.T) {
	responder := new(MockResponder)
	responder.On("Available").Return(false)
	responder.On("Greeting").Return("Hello!")
	svc := NewSessionService(responder, time.Hour, nil)

	sess := svc.Start(context.Background())

	assert.Equal(t, domain.SessionStateDisabled, sess.State)
}

func TestSessionService_Submit(t *testing.T) {
	responder := newAvailableResponder()
	svc := NewSessionService(responder, time.Hour, nil)
	sess := svc.Start(context.Background())

	responder.On("Respond", mock.Anything, mock.MatchedBy(func(h []domain.Turn) bool {
		return len(h) == 1 && h[0].Content == "Hello!"
	}), "I need a cook").Return(Reply{Text: "Sure!", Outcome: domain.ReplyOutcomeAnswered}).Once()

	result, err := svc.Submit(context.Background(), sess.ID, "I need a cook")

	require.NoError(t, err)
	assert.Equal(t, "Sure!", result.Reply.Text)
	require.Len(t, result.Session.Turns, 3)
	assert.Equal(t, domain.RoleUser, result.Session.Turns[1].Role)
	assert.Equal(t, "I need a cook", result.Session.Turns[1].Content)
	assert.Equal(t, domain.RoleAssistant, result.Session.Turns[2].Role)
	assert.Equal(t, domain.SessionStateIdle, result.Session.State)
	responder.AssertExpectations(t)
}

func TestSessionService_Submit_PassesSessionID(t *testing.T) {
	responder := newAvailableResponder()
	svc := NewSessionService(responder, time.Hour, nil)
	sess := svc.Start(context.Background())

	responder.On("Respond", mock.MatchedBy(func(ctx context.Context) bool {
		return SessionIDFromContext(ctx) == sess.ID
	}), mock.Anything, "hi").Return(Reply{Text: "hey"}).Once()

	_, err := svc.Submit(context.Background(), sess.ID, "hi")

	require.NoError(t, err)
	responder.AssertExpectations(t)
}

func TestSessionService_Submit_Validation(t *testing.T) {
	responder := newAvailableResponder()
	svc := NewSessionService(responder, time.Hour, nil)
	sess := svc.Start(context.Background())

	_, err := svc.Submit(context.Background(), sess.ID, " \n\t")
	assert.ErrorIs(t, err, domain.ErrEmptyMessage)

	got, err := svc.Get(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Len(t, got.Turns, 1, "a rejected message is not recorded")
	assert.Equal(t, domain.SessionStateIdle, got.State)

	_, err = svc.Submit(context.Background(), "", "hi")
	assert.ErrorIs(t, err, domain.ErrMissingSessionID)

	_, err = svc.Submit(context.Background(), "missing", "hi")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	responder.AssertNotCalled(t, "Respond", mock.Anything, mock.Anything, mock.Anything)
}

func TestSessionService_Submit_BusyWhileAwaitingReply(t *testing.T) {
	responder := newAvailableResponder()
	svc := NewSessionService(responder, time.Hour, nil)
	sess := svc.Start(context.Background())

	entered := make(chan struct{})
	release := make(chan struct{})
	responder.On("Respond", mock.Anything, mock.Anything, "first").
		Run(func(mock.Arguments) {
			close(entered)
			<-release
		}).
		Return(Reply{Text: "done"}).Once()

	errCh := make(chan error, 1)
	go func() {
		_, err := svc.Submit(context.Background(), sess.ID, "first")
		errCh <- err
	}()

	<-entered
	snap, err := svc.Get(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStateAwaitingResponse, snap.State)

	_, err = svc.Submit(context.Background(), sess.ID, "second")
	assert.ErrorIs(t, err, domain.ErrSessionBusy)

	close(release)
	require.NoError(t, <-errCh)

	snap, err = svc.Get(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStateIdle, snap.State)
	assert.Len(t, snap.Turns, 3)
}

func TestSessionService_Submit_DisabledStaysDisabled(t *testing.T) {
	responder := new(MockResponder)
	responder.On("Available").Return(false)
	responder.On("Greeting").Return("Hello!")
	responder.On("Respond", mock.Anything, mock.Anything, "hi").
		Return(Reply{Text: "unavailable", Outcome: domain.ReplyOutcomeUnavailable}).Twice()
	svc := NewSessionService(responder, time.Hour, nil)
	sess := svc.Start(context.Background())

	for i := 0; i < 2; i++ {
		result, err := svc.Submit(context.Background(), sess.ID, "hi")
		require.NoError(t, err)
		assert.Equal(t, domain.ReplyOutcomeUnavailable, result.Reply.Outcome)
		assert.Equal(t, domain.SessionStateDisabled, result.Session.State)
	}
}

func TestSessionService_Submit_EndedWhileAwaiting(t *testing.T) {
	responder := newAvailableResponder()
	svc := NewSessionService(responder, time.Hour, nil)
	sess := svc.Start(context.Background())

	responder.On("Respond", mock.Anything, mock.Anything, "hi").
		Run(func(mock.Arguments) {
			require.NoError(t, svc.End(context.Background(), sess.ID))
		}).
		Return(Reply{Text: "late"}).Once()

	_, err := svc.Submit(context.Background(), sess.ID, "hi")

	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.Equal(t, 0, svc.Len())
}

func TestSessionService_End(t *testing.T) {
	svc := NewSessionService(newAvailableResponder(), time.Hour, nil)
	sess := svc.Start(context.Background())

	require.NoError(t, svc.End(context.Background(), sess.ID))

	_, err := svc.Get(context.Background(), sess.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.ErrorIs(t, svc.End(context.Background(), sess.ID), domain.ErrSessionNotFound)
}

func TestSessionService_ExpireIdle(t *testing.T) {
	svc := NewSessionService(newAvailableResponder(), 10*time.Minute, nil)
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return start }

	stale := svc.Start(context.Background())
	svc.now = func() time.Time { return start.Add(8 * time.Minute) }
	fresh := svc.Start(context.Background())

	expired := svc.ExpireIdle(context.Background(), start.Add(12*time.Minute))

	assert.Equal(t, 1, expired)
	_, err := svc.Get(context.Background(), stale.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	_, err = svc.Get(context.Background(), fresh.ID)
	assert.NoError(t, err)
}

func TestSessionService_ExpireIdle_ZeroTTLKeepsAll(t *testing.T) {
	svc := NewSessionService(newAvailableResponder(), 0, nil)
	svc.Start(context.Background())

	assert.Equal(t, 0, svc.ExpireIdle(context.Background(), time.Now().Add(24*time.Hour)))
	assert.Equal(t, 1, svc.Len())
}
