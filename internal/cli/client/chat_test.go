package client

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockChatBackend struct {
	mock.Mock
}

func (m *MockChatBackend) SendMessage(ctx context.Context, sessionID, message string) (*MessageResult, error) {
	args := m.Called(ctx, sessionID, message)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*MessageResult), args.Error(1)
}

func readyChatModel(t *testing.T, backend chatBackend) chatModel {
	t.Helper()
	session := &Session{ID: "sess-1", Turns: []Turn{{Role: "assistant", Content: "Namaste!"}}}
	m := newChatModel(context.Background(), backend, session, "Sevak")
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return next.(chatModel)
}

func typeText(m chatModel, text string) chatModel {
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return next.(chatModel)
}

func TestChatModel_SeedsGreeting(t *testing.T) {
	m := readyChatModel(t, &MockChatBackend{})

	require.Len(t, m.lines, 1)
	assert.Equal(t, "assistant", m.lines[0].role)
	assert.Contains(t, m.View(), "Sevak:")
}

func TestChatModel_EnterSendsMessage(t *testing.T) {
	backend := &MockChatBackend{}
	backend.On("SendMessage", mock.Anything, "sess-1", "pricing").
		Return(&MessageResult{Reply: Reply{Text: "Plans start at Rs 999."}}, nil)

	m := typeText(readyChatModel(t, backend), "pricing")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(chatModel)

	assert.True(t, m.waiting)
	assert.Empty(t, m.input.Value())
	require.Len(t, m.lines, 2)
	assert.Equal(t, "user", m.lines[1].role)
	require.NotNil(t, cmd)

	reply := m.send("pricing")()
	next, _ = m.Update(reply)
	m = next.(chatModel)

	assert.False(t, m.waiting)
	require.Len(t, m.lines, 3)
	assert.Equal(t, "Plans start at Rs 999.", m.lines[2].text)
	backend.AssertExpectations(t)
}

func TestChatModel_IgnoresBlankAndBusyInput(t *testing.T) {
	m := readyChatModel(t, &MockChatBackend{})

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Len(t, next.(chatModel).lines, 1)

	m = typeText(m, "hello")
	m.waiting = true
	next, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Len(t, next.(chatModel).lines, 1)
}

func TestChatModel_ShowsErrors(t *testing.T) {
	m := readyChatModel(t, &MockChatBackend{})
	m.waiting = true

	next, _ := m.Update(errMsg{err: errors.New("API error (409): a reply is already being generated")})
	m = next.(chatModel)

	assert.False(t, m.waiting)
	assert.Equal(t, "error", m.lines[len(m.lines)-1].role)
	assert.Contains(t, m.renderHistory(), "already being generated")
}

func TestChatModel_EscQuits(t *testing.T) {
	m := readyChatModel(t, &MockChatBackend{})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
