package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession() *CvSession {
	return &CvSession{
		Id:          "11111111-1111-4111-8111-111111111111",
		UserId:      "user-1",
		MaxPrompts:  2,
		ChatHistory: []ChatTurn{},
		CreatedAt:   time.Now(),
	}
}

func TestAddMessage_UserTurnsConsumeQuota(t *testing.T) {
	s := newTestSession()
	now := time.Now()

	info := s.AddMessage(ChatRoleUser, "hi", now)
	require.NotNil(t, info)
	assert.Equal(t, PromptInfo{CanPrompt: true, Used: 1, Remaining: 1, Max: 2}, *info)

	info = s.AddMessage(ChatRoleAssistant, "hello", now)
	require.NotNil(t, info)
	assert.Equal(t, 1, info.Used, "assistant replies are free")

	info = s.AddMessage(ChatRoleUser, "again", now)
	require.NotNil(t, info)
	assert.False(t, info.CanPrompt)

	assert.Nil(t, s.AddMessage(ChatRoleUser, "too many", now))
	assert.Len(t, s.ChatHistory, 3)
	assert.Equal(t, 2, s.PromptCount)
}

func TestReserveAndRelease(t *testing.T) {
	s := newTestSession()

	assert.True(t, s.ReservePrompt())
	assert.True(t, s.ReservePrompt())
	assert.False(t, s.ReservePrompt())
	assert.Equal(t, 2, s.PromptCount)

	s.ReleasePrompt()
	s.ReleasePrompt()
	s.ReleasePrompt()
	assert.Equal(t, 0, s.PromptCount)
}

func TestClear(t *testing.T) {
	s := newTestSession()
	s.AddMessage(ChatRoleUser, "a", time.Now())
	s.AddMessage(ChatRoleUser, "b", time.Now())

	s.Clear()

	assert.Empty(t, s.ChatHistory)
	assert.Equal(t, 0, s.PromptCount)
	assert.True(t, s.PromptInfo().CanPrompt)
	assert.Equal(t, 1, s.Generation)
}

func TestReservation_VoidAfterClear(t *testing.T) {
	s := newTestSession()
	require.True(t, s.ReservePrompt())
	stale := s.Generation

	s.Clear()
	require.True(t, s.ReservePrompt())

	assert.False(t, s.ReleaseReservation(stale))
	assert.False(t, s.AppendReserved(stale, ChatTurn{Role: ChatRoleUser, Content: "late"}))
	assert.Equal(t, 1, s.PromptCount)
	assert.Empty(t, s.ChatHistory)

	assert.True(t, s.AppendReserved(s.Generation, ChatTurn{Role: ChatRoleUser, Content: "q"}))
	assert.True(t, s.ReleaseReservation(s.Generation))
	assert.Equal(t, 0, s.PromptCount)
	assert.Len(t, s.ChatHistory, 1)
}

func TestClone_IsolatesHistory(t *testing.T) {
	s := newTestSession()
	s.AddMessage(ChatRoleUser, "a", time.Now())

	c := s.Clone()
	c.AppendTurns(ChatTurn{Role: ChatRoleAssistant, Content: "b"})
	c.PromptCount = 2

	assert.Len(t, s.ChatHistory, 1)
	assert.Equal(t, 1, s.PromptCount)
}

func TestIsExpired(t *testing.T) {
	s := newTestSession()
	s.CreatedAt = time.Now().Add(-61 * time.Minute)

	assert.True(t, s.IsExpired(time.Now(), time.Hour))
	assert.False(t, s.IsExpired(s.CreatedAt.Add(30*time.Minute), time.Hour))
}

func TestNewPromptInfo_NeverNegative(t *testing.T) {
	info := NewPromptInfo(12, 10)
	assert.Equal(t, 0, info.Remaining)
	assert.False(t, info.CanPrompt)
}
