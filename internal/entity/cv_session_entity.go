package entity

import (
	"time"
)

const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

type CvSections struct {
	Contact    string `json:"contact,omitempty"`
	Summary    string `json:"summary,omitempty"`
	Experience string `json:"experience,omitempty"`
	Education  string `json:"education,omitempty"`
	Skills     string `json:"skills,omitempty"`
}

func (s CvSections) IsEmpty() bool {
	return s == CvSections{}
}

// ChatTurn is immutable once appended to a session.
type ChatTurn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// CvSession is one CV evaluation conversation. Stores hand out copies;
// mutate through the repository, never through a returned value.
// Generation is bumped by Clear; reservations taken before a clear are void.
type CvSession struct {
	Id          string     `json:"id"`
	UserId      string     `json:"userId"`
	CvText      string     `json:"cvText"`
	CvSections  CvSections `json:"cvSections"`
	CvFilename  string     `json:"cvFilename"`
	NumPages    int        `json:"numPages"`
	ChatHistory []ChatTurn `json:"chatHistory"`
	PromptCount int        `json:"promptCount"`
	MaxPrompts  int        `json:"maxPrompts"`
	Generation  int        `json:"generation"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Reservation is one prompt slot taken against a session generation.
type Reservation struct {
	PromptInfo PromptInfo
	Generation int
}

// PromptInfo is derived from the counter on demand, never stored.
type PromptInfo struct {
	CanPrompt bool `json:"-"`
	Used      int  `json:"used"`
	Remaining int  `json:"remaining"`
	Max       int  `json:"max"`
}

type SessionStats struct {
	SessionId        string    `json:"sessionId"`
	UserId           string    `json:"userId"`
	Filename         string    `json:"filename"`
	NumPages         int       `json:"numPages"`
	PromptsUsed      int       `json:"promptsUsed"`
	PromptsRemaining int       `json:"promptsRemaining"`
	PromptsMax       int       `json:"promptsMax"`
	MessageCount     int       `json:"messageCount"`
	CreatedAt        time.Time `json:"createdAt"`
}

func NewPromptInfo(used, max int) PromptInfo {
	remaining := max - used
	if remaining < 0 {
		remaining = 0
	}
	return PromptInfo{
		CanPrompt: used < max,
		Used:      used,
		Remaining: remaining,
		Max:       max,
	}
}

func (s *CvSession) PromptInfo() PromptInfo {
	return NewPromptInfo(s.PromptCount, s.MaxPrompts)
}

func (s *CvSession) OwnedBy(userId string) bool {
	return s.UserId == userId
}

func (s *CvSession) IsExpired(now time.Time, timeout time.Duration) bool {
	return now.Sub(s.CreatedAt) > timeout
}

// AddMessage appends a turn. A user turn consumes one prompt and is refused
// (nil, no change) once the quota is used up; assistant turns are free.
func (s *CvSession) AddMessage(role, content string, now time.Time) *PromptInfo {
	if role == ChatRoleUser {
		if s.PromptCount >= s.MaxPrompts {
			return nil
		}
		s.PromptCount++
	}
	s.ChatHistory = append(s.ChatHistory, ChatTurn{
		Role:      role,
		Content:   content,
		CreatedAt: now,
	})
	info := s.PromptInfo()
	return &info
}

// ReservePrompt consumes one prompt slot up front so that concurrent chats
// cannot oversell the quota.
func (s *CvSession) ReservePrompt() bool {
	if s.PromptCount >= s.MaxPrompts {
		return false
	}
	s.PromptCount++
	return true
}

func (s *CvSession) ReleasePrompt() {
	if s.PromptCount > 0 {
		s.PromptCount--
	}
}

// ReleaseReservation gives back a slot reserved at generation. It reports
// false, changing nothing, when the session was cleared since.
func (s *CvSession) ReleaseReservation(generation int) bool {
	if s.Generation != generation || s.PromptCount == 0 {
		return false
	}
	s.ReleasePrompt()
	return true
}

func (s *CvSession) AppendTurns(turns ...ChatTurn) {
	s.ChatHistory = append(s.ChatHistory, turns...)
}

// AppendReserved stores the turns of a reserved exchange unless the session
// was cleared after the reservation was taken.
func (s *CvSession) AppendReserved(generation int, turns ...ChatTurn) bool {
	if s.Generation != generation {
		return false
	}
	s.AppendTurns(turns...)
	return true
}

func (s *CvSession) Clear() {
	s.ChatHistory = []ChatTurn{}
	s.PromptCount = 0
	s.Generation++
}

func (s *CvSession) Stats() *SessionStats {
	info := s.PromptInfo()
	return &SessionStats{
		SessionId:        s.Id,
		UserId:           s.UserId,
		Filename:         s.CvFilename,
		NumPages:         s.NumPages,
		PromptsUsed:      info.Used,
		PromptsRemaining: info.Remaining,
		PromptsMax:       info.Max,
		MessageCount:     len(s.ChatHistory),
		CreatedAt:        s.CreatedAt,
	}
}

func (s *CvSession) Clone() *CvSession {
	if s == nil {
		return nil
	}
	c := *s
	c.ChatHistory = make([]ChatTurn, len(s.ChatHistory))
	copy(c.ChatHistory, s.ChatHistory)
	return &c
}
