package api

import (
	"time"

	"github.com/oggyb/callfirst/internal/db"
)

// BirthdayLayout is the wire format of profile birthdays.
const BirthdayLayout = "2006-01-02"

type Session struct {
	UserID    string    `json:"userId"`
	SessionID string    `json:"sessionId"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type Profile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Birthday  string    `json:"birthday"`
	Age       int       `json:"age"`
	Gender    string    `json:"gender"`
	Sexuality string    `json:"sexuality"`
	ShowMe    string    `json:"showMe"`
	Photos    []string  `json:"photos"`
	Prompts   []string  `json:"prompts"`
	Bio       string    `json:"bio,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type Match struct {
	ID        string    `json:"id"`
	UserAID   string    `json:"userAId"`
	UserBID   string    `json:"userBId"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"createdAt"`
}

type Thread struct {
	ID              string    `json:"id"`
	MatchID         string    `json:"matchId"`
	SchedulingState string    `json:"schedulingState"`
	LastActivityAt  time.Time `json:"lastActivityAt"`
}

type Proposal struct {
	ID         string    `json:"id"`
	ThreadID   string    `json:"threadId"`
	ProposedBy string    `json:"proposedBy"`
	CallType   string    `json:"callType"`
	Slots      []string  `json:"slots"`
	CreatedAt  time.Time `json:"createdAt"`
}

type CallEvent struct {
	ID                string     `json:"id"`
	ThreadID          string     `json:"threadId"`
	ScheduledStartISO string     `json:"scheduledStartISO"`
	DurationSeconds   int        `json:"durationSeconds"`
	CallType          string     `json:"callType"`
	State             string     `json:"state"`
	ProviderJoinURL   string     `json:"providerJoinUrl,omitempty"`
	StartedAt         *time.Time `json:"startedAt,omitempty"`
	EndedAt           *time.Time `json:"endedAt,omitempty"`
}

// FeedbackPrompt routes the user who ended a call into the feedback flow.
type FeedbackPrompt struct {
	CallEventID string `json:"callEventId"`
	UserID      string `json:"userId"`
}

// ProfileFromModel converts a stored profile; age is computed at now.
func ProfileFromModel(p *db.UserProfile, now time.Time) *Profile {
	if p == nil {
		return nil
	}
	return &Profile{
		ID:        p.ID,
		Name:      p.Name,
		Birthday:  p.Birthday.Format(BirthdayLayout),
		Age:       p.AgeAt(now),
		Gender:    string(p.Gender),
		Sexuality: string(p.Sexuality),
		ShowMe:    string(p.ShowMe),
		Photos:    nonNil(p.Photos),
		Prompts:   nonNil(p.Prompts),
		Bio:       p.Bio,
		CreatedAt: p.CreatedAt,
	}
}

func MatchFromModel(m *db.Match) *Match {
	if m == nil {
		return nil
	}
	return &Match{ID: m.ID, UserAID: m.UserAID, UserBID: m.UserBID, State: string(m.State), CreatedAt: m.CreatedAt}
}

func ThreadFromModel(th *db.CallThread) *Thread {
	if th == nil {
		return nil
	}
	return &Thread{
		ID:              th.ID,
		MatchID:         th.MatchID,
		SchedulingState: string(th.SchedulingState),
		LastActivityAt:  th.LastActivityAt,
	}
}

func ProposalFromModel(p *db.CallProposal) *Proposal {
	if p == nil {
		return nil
	}
	return &Proposal{
		ID:         p.ID,
		ThreadID:   p.ThreadID,
		ProposedBy: p.ProposedBy,
		CallType:   string(p.CallType),
		Slots:      nonNil(p.Slots),
		CreatedAt:  p.CreatedAt,
	}
}

func CallEventFromModel(e *db.CallEvent) *CallEvent {
	if e == nil {
		return nil
	}
	return &CallEvent{
		ID:                e.ID,
		ThreadID:          e.ThreadID,
		ScheduledStartISO: e.ScheduledStartISO(),
		DurationSeconds:   e.DurationSeconds,
		CallType:          string(e.CallType),
		State:             string(e.State),
		ProviderJoinURL:   e.ProviderJoinURL,
		StartedAt:         e.StartedAt,
		EndedAt:           e.EndedAt,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
