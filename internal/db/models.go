package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// NewID returns a time-ordered UUID (v7). Ids created later sort after
// earlier ones, which breaks ties between rows sharing a timestamp.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Timestamp normalises t to the precision every backend stores.
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

// ISOLayout is the wire/storage layout of call slot timestamps
// (UTC, millisecond precision, trailing Z).
const ISOLayout = "2006-01-02T15:04:05.000Z"

// FormatISO renders t in ISOLayout.
func FormatISO(t time.Time) string {
	return t.UTC().Format(ISOLayout)
}

// ParseISO accepts any RFC 3339 timestamp and returns it in UTC at millisecond
// precision.
func ParseISO(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC().Truncate(time.Millisecond), nil
}

type (
	Gender          string
	Sexuality       string
	ShowMe          string
	SwipeAction     string
	MatchState      string
	SchedulingState string
	CallType        string
	CallState       string
	FeedbackRating  string
	ReportCategory  string
	CredentialKind  string
)

const (
	GenderMan       Gender = "man"
	GenderWoman     Gender = "woman"
	GenderNonBinary Gender = "non_binary"
	GenderOther     Gender = "other"
)

const (
	SexualityStraight  Sexuality = "straight"
	SexualityGay       Sexuality = "gay"
	SexualityLesbian   Sexuality = "lesbian"
	SexualityBisexual  Sexuality = "bisexual"
	SexualityPansexual Sexuality = "pansexual"
	SexualityQueer     Sexuality = "queer"
	SexualityAsexual   Sexuality = "asexual"
	SexualityOther     Sexuality = "other"
)

const (
	ShowMeMen      ShowMe = "men"
	ShowMeWomen    ShowMe = "women"
	ShowMeEveryone ShowMe = "everyone"
)

const (
	SwipeLike SwipeAction = "like"
	SwipePass SwipeAction = "pass"
)

const (
	MatchActive   MatchState = "active"
	MatchArchived MatchState = "archived"
	MatchBlocked  MatchState = "blocked"
)

const (
	SchedulingPending   SchedulingState = "pending"
	SchedulingProposed  SchedulingState = "proposed"
	SchedulingConfirmed SchedulingState = "confirmed"
)

const (
	CallAudio CallType = "audio"
	CallVideo CallType = "video"
)

const (
	CallScheduled CallState = "scheduled"
	CallLive      CallState = "live"
	CallCompleted CallState = "completed"
	CallMissed    CallState = "missed"
	CallCanceled  CallState = "canceled"
)

const (
	RatingInterested    FeedbackRating = "interested"
	RatingNotInterested FeedbackRating = "not_interested"
)

const (
	ReportInappropriate ReportCategory = "inappropriate"
	ReportFake          ReportCategory = "fake"
	ReportHarassment    ReportCategory = "harassment"
	ReportSpam          ReportCategory = "spam"
	ReportOther         ReportCategory = "other"
)

const (
	CredentialEmail CredentialKind = "email"
	CredentialPhone CredentialKind = "phone"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMan, GenderWoman, GenderNonBinary, GenderOther:
		return true
	}
	return false
}

func (s Sexuality) Valid() bool {
	switch s {
	case SexualityStraight, SexualityGay, SexualityLesbian, SexualityBisexual,
		SexualityPansexual, SexualityQueer, SexualityAsexual, SexualityOther:
		return true
	}
	return false
}

func (s ShowMe) Valid() bool {
	return s == ShowMeMen || s == ShowMeWomen || s == ShowMeEveryone
}

func (a SwipeAction) Valid() bool { return a == SwipeLike || a == SwipePass }

func (c CallType) Valid() bool { return c == CallAudio || c == CallVideo }

func (r FeedbackRating) Valid() bool {
	return r == RatingInterested || r == RatingNotInterested
}

func (c ReportCategory) Valid() bool {
	switch c {
	case ReportInappropriate, ReportFake, ReportHarassment, ReportSpam, ReportOther:
		return true
	}
	return false
}

func (s CallState) Valid() bool {
	switch s {
	case CallScheduled, CallLive, CallCompleted, CallMissed, CallCanceled:
		return true
	}
	return false
}

// Upcoming reports whether a call in this state still blocks re-scheduling.
func (s CallState) Upcoming() bool { return s == CallScheduled || s == CallLive }

// UserProfile is the dating profile owned by one user. Its ID equals the
// owning identity's user id.
type UserProfile struct {
	ID        string                      `gorm:"primaryKey;size:64"`
	Name      string                      `gorm:"size:64;not null"`
	Birthday  time.Time                   `gorm:"type:date;not null"`
	Gender    Gender                      `gorm:"size:16;not null"`
	Sexuality Sexuality                   `gorm:"size:16;not null"`
	ShowMe    ShowMe                      `gorm:"size:16;not null"`
	Photos    datatypes.JSONSlice[string] `gorm:"not null"`
	Prompts   datatypes.JSONSlice[string] `gorm:"not null"`
	Bio       string                      `gorm:"size:500"`
	CreatedAt time.Time                   `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time                   `gorm:"autoUpdateTime"`
}

func (UserProfile) TableName() string { return "profiles" }

// AgeAt returns the age in whole years at time now.
func (p *UserProfile) AgeAt(now time.Time) int {
	return AgeAt(p.Birthday, now)
}

// AgeAt returns the age in whole years of someone born on birthday.
func AgeAt(birthday, now time.Time) int {
	years := now.Year() - birthday.Year()
	if now.Month() < birthday.Month() ||
		(now.Month() == birthday.Month() && now.Day() < birthday.Day()) {
		years--
	}
	return years
}

// Credential binds a login identifier (email or phone) to a user id.
//
// Indexes:
//   - idx_credential_identifier(kind, identifier) UNIQUE
type Credential struct {
	ID           string         `gorm:"primaryKey;size:36"`
	UserID       string         `gorm:"size:64;not null;index"`
	Kind         CredentialKind `gorm:"size:16;not null;uniqueIndex:idx_credential_identifier,priority:1"`
	Identifier   string         `gorm:"size:191;not null;uniqueIndex:idx_credential_identifier,priority:2"`
	PasswordHash string         `gorm:"size:255"`
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
}

// Swipe is an append-only like/pass fact from one user to another.
//
// Indexes:
//   - idx_swipe_pair(from_id, to_id, created_at)
//     Latest-decision lookups for mutual like checks and candidate exclusion.
//   - idx_swipe_to(to_id, action, created_at)
//     "Who liked me" listings.
type Swipe struct {
	ID        string      `gorm:"primaryKey;size:36"`
	FromID    string      `gorm:"size:64;not null;index:idx_swipe_pair,priority:1"`
	ToID      string      `gorm:"size:64;not null;index:idx_swipe_pair,priority:2;index:idx_swipe_to,priority:1"`
	Action    SwipeAction `gorm:"size:8;not null;index:idx_swipe_to,priority:2"`
	CreatedAt time.Time   `gorm:"not null;index:idx_swipe_pair,priority:3;index:idx_swipe_to,priority:3"`
}

// Match is the symmetric pairing created by a mutual like. UserAID < UserBID
// always holds, so the unique index covers the unordered pair.
type Match struct {
	ID        string     `gorm:"primaryKey;size:36"`
	UserAID   string     `gorm:"column:user_a_id;size:64;not null;uniqueIndex:idx_match_pair,priority:1"`
	UserBID   string     `gorm:"column:user_b_id;size:64;not null;uniqueIndex:idx_match_pair,priority:2;index"`
	State     MatchState `gorm:"size:16;not null;index"`
	CreatedAt time.Time  `gorm:"not null"`
	UpdatedAt time.Time  `gorm:"not null"`
}

// OrderedPair returns a and b in canonical match order.
func OrderedPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

// HasUser reports whether userID is one of the two participants.
func (m *Match) HasUser(userID string) bool {
	return userID != "" && (m.UserAID == userID || m.UserBID == userID)
}

// Other returns the participant that is not userID.
func (m *Match) Other(userID string) string {
	if m.UserAID == userID {
		return m.UserBID
	}
	return m.UserAID
}

// CallThread is the scheduling mailbox attached 1:1 to a Match.
type CallThread struct {
	ID              string          `gorm:"primaryKey;size:36"`
	MatchID         string          `gorm:"size:36;not null;uniqueIndex"`
	SchedulingState SchedulingState `gorm:"size:16;not null"`
	LastActivityAt  time.Time       `gorm:"not null"`
}

// CallProposal offers up to three start times for one call type.
type CallProposal struct {
	ID         string                      `gorm:"primaryKey;size:36"`
	ThreadID   string                      `gorm:"size:36;not null;index:idx_proposal_thread_created,priority:1"`
	ProposedBy string                      `gorm:"size:64;not null"`
	CallType   CallType                    `gorm:"size:8;not null"`
	Slots      datatypes.JSONSlice[string] `gorm:"not null"`
	CreatedAt  time.Time                   `gorm:"not null;index:idx_proposal_thread_created,priority:2,sort:desc"`
}

// HasSlot reports whether iso is one of the proposal's slots.
func (p *CallProposal) HasSlot(iso string) bool {
	for _, s := range p.Slots {
		if s == iso {
			return true
		}
	}
	return false
}

// CallEvent is a concretely scheduled call and its lifecycle state.
type CallEvent struct {
	ID              string    `gorm:"primaryKey;size:36"`
	ThreadID        string    `gorm:"size:36;not null;index:idx_event_thread_state,priority:1"`
	ScheduledStart  time.Time `gorm:"not null;index"`
	DurationSeconds int       `gorm:"not null"`
	CallType        CallType  `gorm:"size:8;not null"`
	State           CallState `gorm:"size:16;not null;index:idx_event_thread_state,priority:2"`
	ProviderJoinURL string    `gorm:"size:255"`
	StartedAt       *time.Time
	EndedAt         *time.Time
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

// ScheduledStartISO renders the start time in ISOLayout.
func (e *CallEvent) ScheduledStartISO() string { return FormatISO(e.ScheduledStart) }

// Duration is the planned call length.
func (e *CallEvent) Duration() time.Duration {
	return time.Duration(e.DurationSeconds) * time.Second
}

// Feedback is one participant's post-call disposition.
type Feedback struct {
	ID          string         `gorm:"primaryKey;size:36"`
	CallEventID string         `gorm:"size:36;not null;uniqueIndex:idx_feedback_event_user,priority:1"`
	UserID      string         `gorm:"size:64;not null;uniqueIndex:idx_feedback_event_user,priority:2"`
	Rating      FeedbackRating `gorm:"size:16;not null"`
	CreatedAt   time.Time      `gorm:"not null"`
}

// Block is stored directionally but hides both users from each other.
type Block struct {
	ID        string    `gorm:"primaryKey;size:36"`
	BlockerID string    `gorm:"size:64;not null;uniqueIndex:idx_block_pair,priority:1"`
	BlockedID string    `gorm:"size:64;not null;uniqueIndex:idx_block_pair,priority:2;index"`
	CreatedAt time.Time `gorm:"not null"`
}

type Report struct {
	ID         string         `gorm:"primaryKey;size:36"`
	ReporterID string         `gorm:"size:64;not null;index"`
	ReportedID string         `gorm:"size:64;not null;index"`
	Category   ReportCategory `gorm:"size:16;not null"`
	Notes      string         `gorm:"size:1000"`
	CreatedAt  time.Time      `gorm:"not null"`
}

// Models lists every table for AutoMigrate.
func Models() []any {
	return []any{
		&UserProfile{},
		&Credential{},
		&Swipe{},
		&Match{},
		&CallThread{},
		&CallProposal{},
		&CallEvent{},
		&Feedback{},
		&Block{},
		&Report{},
	}
}
