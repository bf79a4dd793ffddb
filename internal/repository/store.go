package repository

import (
	"context"
	"time"

	"github.com/oggyb/callfirst/internal/db"
)

// Read methods return (nil, nil) when the entity does not exist. Writes that
// depend on other rows report missing or mismatched state with typed errors
// from internal/errors (Precondition, Conflict).

// ProfileStore holds profiles and the login credentials bound to them.
type ProfileStore interface {
	GetProfile(ctx context.Context, id string) (*db.UserProfile, error)
	// CreateProfile fails with Conflict when the id is taken.
	CreateProfile(ctx context.Context, p *db.UserProfile) error
	// SaveProfile overwrites an existing profile. Precondition if absent.
	SaveProfile(ctx context.Context, p *db.UserProfile) error
	// ListCandidates returns every profile except userID, the users userID
	// has swiped on, and users with a block in either direction, oldest first.
	ListCandidates(ctx context.Context, userID string) ([]db.UserProfile, error)

	// CreateCredential fails with Conflict when (kind, identifier) is taken.
	CreateCredential(ctx context.Context, c *db.Credential) error
	GetCredential(ctx context.Context, kind db.CredentialKind, identifier string) (*db.Credential, error)
}

// SwipeStore is the append-only swipe log.
type SwipeStore interface {
	CreateSwipe(ctx context.Context, s *db.Swipe) error
	// LatestSwipe returns the most recent swipe from fromID to toID.
	LatestSwipe(ctx context.Context, fromID, toID string) (*db.Swipe, error)
	// ListLikers returns swipes whose author's latest decision on userID is
	// a like, newest first, skipping authors userID passed or has a block
	// with. A non-nil token is returned when more pages exist.
	ListLikers(ctx context.Context, userID string, token *string, limit int) ([]db.Swipe, *string, error)
	CountLikers(ctx context.Context, userID string) (int64, error)
}

// MatchStore owns matches and their call threads.
type MatchStore interface {
	// CreateMatchWithThread inserts m and th in one transaction. When the
	// pair is already matched it returns the existing match together with a
	// Conflict error, and nothing is written.
	CreateMatchWithThread(ctx context.Context, m *db.Match, th *db.CallThread) (*db.Match, error)
	GetMatch(ctx context.Context, id string) (*db.Match, error)
	GetMatchByPair(ctx context.Context, userA, userB string) (*db.Match, error)
	// ListMatches returns userID's matches in the given state, newest first.
	ListMatches(ctx context.Context, userID string, state db.MatchState) ([]db.Match, error)
	// SetMatchState moves a match from one state to another. It reports
	// false when the match was not in state from.
	SetMatchState(ctx context.Context, id string, from, to db.MatchState, at time.Time) (bool, error)
}

// SchedulingStore holds threads, proposals and the confirm transition.
type SchedulingStore interface {
	GetThread(ctx context.Context, id string) (*db.CallThread, error)
	GetThreadByMatch(ctx context.Context, matchID string) (*db.CallThread, error)
	// AddProposal persists p and moves its thread to proposed. It fails with
	// Precondition when the thread is missing, Conflict when the match is no
	// longer active or the thread still has an upcoming call.
	AddProposal(ctx context.Context, p *db.CallProposal) error
	// LatestProposal returns the thread's proposal with the greatest
	// creation time.
	LatestProposal(ctx context.Context, threadID string) (*db.CallProposal, error)
	// ConfirmProposal atomically checks that proposalID is still the latest
	// proposal and that no call is upcoming, moves the thread from proposed to
	// confirmed and inserts e.
	ConfirmProposal(ctx context.Context, proposalID string, e *db.CallEvent) error
	// UpcomingCall returns the thread's scheduled or live event.
	UpcomingCall(ctx context.Context, threadID string) (*db.CallEvent, error)
}

// CallStore holds call events.
type CallStore interface {
	GetCallEvent(ctx context.Context, id string) (*db.CallEvent, error)
	// TransitionCallEvent moves the event to state to if it is currently in
	// one of from. It reports false when the event was in another state.
	TransitionCallEvent(ctx context.Context, id string, from []db.CallState, to db.CallState, at time.Time) (bool, error)
	// ListOverdueCalls returns scheduled events starting before cutoff.
	ListOverdueCalls(ctx context.Context, cutoff time.Time) ([]db.CallEvent, error)
}

// SafetyStore holds blocks, reports and feedback.
type SafetyStore interface {
	// CreateBlock records b (a repeated block is a no-op), marks every match
	// of the pair blocked and cancels the pair's scheduled calls, atomically.
	CreateBlock(ctx context.Context, b *db.Block) error
	// IsBlocked reports a block between a and b in either direction.
	IsBlocked(ctx context.Context, a, b string) (bool, error)
	CreateReport(ctx context.Context, r *db.Report) error
	// CreateFeedback fails with Conflict on a second rating for the same
	// (event, user).
	CreateFeedback(ctx context.Context, f *db.Feedback) error
	ListFeedback(ctx context.Context, callEventID string) ([]db.Feedback, error)
}

// Store is the full persistence surface. GormStore and memstore.Store are
// interchangeable implementations.
type Store interface {
	ProfileStore
	SwipeStore
	MatchStore
	SchedulingStore
	CallStore
	SafetyStore
}
