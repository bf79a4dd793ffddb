// Package provider holds the external collaborators the core talks to: the
// video provider, SMS delivery of one-time codes, photo storage and push
// notifications. Production integrations are out of scope; the
// implementations here mock or log.
package provider

import (
	"context"
	"log/slog"
	"strings"

	"github.com/oggyb/callfirst/internal/db"
)

// VideoRooms allocates a provider room for a scheduled call.
type VideoRooms interface {
	CreateRoom(ctx context.Context, callEventID string) (joinURL string, err error)
}

// CodeSender delivers a one-time login code to a phone number.
type CodeSender interface {
	SendCode(ctx context.Context, phone, code string) error
}

// PhotoStore removes uploaded profile photos.
type PhotoStore interface {
	DeletePhoto(ctx context.Context, url string) error
}

// Notifier tells participants that their call ended without them pressing
// "end", e.g. when the countdown ran out.
type Notifier interface {
	CallEnded(ctx context.Context, event *db.CallEvent, userIDs []string) error
}

// MockRooms hands out mock room URLs.
type MockRooms struct{}

func (MockRooms) CreateRoom(_ context.Context, callEventID string) (string, error) {
	return "mock://video-room/" + callEventID, nil
}

// LogCodeSender writes codes to the log instead of sending an SMS.
type LogCodeSender struct {
	Logger *slog.Logger
}

func (s LogCodeSender) SendCode(_ context.Context, phone, code string) error {
	s.Logger.Info("one-time code issued", "phone", maskPhone(phone), "code", code)
	return nil
}

// LogPhotoStore logs deletions of photos it does not actually hold.
type LogPhotoStore struct {
	Logger *slog.Logger
}

func (s LogPhotoStore) DeletePhoto(_ context.Context, url string) error {
	s.Logger.Info("photo deleted", "url", url)
	return nil
}

// LogNotifier logs call-ended notifications.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) CallEnded(_ context.Context, event *db.CallEvent, userIDs []string) error {
	n.Logger.Info("call ended notification", "call_event_id", event.ID, "users", userIDs)
	return nil
}

// maskPhone keeps the country prefix and last two digits.
func maskPhone(phone string) string {
	if len(phone) <= 5 {
		return phone
	}
	return phone[:3] + strings.Repeat("*", len(phone)-5) + phone[len(phone)-2:]
}
