package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	svcErr "github.com/oggyb/callfirst/internal/errors"
)

// DemoPassword is the password of every seeded demo credential.
const DemoPassword = "password"

// DemoWriter is the subset of the repository the seeder needs. Both storage
// backends satisfy it.
type DemoWriter interface {
	CreateProfile(ctx context.Context, p *UserProfile) error
	CreateCredential(ctx context.Context, c *Credential) error
}

type demoProfile struct {
	id        string
	name      string
	age       int
	gender    Gender
	sexuality Sexuality
	showMe    ShowMe
	prompts   []string
	bio       string
}

var demoProfiles = []demoProfile{
	{"demo-alex", "Alex", 28, GenderMan, SexualityStraight, ShowMeWomen,
		[]string{"I'm happiest when I'm hiking with my dog", "My ideal first date: coffee and a walk in the park", "Looking for someone who loves adventure"},
		"Software engineer by day, amateur chef by night. Let's skip the small talk!"},
	{"demo-jordan", "Jordan", 26, GenderWoman, SexualityBisexual, ShowMeEveryone,
		[]string{"Coffee snob, but in a friendly way", "I'll always share my fries with you", "Let's explore new restaurants together"},
		"Foodie | Travel enthusiast | Looking for my adventure partner"},
	{"demo-taylor", "Taylor", 31, GenderWoman, SexualityStraight, ShowMeMen,
		[]string{"Weekend plans: farmers market then brunch", "I'm the friend who always has snacks", "Tell me about the last book you loved"},
		""},
	{"demo-morgan", "Morgan", 29, GenderMan, SexualityGay, ShowMeMen,
		[]string{"Ask me about my sourdough starter", "Best concert I've been to", "Two truths and a lie"},
		"Baker, climber, bad at karaoke."},
	{"demo-casey", "Casey", 27, GenderWoman, SexualityLesbian, ShowMeWomen,
		[]string{"My love language is playlists", "I'm weirdly good at trivia", "Sunday means long runs"},
		""},
	{"demo-riley", "Riley", 30, GenderMan, SexualityStraight, ShowMeWomen,
		[]string{"Dog dad to a very loud corgi", "I'll plan the road trip", "Green flags I look for"},
		"Architect who sketches on napkins."},
	{"demo-quinn", "Quinn", 25, GenderNonBinary, SexualityPansexual, ShowMeEveryone,
		[]string{"Currently learning the cello", "Museums over clubs", "Let's debate pineapple on pizza"},
		""},
	{"demo-avery", "Avery", 33, GenderWoman, SexualityStraight, ShowMeMen,
		[]string{"Pilates then pancakes", "I'm a sucker for a good pun", "Looking for someone kind"},
		"Nurse. Night owl. Plant collector."},
}

// DemoProfiles returns the seed profiles with birthdays relative to now.
func DemoProfiles(now time.Time) []UserProfile {
	out := make([]UserProfile, 0, len(demoProfiles))
	for i, d := range demoProfiles {
		out = append(out, UserProfile{
			ID:        d.id,
			Name:      d.name,
			Birthday:  time.Date(now.Year()-d.age, time.January, 1, 0, 0, 0, 0, time.UTC),
			Gender:    d.gender,
			Sexuality: d.sexuality,
			ShowMe:    d.showMe,
			Photos: []string{
				fmt.Sprintf("https://picsum.photos/seed/%s1/400/600", strings.ToLower(d.name)),
				fmt.Sprintf("https://picsum.photos/seed/%s2/400/600", strings.ToLower(d.name)),
			},
			Prompts:   d.prompts,
			Bio:       d.bio,
			CreatedAt: time.Date(2024, time.January, i+1, 0, 0, 0, 0, time.UTC),
		})
	}
	return out
}

// DemoEmail is the login email of a seeded profile.
func DemoEmail(p *UserProfile) string {
	return strings.ToLower(p.Name) + "@demo.callfirst.app"
}

// SeedDemoData inserts the demo profiles and an email/password credential for
// each. Rows that already exist are left untouched.
func SeedDemoData(ctx context.Context, w DemoWriter, now time.Time) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	for _, p := range DemoProfiles(now) {
		if err := w.CreateProfile(ctx, &p); err != nil && !errors.Is(err, svcErr.ErrConflict) {
			return fmt.Errorf("failed to seed profile %s: %w", p.ID, err)
		}
		cred := Credential{
			ID:           NewID(),
			UserID:       p.ID,
			Kind:         CredentialEmail,
			Identifier:   DemoEmail(&p),
			PasswordHash: string(hash),
			CreatedAt:    now,
		}
		if err := w.CreateCredential(ctx, &cred); err != nil && !errors.Is(err, svcErr.ErrConflict) {
			return fmt.Errorf("failed to seed credential %s: %w", p.ID, err)
		}
	}
	return nil
}

// ResetTables clears every table. Compatible with both MySQL and SQLite.
func ResetTables(db *gorm.DB) error {
	tables := []string{
		"reports", "blocks", "feedbacks", "call_events", "call_proposals",
		"call_threads", "matches", "swipes", "credentials", "profiles",
	}
	for _, table := range tables {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}
