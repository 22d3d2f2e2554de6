package domain

import (
	"strings"
	"time"
)

// Personality is one of the five fixed critique personas. Each pairs a
// behavioral description used in prompts with the synthesis voice used
// for read-aloud playback.
type Personality string

const (
	PersonalityNova  Personality = "Nova"
	PersonalityEcho  Personality = "Echo"
	PersonalitySage  Personality = "Sage"
	PersonalityAlloy Personality = "Alloy"
	PersonalityOnyx  Personality = "Onyx"
)

// DefaultPersonality is the only persona available to free accounts.
const DefaultPersonality = PersonalityNova

// Personalities lists all personas in display order.
var Personalities = []Personality{
	PersonalityNova,
	PersonalityEcho,
	PersonalitySage,
	PersonalityAlloy,
	PersonalityOnyx,
}

// ParsePersonality resolves a persona by name (case-insensitive).
// Unknown or empty input falls back to Nova.
func ParsePersonality(name string) (Personality, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultPersonality, true
	}
	for _, p := range Personalities {
		if strings.EqualFold(string(p), name) {
			return p, true
		}
	}
	return DefaultPersonality, false
}

// Description returns the persona's behavioral description used in prompts.
func (p Personality) Description() string {
	switch p {
	case PersonalityEcho:
		return "You mirror the tone of the ad and respond with cultural sensitivity."
	case PersonalitySage:
		return "You're a poetic creative who speaks in metaphor and rhythm."
	case PersonalityAlloy:
		return "You're a no-nonsense technical expert with sharp insights."
	case PersonalityOnyx:
		return "You're bold and captivating, like a movie trailer voice."
	default:
		return "You're a wise and encouraging ad guide."
	}
}

// Voice returns the speech-synthesis voice identifier for the persona.
func (p Personality) Voice() string {
	switch p {
	case PersonalityEcho:
		return "echo"
	case PersonalitySage:
		return "sage"
	case PersonalityAlloy:
		return "alloy"
	case PersonalityOnyx:
		return "onyx"
	default:
		return "nova"
	}
}

// Free reports whether the persona is usable without a paid subscription.
func (p Personality) Free() bool {
	return p == DefaultPersonality
}

// Profile holds a user's stored survey answers. Missing answers are
// substituted with defaults by the resolver, never persisted as empty.
type Profile struct {
	UserEmail string    `json:"userEmail"`
	Platform  string    `json:"platform"`
	AdType    string    `json:"adType"`
	Tone      string    `json:"tone"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Default profile attributes used when no survey answers are stored.
const (
	DefaultPlatform = "social media"
	DefaultAdType   = "generic"
	DefaultTone     = "neutral"
)

// DefaultProfile returns the fallback profile for an account.
func DefaultProfile(email string) Profile {
	return Profile{
		UserEmail: email,
		Platform:  DefaultPlatform,
		AdType:    DefaultAdType,
		Tone:      DefaultTone,
	}
}

// AdMeta carries the derived fields of an uploaded ad that flow into
// prompt composition. Duration <= 0 means unknown.
type AdMeta struct {
	Transcript      string  `json:"transcript"`
	FileType        string  `json:"fileType"`
	DurationSeconds float64 `json:"duration"`
	PreviewURL      string  `json:"previewUrl,omitempty"`
}

// Message is a single chat entry. Immutable once appended.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Session is one persisted critique conversation tied to an account and
// upload. Messages preserve strict append order.
type Session struct {
	ID          string      `json:"id"`
	UserEmail   string      `json:"userEmail"`
	Personality Personality `json:"personality"`
	Title       string      `json:"title"`
	Messages    []Message   `json:"messages"`
	ProjectID   string      `json:"projectId,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// Project is a named folder sessions may be assigned to.
type Project struct {
	ID        string    `json:"id"`
	UserEmail string    `json:"userEmail"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Subscription mirrors the billing provider's view of an account.
// Written only by the webhook handler; read by the access tier gate.
type Subscription struct {
	UserEmail          string    `json:"userEmail"`
	StripeCustomer     string    `json:"-"`
	StripeSubscription string    `json:"-"`
	Active             bool      `json:"active"`
	ProSince           time.Time `json:"proSince"`
}

// MediaKind distinguishes uploaded ad formats.
type MediaKind string

const (
	MediaVideo MediaKind = "video"
	MediaGIF   MediaKind = "gif"
)

// Asset is the stored record of one uploaded ad file plus the fields
// derived by the conversion service. Immutable after creation.
type Asset struct {
	ID              string    `json:"id"`
	UserEmail       string    `json:"userEmail"`
	FileName        string    `json:"fileName"`
	ObjectKey       string    `json:"-"`
	Kind            MediaKind `json:"kind"`
	DurationSeconds float64   `json:"duration,omitempty"`
	Transcript      string    `json:"transcript,omitempty"`
	PreviewURL      string    `json:"previewUrl,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Feedback is a thumbs-up/down reaction to one assistant message.
type Feedback struct {
	UserEmail   string      `json:"userEmail"`
	Message     string      `json:"message"`
	Personality Personality `json:"personality"`
	Feedback    string      `json:"feedback"`
	Title       string      `json:"title"`
	CreatedAt   time.Time   `json:"createdAt"`
}

const (
	FeedbackThumbsUp   = "thumbs_up"
	FeedbackThumbsDown = "thumbs_down"
)
