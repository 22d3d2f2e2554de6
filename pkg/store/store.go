package store

import "fixmyad/pkg/domain"

// Store defines persistence operations for profiles, sessions, projects,
// subscriptions, assets, feedback, and waitlists.
type Store interface {
	// profiles
	GetProfile(email string) (domain.Profile, bool, error)
	UpsertProfile(domain.Profile) error

	// sessions (append-only conversation ledger)
	SaveSession(domain.Session) error
	GetSession(id, email string) (domain.Session, bool, error)
	ListSessionsByAccount(email string, limit int) ([]domain.Session, error)
	DeleteSession(id, email string) (bool, error)
	AssignSessionProject(id, email, projectID string) (bool, error)

	// projects
	SaveProject(domain.Project) error
	ListProjectsByAccount(email string) ([]domain.Project, error)

	// subscriptions (written only by the billing webhook)
	UpsertSubscription(domain.Subscription) error
	GetSubscription(email string) (domain.Subscription, bool, error)

	// assets
	SaveAsset(domain.Asset) error
	GetAsset(id, email string) (domain.Asset, bool, error)

	// feedback + waitlists
	SaveFeedback(domain.Feedback) error
	AddWaitlistEntry(email, accountID string) error
	AddPublicWaitlistEntry(email string) error
}
