package store

import (
	"sync"
	"time"

	"fixmyad/pkg/domain"
)

// MemoryStore keeps everything in-process. Used by tests and local runs
// without a database.
type MemoryStore struct {
	mu            sync.RWMutex
	profiles      map[string]domain.Profile
	sessions      map[string]domain.Session
	sessionOrder  []string
	projects      map[string]domain.Project
	projectOrder  []string
	subscriptions map[string]domain.Subscription
	assets        map[string]domain.Asset
	feedback      []domain.Feedback
	waitlist      []WaitlistModel
	publicWait    []PublicWaitlistModel
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles:      make(map[string]domain.Profile),
		sessions:      make(map[string]domain.Session),
		projects:      make(map[string]domain.Project),
		subscriptions: make(map[string]domain.Subscription),
		assets:        make(map[string]domain.Asset),
	}
}

func (m *MemoryStore) GetProfile(email string) (domain.Profile, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[email]
	return p, ok, nil
}

func (m *MemoryStore) UpsertProfile(p domain.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.UserEmail] = p
	return nil
}

func (m *MemoryStore) SaveSession(sess domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[sess.ID]; !exists {
		m.sessionOrder = append(m.sessionOrder, sess.ID)
	}
	m.sessions[sess.ID] = sess
	return nil
}

func (m *MemoryStore) GetSession(id, email string) (domain.Session, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	if !ok || sess.UserEmail != email {
		return domain.Session{}, false, nil
	}
	return sess, true, nil
}

func (m *MemoryStore) ListSessionsByAccount(email string, limit int) ([]domain.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Session, 0, limit)
	for i := len(m.sessionOrder) - 1; i >= 0; i-- {
		sess, ok := m.sessions[m.sessionOrder[i]]
		if !ok || sess.UserEmail != email {
			continue
		}
		res = append(res, sess)
		if limit > 0 && len(res) >= limit {
			break
		}
	}
	return res, nil
}

func (m *MemoryStore) DeleteSession(id, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok || sess.UserEmail != email {
		return false, nil
	}
	delete(m.sessions, id)
	return true, nil
}

func (m *MemoryStore) AssignSessionProject(id, email, projectID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok || sess.UserEmail != email {
		return false, nil
	}
	sess.ProjectID = projectID
	m.sessions[id] = sess
	return true, nil
}

func (m *MemoryStore) SaveProject(p domain.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.projects[p.ID]; !exists {
		m.projectOrder = append(m.projectOrder, p.ID)
	}
	m.projects[p.ID] = p
	return nil
}

func (m *MemoryStore) ListProjectsByAccount(email string) ([]domain.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Project, 0)
	for _, id := range m.projectOrder {
		p, ok := m.projects[id]
		if ok && p.UserEmail == email {
			res = append(res, p)
		}
	}
	return res, nil
}

func (m *MemoryStore) UpsertSubscription(sub domain.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions[sub.UserEmail] = sub
	return nil
}

func (m *MemoryStore) GetSubscription(email string) (domain.Subscription, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sub, ok := m.subscriptions[email]
	return sub, ok, nil
}

func (m *MemoryStore) SaveAsset(a domain.Asset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assets[a.ID] = a
	return nil
}

func (m *MemoryStore) GetAsset(id, email string) (domain.Asset, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.assets[id]
	if !ok || a.UserEmail != email {
		return domain.Asset{}, false, nil
	}
	return a, true, nil
}

func (m *MemoryStore) SaveFeedback(f domain.Feedback) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.feedback = append(m.feedback, f)
	return nil
}

func (m *MemoryStore) AddWaitlistEntry(email, accountID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.waitlist = append(m.waitlist, WaitlistModel{
		Email:     email,
		UserID:    accountID,
		CreatedAt: time.Now().UTC(),
	})
	return nil
}

func (m *MemoryStore) AddPublicWaitlistEntry(email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publicWait = append(m.publicWait, PublicWaitlistModel{
		Email:     email,
		CreatedAt: time.Now().UTC(),
	})
	return nil
}

// SessionCount reports how many ledger entries exist for an account.
// Test helper for verifying (non-)idempotent ledger behavior.
func (m *MemoryStore) SessionCount(email string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, sess := range m.sessions {
		if sess.UserEmail == email {
			count++
		}
	}
	return count
}
