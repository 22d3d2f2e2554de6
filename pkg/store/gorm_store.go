package store

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fixmyad/pkg/domain"
)

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(
		&ProfileModel{},
		&SessionModel{},
		&ProjectModel{},
		&SubscriptionModel{},
		&AssetModel{},
		&FeedbackModel{},
		&WaitlistModel{},
		&PublicWaitlistModel{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// GetProfile looks up stored survey answers by account email.
func (s *GormStore) GetProfile(email string) (domain.Profile, bool, error) {
	var model ProfileModel
	if err := s.db.First(&model, "user_email = ?", email).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Profile{}, false, nil
		}
		return domain.Profile{}, false, err
	}
	return profileFromModel(model), true, nil
}

// UpsertProfile stores or overwrites survey answers, keyed by email.
func (s *GormStore) UpsertProfile(p domain.Profile) error {
	model := profileToModel(p)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_email"}},
		DoUpdates: clause.AssignmentColumns([]string{"platform", "ad_type", "tone", "updated_at"}),
	}).Create(&model).Error
}

// SaveSession inserts one ledger entry carrying the full message sequence.
// Each call is a single independent insert; there is deliberately no dedup.
func (s *GormStore) SaveSession(sess domain.Session) error {
	model, err := sessionToModel(sess)
	if err != nil {
		return err
	}
	return s.db.Create(&model).Error
}

// GetSession restores a session by identifier, scoped to the account.
func (s *GormStore) GetSession(id, email string) (domain.Session, bool, error) {
	var model SessionModel
	if err := s.db.First(&model, "id = ? AND user_email = ?", id, email).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Session{}, false, nil
		}
		return domain.Session{}, false, err
	}
	sess, err := sessionFromModel(model)
	if err != nil {
		return domain.Session{}, false, err
	}
	return sess, true, nil
}

// ListSessionsByAccount returns recent sessions, newest first.
func (s *GormStore) ListSessionsByAccount(email string, limit int) ([]domain.Session, error) {
	var models []SessionModel
	if err := s.db.Where("user_email = ?", email).Order("created_at DESC").Limit(limit).Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Session, 0, len(models))
	for _, m := range models {
		sess, err := sessionFromModel(m)
		if err != nil {
			return nil, err
		}
		res = append(res, sess)
	}
	return res, nil
}

// DeleteSession archives (removes) a session owned by the account.
func (s *GormStore) DeleteSession(id, email string) (bool, error) {
	tx := s.db.Where("id = ? AND user_email = ?", id, email).Delete(&SessionModel{})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// AssignSessionProject moves a session into a project (pure FK update).
func (s *GormStore) AssignSessionProject(id, email, projectID string) (bool, error) {
	tx := s.db.Model(&SessionModel{}).
		Where("id = ? AND user_email = ?", id, email).
		Update("project_id", projectID)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// SaveProject stores a project folder.
func (s *GormStore) SaveProject(p domain.Project) error {
	model := ProjectModel{
		ID:        p.ID,
		UserEmail: p.UserEmail,
		Name:      p.Name,
		CreatedAt: p.CreatedAt,
	}
	return s.db.Create(&model).Error
}

// ListProjectsByAccount returns the account's projects, oldest first.
func (s *GormStore) ListProjectsByAccount(email string) ([]domain.Project, error) {
	var models []ProjectModel
	if err := s.db.Where("user_email = ?", email).Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Project, 0, len(models))
	for _, m := range models {
		res = append(res, domain.Project{
			ID:        m.ID,
			UserEmail: m.UserEmail,
			Name:      m.Name,
			CreatedAt: m.CreatedAt,
		})
	}
	return res, nil
}

// UpsertSubscription stores billing state, at most one row per email.
func (s *GormStore) UpsertSubscription(sub domain.Subscription) error {
	model := SubscriptionModel{
		UserEmail:          sub.UserEmail,
		StripeCustomer:     sub.StripeCustomer,
		StripeSubscription: sub.StripeSubscription,
		Active:             sub.Active,
		ProSince:           sub.ProSince,
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_email"}},
		DoUpdates: clause.AssignmentColumns([]string{"stripe_customer", "stripe_subscription", "is_active", "pro_since"}),
	}).Create(&model).Error
}

// GetSubscription reads billing state for the access tier gate.
func (s *GormStore) GetSubscription(email string) (domain.Subscription, bool, error) {
	var model SubscriptionModel
	if err := s.db.First(&model, "user_email = ?", email).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Subscription{}, false, nil
		}
		return domain.Subscription{}, false, err
	}
	return domain.Subscription{
		UserEmail:          model.UserEmail,
		StripeCustomer:     model.StripeCustomer,
		StripeSubscription: model.StripeSubscription,
		Active:             model.Active,
		ProSince:           model.ProSince,
	}, true, nil
}

// SaveAsset stores one uploaded ad's derived metadata.
func (s *GormStore) SaveAsset(a domain.Asset) error {
	model := AssetModel{
		ID:              a.ID,
		UserEmail:       a.UserEmail,
		FileName:        a.FileName,
		ObjectKey:       a.ObjectKey,
		Kind:            string(a.Kind),
		DurationSeconds: a.DurationSeconds,
		Transcript:      a.Transcript,
		PreviewURL:      a.PreviewURL,
		CreatedAt:       a.CreatedAt,
	}
	return s.db.Create(&model).Error
}

// GetAsset retrieves one uploaded ad's metadata, scoped to the account.
func (s *GormStore) GetAsset(id, email string) (domain.Asset, bool, error) {
	var model AssetModel
	if err := s.db.First(&model, "id = ? AND user_email = ?", id, email).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Asset{}, false, nil
		}
		return domain.Asset{}, false, err
	}
	return domain.Asset{
		ID:              model.ID,
		UserEmail:       model.UserEmail,
		FileName:        model.FileName,
		ObjectKey:       model.ObjectKey,
		Kind:            domain.MediaKind(model.Kind),
		DurationSeconds: model.DurationSeconds,
		Transcript:      model.Transcript,
		PreviewURL:      model.PreviewURL,
		CreatedAt:       model.CreatedAt,
	}, true, nil
}

// SaveFeedback stores one thumbs-up/down reaction.
func (s *GormStore) SaveFeedback(f domain.Feedback) error {
	model := FeedbackModel{
		UserEmail:   f.UserEmail,
		Message:     f.Message,
		Personality: string(f.Personality),
		Feedback:    f.Feedback,
		Title:       f.Title,
		CreatedAt:   f.CreatedAt,
	}
	return s.db.Create(&model).Error
}

// AddWaitlistEntry records a signed-in waitlist signup.
func (s *GormStore) AddWaitlistEntry(email, accountID string) error {
	return s.db.Create(&WaitlistModel{
		Email:     email,
		UserID:    accountID,
		CreatedAt: time.Now().UTC(),
	}).Error
}

// AddPublicWaitlistEntry records an anonymous waitlist signup.
func (s *GormStore) AddPublicWaitlistEntry(email string) error {
	return s.db.Create(&PublicWaitlistModel{
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}).Error
}

func profileFromModel(m ProfileModel) domain.Profile {
	return domain.Profile{
		UserEmail: m.UserEmail,
		Platform:  m.Platform,
		AdType:    m.AdType,
		Tone:      m.Tone,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func profileToModel(p domain.Profile) ProfileModel {
	return ProfileModel{
		UserEmail: p.UserEmail,
		Platform:  p.Platform,
		AdType:    p.AdType,
		Tone:      p.Tone,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func sessionToModel(sess domain.Session) (SessionModel, error) {
	messages, err := json.Marshal(sess.Messages)
	if err != nil {
		return SessionModel{}, fmt.Errorf("marshal messages: %w", err)
	}
	return SessionModel{
		ID:          sess.ID,
		UserEmail:   sess.UserEmail,
		Personality: string(sess.Personality),
		Title:       sess.Title,
		Messages:    datatypes.JSON(messages),
		ProjectID:   sess.ProjectID,
		CreatedAt:   sess.CreatedAt,
	}, nil
}

func sessionFromModel(m SessionModel) (domain.Session, error) {
	var messages []domain.Message
	if len(m.Messages) > 0 {
		if err := json.Unmarshal(m.Messages, &messages); err != nil {
			return domain.Session{}, fmt.Errorf("unmarshal messages: %w", err)
		}
	}
	return domain.Session{
		ID:          m.ID,
		UserEmail:   m.UserEmail,
		Personality: domain.Personality(m.Personality),
		Title:       m.Title,
		Messages:    messages,
		ProjectID:   m.ProjectID,
		CreatedAt:   m.CreatedAt,
	}, nil
}
