// Package app orchestrates the critique flows: profile resolution, prompt
// composition, completion calls, tier gating, and ledger writes.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"fixmyad/internal/util"
	"fixmyad/pkg/ai"
	"fixmyad/pkg/domain"
	"fixmyad/pkg/prompt"
	"fixmyad/pkg/store"
)

const maxTitleLen = 100

// FollowupQuota gates follow-up questions per session. A limit <= 0 means
// unlimited. Refund returns a taken slot when the question never reached
// the model.
type FollowupQuota interface {
	Allow(ctx context.Context, sessionID string, limit int) bool
	Refund(ctx context.Context, sessionID string)
}

// App wires the stores and upstream clients behind the critique operations.
type App struct {
	store             store.Store
	generator         ai.TextGenerator
	quota             FollowupQuota
	freeFollowupLimit int
}

// New constructs the application core.
func New(st store.Store, gen ai.TextGenerator, quota FollowupQuota, freeFollowupLimit int) *App {
	return &App{
		store:             st,
		generator:         gen,
		quota:             quota,
		freeFollowupLimit: freeFollowupLimit,
	}
}

// CritiqueInput describes one initial-critique request.
type CritiqueInput struct {
	UserEmail   string
	Personality domain.Personality
	Ad          domain.AdMeta
	ProjectID   string
	FileName    string
}

// CritiqueResult is the outcome of a critique-family operation.
type CritiqueResult struct {
	Result    string
	RedFlags  []string
	SessionID string
}

// FollowUpInput describes a follow-up question against an existing session.
type FollowUpInput struct {
	UserEmail   string
	SessionID   string
	Personality domain.Personality
	Question    string
	// RawPrompt, when set, is sent verbatim instead of the composed
	// follow-up prompt.
	RawPrompt string
}

// CompareInput describes an A/B comparison of two ad cuts.
type CompareInput struct {
	UserEmail   string
	Personality domain.Personality
	Original    domain.AdMeta
	Revised     domain.AdMeta
}

// PredictInput describes a performance prediction request. Platform, AdType,
// and Tone override the stored profile when non-empty.
type PredictInput struct {
	UserEmail string
	Platform  string
	AdType    string
	Tone      string
	Ad        domain.AdMeta
}

// IsPro reports whether the account holds an active subscription.
// Store errors and missing rows both read as free tier.
func (a *App) IsPro(ctx context.Context, email string) bool {
	sub, ok, err := a.store.GetSubscription(email)
	if err != nil {
		util.LoggerFromContext(ctx).Warn("subscription lookup failed", "error", err)
		return false
	}
	return ok && sub.Active
}

// ResolveProfile returns the stored survey answers for the account, with
// per-field defaults. Missing rows and store errors both yield the default
// profile.
func (a *App) ResolveProfile(ctx context.Context, email string) domain.Profile {
	prof, ok, err := a.store.GetProfile(email)
	if err != nil {
		util.LoggerFromContext(ctx).Warn("profile lookup failed", "error", err)
		return domain.DefaultProfile(email)
	}
	if !ok {
		return domain.DefaultProfile(email)
	}
	if strings.TrimSpace(prof.Platform) == "" {
		prof.Platform = domain.DefaultPlatform
	}
	if strings.TrimSpace(prof.AdType) == "" {
		prof.AdType = domain.DefaultAdType
	}
	if strings.TrimSpace(prof.Tone) == "" {
		prof.Tone = domain.DefaultTone
	}
	return prof
}

func (a *App) gatePersonality(ctx context.Context, email string, p domain.Personality) error {
	if p.Free() {
		return nil
	}
	if !a.IsPro(ctx, email) {
		return ErrPersonalityLocked
	}
	return nil
}

// Critique runs the initial critique of one uploaded ad. The critique
// completion and the risk-phrase extraction run concurrently; the risk call
// is best-effort and never fails the operation.
func (a *App) Critique(ctx context.Context, in CritiqueInput) (CritiqueResult, error) {
	if err := a.gatePersonality(ctx, in.UserEmail, in.Personality); err != nil {
		return CritiqueResult{}, err
	}
	prof := a.ResolveProfile(ctx, in.UserEmail)
	userPrompt := prompt.Critique(in.Personality, prof, in.Ad)

	var reply string
	redFlags := []string{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out, err := a.generator.GenerateText(gctx, prompt.SystemCritique, userPrompt)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUpstream, err)
		}
		reply = out
		return nil
	})
	g.Go(func() error {
		redFlags = ai.ExtractRiskPhrases(gctx, a.generator, prompt.SystemCompliance, in.Ad.Transcript, userPrompt)
		return nil
	})
	if err := g.Wait(); err != nil {
		return CritiqueResult{}, err
	}

	sessionID := a.appendLedger(ctx, domain.Session{
		UserEmail:   in.UserEmail,
		Personality: in.Personality,
		Title:       DeriveTitle(reply, fallbackTitle(in.FileName)),
		Messages: []domain.Message{
			{Role: domain.RoleUser, Content: userPrompt},
			{Role: domain.RoleAssistant, Content: reply},
		},
		ProjectID: in.ProjectID,
	})
	return CritiqueResult{Result: reply, RedFlags: redFlags, SessionID: sessionID}, nil
}

// FollowUp answers a follow-up question against an existing session, gated
// by the per-tier allowance. Each answer is recorded as a fresh ledger entry
// carrying the full conversation snapshot.
func (a *App) FollowUp(ctx context.Context, in FollowUpInput) (CritiqueResult, error) {
	if err := a.gatePersonality(ctx, in.UserEmail, in.Personality); err != nil {
		return CritiqueResult{}, err
	}
	sess, ok, err := a.store.GetSession(in.SessionID, in.UserEmail)
	if err != nil {
		return CritiqueResult{}, fmt.Errorf("load session: %w", err)
	}
	if !ok {
		return CritiqueResult{}, ErrSessionNotFound
	}

	limit := a.freeFollowupLimit
	if a.IsPro(ctx, in.UserEmail) {
		limit = 0
	}
	if !a.quota.Allow(ctx, in.SessionID, limit) {
		return CritiqueResult{}, ErrFollowupLimit
	}

	userPrompt := in.RawPrompt
	if userPrompt == "" {
		userPrompt = prompt.Followup(in.Personality, sess.Messages, in.Question)
	}
	reply, err := a.generator.GenerateText(ctx, prompt.SystemCritique, userPrompt)
	if err != nil {
		// A failed completion must not burn the account's allowance.
		if limit > 0 {
			a.quota.Refund(ctx, in.SessionID)
		}
		return CritiqueResult{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	question := in.Question
	if question == "" {
		question = in.RawPrompt
	}
	messages := append(append([]domain.Message{}, sess.Messages...),
		domain.Message{Role: domain.RoleUser, Content: question},
		domain.Message{Role: domain.RoleAssistant, Content: reply},
	)
	sessionID := a.appendLedger(ctx, domain.Session{
		UserEmail:   in.UserEmail,
		Personality: in.Personality,
		Title:       sess.Title,
		Messages:    messages,
		ProjectID:   sess.ProjectID,
	})
	return CritiqueResult{Result: reply, SessionID: sessionID}, nil
}

// RevisedCritique critiques a revised cut of a previously reviewed ad.
func (a *App) RevisedCritique(ctx context.Context, in CritiqueInput) (CritiqueResult, error) {
	if err := a.gatePersonality(ctx, in.UserEmail, in.Personality); err != nil {
		return CritiqueResult{}, err
	}
	prof := a.ResolveProfile(ctx, in.UserEmail)
	userPrompt := prompt.Revised(in.Personality, prof, in.Ad)
	reply, err := a.generator.GenerateText(ctx, prompt.SystemCritique, userPrompt)
	if err != nil {
		return CritiqueResult{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	sessionID := a.appendLedger(ctx, domain.Session{
		UserEmail:   in.UserEmail,
		Personality: in.Personality,
		Title:       DeriveTitle(reply, fallbackTitle(in.FileName)),
		Messages: []domain.Message{
			{Role: domain.RoleUser, Content: userPrompt},
			{Role: domain.RoleAssistant, Content: reply},
		},
		ProjectID: in.ProjectID,
	})
	return CritiqueResult{Result: reply, SessionID: sessionID}, nil
}

// ABCompare compares an original and a revised ad side by side.
func (a *App) ABCompare(ctx context.Context, in CompareInput) (CritiqueResult, error) {
	if err := a.gatePersonality(ctx, in.UserEmail, in.Personality); err != nil {
		return CritiqueResult{}, err
	}
	userPrompt := prompt.Compare(in.Personality, in.Original, in.Revised)
	reply, err := a.generator.GenerateText(ctx, prompt.SystemStrategist, userPrompt)
	if err != nil {
		return CritiqueResult{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	sessionID := a.appendLedger(ctx, domain.Session{
		UserEmail:   in.UserEmail,
		Personality: in.Personality,
		Title:       DeriveTitle(reply, "Untitled"),
		Messages: []domain.Message{
			{Role: domain.RoleUser, Content: userPrompt},
			{Role: domain.RoleAssistant, Content: reply},
		},
	})
	return CritiqueResult{Result: reply, SessionID: sessionID}, nil
}

// Predict forecasts how the ad might perform. Not recorded in the ledger.
func (a *App) Predict(ctx context.Context, in PredictInput) (string, error) {
	prof := a.ResolveProfile(ctx, in.UserEmail)
	if strings.TrimSpace(in.Platform) != "" {
		prof.Platform = in.Platform
	}
	if strings.TrimSpace(in.AdType) != "" {
		prof.AdType = in.AdType
	}
	if strings.TrimSpace(in.Tone) != "" {
		prof.Tone = in.Tone
	}
	userPrompt := prompt.Predict(prof, in.Ad)
	reply, err := a.generator.GenerateText(ctx, prompt.SystemStrategist, userPrompt)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return reply, nil
}

// appendLedger inserts one conversation snapshot under a fresh id. Ledger
// failures are logged but never fail the critique that produced them.
func (a *App) appendLedger(ctx context.Context, sess domain.Session) string {
	sess.ID = uuid.NewString()
	sess.CreatedAt = time.Now().UTC()
	if err := a.store.SaveSession(sess); err != nil {
		util.LoggerFromContext(ctx).Error("ledger insert failed", "error", err, "session_id", sess.ID)
	}
	return sess.ID
}

// DeriveTitle picks the first non-empty line of the assistant reply,
// trimmed to 100 characters. Falls back when the reply is blank.
func DeriveTitle(reply, fallback string) string {
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		runes := []rune(line)
		if len(runes) > maxTitleLen {
			return string(runes[:maxTitleLen])
		}
		return line
	}
	return fallback
}

func fallbackTitle(fileName string) string {
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return "Untitled"
	}
	return fileName
}
