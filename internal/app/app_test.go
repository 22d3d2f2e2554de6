package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"fixmyad/pkg/domain"
	"fixmyad/pkg/prompt"
	"fixmyad/pkg/store"
)

// fakeGenerator answers per system prompt so the critique and compliance
// calls can be told apart. Safe for concurrent use.
type fakeGenerator struct {
	mu         sync.Mutex
	calls      []string
	critique   string
	compliance string
	err        error
}

func (f *fakeGenerator) GenerateText(_ context.Context, systemPrompt, userPrompt string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, systemPrompt)
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	if systemPrompt == prompt.SystemCompliance {
		return f.compliance, nil
	}
	return f.critique, nil
}

type fakeQuota struct {
	mu    sync.Mutex
	count map[string]int
}

func (q *fakeQuota) Allow(_ context.Context, sessionID string, limit int) bool {
	if limit <= 0 {
		return true
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.count == nil {
		q.count = make(map[string]int)
	}
	q.count[sessionID]++
	return q.count[sessionID] <= limit
}

func (q *fakeQuota) Refund(_ context.Context, sessionID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.count[sessionID] > 0 {
		q.count[sessionID]--
	}
}

func newTestApp(gen *fakeGenerator) (*App, *store.MemoryStore) {
	st := store.NewMemoryStore()
	return New(st, gen, &fakeQuota{}, 1), st
}

func TestCritiqueHappyPath(t *testing.T) {
	gen := &fakeGenerator{
		critique:   "Strong hook in the opener.\n\nDetails follow.",
		compliance: `["act now", "guaranteed results"]`,
	}
	a, st := newTestApp(gen)

	res, err := a.Critique(context.Background(), CritiqueInput{
		UserEmail:   "u@x.com",
		Personality: domain.PersonalityNova,
		Ad:          domain.AdMeta{Transcript: "Buy now!", FileType: "video/mp4", DurationSeconds: 12},
	})
	if err != nil {
		t.Fatalf("critique: %v", err)
	}
	if res.Result != gen.critique {
		t.Fatalf("result = %q", res.Result)
	}
	if len(res.RedFlags) != 2 || res.RedFlags[0] != "act now" {
		t.Fatalf("redFlags = %v", res.RedFlags)
	}
	if res.SessionID == "" {
		t.Fatal("expected a session id")
	}

	sess, ok, _ := st.GetSession(res.SessionID, "u@x.com")
	if !ok {
		t.Fatal("session not persisted")
	}
	if len(sess.Messages) != 2 || sess.Messages[0].Role != domain.RoleUser || sess.Messages[1].Role != domain.RoleAssistant {
		t.Fatalf("messages = %+v", sess.Messages)
	}
	if sess.Title != "Strong hook in the opener." {
		t.Fatalf("title = %q", sess.Title)
	}
	if len(gen.calls) != 2 {
		t.Fatalf("expected 2 upstream calls, got %d", len(gen.calls))
	}
}

func TestCritiqueUsesDefaultProfileOnMissingRow(t *testing.T) {
	gen := &fakeGenerator{critique: "ok", compliance: "[]"}
	a, _ := newTestApp(gen)
	prof := a.ResolveProfile(context.Background(), "nobody@x.com")
	if prof.Platform != domain.DefaultPlatform || prof.AdType != domain.DefaultAdType || prof.Tone != domain.DefaultTone {
		t.Fatalf("profile = %+v", prof)
	}
}

func TestResolveProfileFillsBlankFields(t *testing.T) {
	gen := &fakeGenerator{critique: "ok", compliance: "[]"}
	a, st := newTestApp(gen)
	_ = st.UpsertProfile(domain.Profile{UserEmail: "u@x.com", Platform: "tiktok"})
	prof := a.ResolveProfile(context.Background(), "u@x.com")
	if prof.Platform != "tiktok" {
		t.Fatalf("platform = %q", prof.Platform)
	}
	if prof.AdType != domain.DefaultAdType || prof.Tone != domain.DefaultTone {
		t.Fatalf("profile = %+v", prof)
	}
}

func TestPersonalityGateForFreeAccounts(t *testing.T) {
	gen := &fakeGenerator{critique: "ok", compliance: "[]"}
	a, st := newTestApp(gen)
	ctx := context.Background()

	_, err := a.Critique(ctx, CritiqueInput{UserEmail: "free@x.com", Personality: domain.PersonalityOnyx})
	if !errors.Is(err, ErrPersonalityLocked) {
		t.Fatalf("err = %v, want ErrPersonalityLocked", err)
	}

	_ = st.UpsertSubscription(domain.Subscription{UserEmail: "pro@x.com", Active: true})
	if _, err := a.Critique(ctx, CritiqueInput{UserEmail: "pro@x.com", Personality: domain.PersonalityOnyx}); err != nil {
		t.Fatalf("pro critique: %v", err)
	}
}

func TestCritiqueUpstreamFailure(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("boom")}
	a, st := newTestApp(gen)
	_, err := a.Critique(context.Background(), CritiqueInput{UserEmail: "u@x.com", Personality: domain.PersonalityNova})
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("err = %v, want ErrUpstream", err)
	}
	if st.SessionCount("u@x.com") != 0 {
		t.Fatal("failed critique must not write the ledger")
	}
}

func TestFollowUpAppendsSnapshot(t *testing.T) {
	gen := &fakeGenerator{critique: "First answer.", compliance: "[]"}
	a, st := newTestApp(gen)
	ctx := context.Background()

	first, err := a.Critique(ctx, CritiqueInput{UserEmail: "u@x.com", Personality: domain.PersonalityNova, Ad: domain.AdMeta{Transcript: "hi"}})
	if err != nil {
		t.Fatalf("critique: %v", err)
	}

	gen.critique = "Second answer."
	res, err := a.FollowUp(ctx, FollowUpInput{
		UserEmail:   "u@x.com",
		SessionID:   first.SessionID,
		Personality: domain.PersonalityNova,
		Question:    "What about the CTA?",
	})
	if err != nil {
		t.Fatalf("follow-up: %v", err)
	}
	if res.SessionID == first.SessionID {
		t.Fatal("follow-up must insert a fresh ledger entry")
	}
	if st.SessionCount("u@x.com") != 2 {
		t.Fatalf("ledger entries = %d, want 2", st.SessionCount("u@x.com"))
	}

	sess, ok, _ := st.GetSession(res.SessionID, "u@x.com")
	if !ok || len(sess.Messages) != 4 {
		t.Fatalf("snapshot messages = %d, want 4", len(sess.Messages))
	}
	if sess.Messages[2].Content != "What about the CTA?" || sess.Messages[3].Content != "Second answer." {
		t.Fatalf("snapshot tail = %+v", sess.Messages[2:])
	}
}

func TestFollowUpQuotaDeniesSecondFreeQuestion(t *testing.T) {
	gen := &fakeGenerator{critique: "ok", compliance: "[]"}
	a, _ := newTestApp(gen)
	ctx := context.Background()

	first, err := a.Critique(ctx, CritiqueInput{UserEmail: "u@x.com", Personality: domain.PersonalityNova})
	if err != nil {
		t.Fatalf("critique: %v", err)
	}
	in := FollowUpInput{UserEmail: "u@x.com", SessionID: first.SessionID, Personality: domain.PersonalityNova, Question: "q1"}
	if _, err := a.FollowUp(ctx, in); err != nil {
		t.Fatalf("first follow-up: %v", err)
	}
	in.Question = "q2"
	if _, err := a.FollowUp(ctx, in); !errors.Is(err, ErrFollowupLimit) {
		t.Fatalf("err = %v, want ErrFollowupLimit", err)
	}
}

func TestFollowUpUpstreamFailureDoesNotBurnQuota(t *testing.T) {
	gen := &fakeGenerator{critique: "ok", compliance: "[]"}
	a, _ := newTestApp(gen)
	ctx := context.Background()

	first, err := a.Critique(ctx, CritiqueInput{UserEmail: "u@x.com", Personality: domain.PersonalityNova})
	if err != nil {
		t.Fatalf("critique: %v", err)
	}
	in := FollowUpInput{UserEmail: "u@x.com", SessionID: first.SessionID, Personality: domain.PersonalityNova, Question: "q1"}

	gen.err = errors.New("boom")
	if _, err := a.FollowUp(ctx, in); !errors.Is(err, ErrUpstream) {
		t.Fatalf("err = %v, want ErrUpstream", err)
	}

	gen.err = nil
	if _, err := a.FollowUp(ctx, in); err != nil {
		t.Fatalf("retry after recovery: %v", err)
	}
	if _, err := a.FollowUp(ctx, in); !errors.Is(err, ErrFollowupLimit) {
		t.Fatalf("err = %v, want ErrFollowupLimit", err)
	}
}

func TestFollowUpUnknownSession(t *testing.T) {
	gen := &fakeGenerator{critique: "ok", compliance: "[]"}
	a, _ := newTestApp(gen)
	_, err := a.FollowUp(context.Background(), FollowUpInput{
		UserEmail:   "u@x.com",
		SessionID:   "missing",
		Personality: domain.PersonalityNova,
		Question:    "q",
	})
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestPredictDoesNotTouchLedger(t *testing.T) {
	gen := &fakeGenerator{critique: "High Potential", compliance: "[]"}
	a, st := newTestApp(gen)
	out, err := a.Predict(context.Background(), PredictInput{
		UserEmail: "u@x.com",
		Platform:  "youtube",
		Ad:        domain.AdMeta{Transcript: "hello"},
	})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if out != "High Potential" {
		t.Fatalf("out = %q", out)
	}
	if st.SessionCount("u@x.com") != 0 {
		t.Fatal("predict must not write the ledger")
	}
}

func TestDeriveTitle(t *testing.T) {
	long := strings.Repeat("x", 150)
	cases := []struct {
		name     string
		reply    string
		fallback string
		want     string
	}{
		{"first line", "Title line\nrest", "f", "Title line"},
		{"skips blank lines", "\n\n  \nReal title\nmore", "f", "Real title"},
		{"truncates", long, "f", strings.Repeat("x", 100)},
		{"fallback", "   \n\n", "ad.mp4", "ad.mp4"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DeriveTitle(tc.reply, tc.fallback); got != tc.want {
				t.Fatalf("DeriveTitle = %q, want %q", got, tc.want)
			}
		})
	}
}
