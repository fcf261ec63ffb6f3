package engine

import (
	"errors"
	"testing"

	"github.com/walkbuddy/walkbuddy/internal/domain"
)

// ─── Routes ─────────────────────────────────────────────────────────────────

func TestRoutes_CreateListDelete(t *testing.T) {
	e, _ := newTestEngine(t)

	r, err := e.CreateRoute("u", "  Riverside  ", 4.5, "flat")
	if err != nil {
		t.Fatalf("CreateRoute() error: %v", err)
	}
	if r.Name != "Riverside" {
		t.Errorf("Name = %q, want trimmed Riverside", r.Name)
	}
	e.CreateRoute("u", "Riverside", 4.5, "again")
	e.CreateRoute("other", "Riverside", 1, "")

	if n := len(e.Routes("u")); n != 2 {
		t.Fatalf("Routes(u) = %d, want 2", n)
	}
	removed, err := e.DeleteRoute("u", "Riverside")
	if err != nil || removed != 2 {
		t.Errorf("DeleteRoute() = %d, %v; want 2, nil", removed, err)
	}
	if n := len(e.Routes("other")); n != 1 {
		t.Errorf("Routes(other) = %d, want 1", n)
	}
	if _, err := e.DeleteRoute("u", "Riverside"); !errors.Is(err, domain.ErrRouteNotFound) {
		t.Errorf("second delete error = %v, want ErrRouteNotFound", err)
	}
}

func TestRoutes_Validation(t *testing.T) {
	e, _ := newTestEngine(t)
	if _, err := e.CreateRoute("", "x", 1, ""); !errors.Is(err, domain.ErrEmptyUserID) {
		t.Errorf("empty user error = %v", err)
	}
	if _, err := e.CreateRoute("u", " ", 1, ""); !errors.Is(err, domain.ErrEmptyRouteName) {
		t.Errorf("empty name error = %v", err)
	}
}

// ─── Messages ───────────────────────────────────────────────────────────────

func TestMessages_Conversation(t *testing.T) {
	e, clock := newTestEngine(t)

	e.SendMessage("alice", "bob", "walk at 6?")
	e.SendMessage("bob", "alice", "sure")
	e.SendMessage("alice", "carol", "hi")
	clock.AddDays(1)
	e.SendMessage("alice", "bob", "great walk")

	conv := e.Conversation("bob", "alice")
	want := []string{"walk at 6?", "sure", "great walk"}
	if len(conv) != len(want) {
		t.Fatalf("Conversation returned %d messages, want %d", len(conv), len(want))
	}
	for i, m := range conv {
		if m.Text != want[i] {
			t.Errorf("message %d = %q, want %q", i, m.Text, want[i])
		}
	}
	if conv[0].Seq >= conv[1].Seq {
		t.Error("same-instant messages must keep send order")
	}
}

func TestMessages_Validation(t *testing.T) {
	e, _ := newTestEngine(t)

	if _, err := e.SendMessage("a", "b", "   "); !errors.Is(err, domain.ErrEmptyMessage) {
		t.Errorf("blank text error = %v, want ErrEmptyMessage", err)
	}
	if _, err := e.SendMessage("a", "", "hi"); !errors.Is(err, domain.ErrEmptyUserID) {
		t.Errorf("missing recipient error = %v, want ErrEmptyUserID", err)
	}
	if len(e.Conversation("a", "b")) != 0 {
		t.Error("rejected messages must not be stored")
	}
}

// ─── Rewards ────────────────────────────────────────────────────────────────

func TestRedeemReward(t *testing.T) {
	e, _ := newTestEngine(t)
	mustWalk(t, e, WalkInput{UserID: "u", Minutes: 80})

	res := e.RedeemReward("u", "discount_code")
	if res.Status != domain.RedeemInsufficient {
		t.Errorf("Status = %s, want insufficient_points", res.Status)
	}
	if res.Balance != 80 || points(t, e, "u") != 80 {
		t.Errorf("balance = %d, want 80 untouched", points(t, e, "u"))
	}

	mustWalk(t, e, WalkInput{UserID: "u", Minutes: 40})
	res = e.RedeemReward("u", "badge_milestone")
	if !res.OK() {
		t.Fatalf("Status = %s, want redeemed", res.Status)
	}
	if res.Balance != 20 || points(t, e, "u") != 20 {
		t.Errorf("balance = %d, want 20", points(t, e, "u"))
	}
	if res.Redemption == nil || res.Redemption.Cost != 100 {
		t.Errorf("Redemption = %+v, want cost 100", res.Redemption)
	}
	if n := len(e.Redemptions("u")); n != 1 {
		t.Errorf("Redemptions = %d, want 1", n)
	}
	if h := e.History("u", 1); h[0].Type != domain.TxSpend || h[0].EntryType != domain.EntryDebit {
		t.Errorf("last ledger entry = %+v, want SPEND debit", h[0])
	}

	if res := e.RedeemReward("u", "yacht"); res.Status != domain.RedeemUnknown {
		t.Errorf("Status = %s, want unknown_reward", res.Status)
	}
	if res := e.RedeemReward("ghost", "badge_milestone"); res.Status != domain.RedeemInsufficient {
		t.Errorf("unknown user Status = %s, want insufficient_points", res.Status)
	}
}

func TestRedeemReward_TierLocked(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rewards = []domain.Reward{{ID: "vip", Name: "VIP", Cost: 50, MinTier: domain.TierGold}}
	e := New(cfg)
	clock := &fakeClock{}
	clock.Set(2026, 10, 14)
	e.SetClock(clock.Now)

	if _, err := e.RecordWalk(WalkInput{UserID: "u", Minutes: 200}); err != nil {
		t.Fatal(err)
	}
	res := e.RedeemReward("u", "vip")
	if res.Status != domain.RedeemTierLocked {
		t.Errorf("Status = %s, want tier_locked", res.Status)
	}
	if res.Balance != 200 {
		t.Errorf("Balance = %d, want 200", res.Balance)
	}
	if n := len(e.Rewards()); n != 1 {
		t.Errorf("Rewards() = %d, want 1", n)
	}
}
