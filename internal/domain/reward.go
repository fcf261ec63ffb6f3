package domain

import "time"

// ─── Reward Types ───────────────────────────────────────────────────────────

// Reward is a catalog item that can be bought with points.
type Reward struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Cost        int64  `json:"cost"`
	MinTier     Tier   `json:"min_tier"`
}

// DefaultRewards returns the standard reward catalog.
func DefaultRewards() []Reward {
	return []Reward{
		{ID: "badge_milestone", Name: "Digital Badge", Description: "A milestone badge for your profile.", Cost: 100, MinTier: TierBronze},
		{ID: "discount_code", Name: "Discount Code", Description: "A discount on sneakers or wellness gear.", Cost: 500, MinTier: TierBronze},
		{ID: "gift_card", Name: "Gift Card", Description: "A gift card for top walkers.", Cost: 1000, MinTier: TierSilver},
		{ID: "exclusive_challenge", Name: "Exclusive Challenge Access", Description: "Entry to members-only challenges.", Cost: 2000, MinTier: TierGold},
	}
}

// Redemption records a completed reward purchase.
type Redemption struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	RewardID   string    `json:"reward_id"`
	Cost       int64     `json:"cost"`
	RedeemedAt time.Time `json:"redeemed_at"`
}

// RedeemStatus is the outcome of a redemption attempt.
type RedeemStatus string

const (
	RedeemOK           RedeemStatus = "redeemed"
	RedeemInsufficient RedeemStatus = "insufficient_points"
	RedeemTierLocked   RedeemStatus = "tier_locked"
	RedeemUnknown      RedeemStatus = "unknown_reward"
)

// RedeemResult reports a redemption attempt. Only RedeemOK changes state.
type RedeemResult struct {
	Status     RedeemStatus `json:"status"`
	Balance    int64        `json:"balance"`
	Redemption *Redemption  `json:"redemption,omitempty"`
}

// OK reports whether the reward was redeemed.
func (r RedeemResult) OK() bool { return r.Status == RedeemOK }
