// Package domain contains the Walking Buddies business types and rules with
// no infrastructure imports: users and their activity, challenge definitions
// and progress, teams, battles, rewards, reminders and the points ledger.
package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors carry no infrastructure dependency.

var (
	// Input errors
	ErrInvalidInput  = errors.New("invalid input")
	ErrEmptyUserID   = errors.New("user id is required")
	ErrInvalidTarget = errors.New("challenge target must be positive")
	ErrInvalidMetric = errors.New("unknown challenge metric")
	ErrInvalidRange  = errors.New("start date must not be after end date")

	// Challenge errors
	ErrChallengeNotFound = errors.New("challenge not found")
	ErrChallengeExists   = errors.New("challenge already exists")

	// Team errors
	ErrEmptyTeamName = errors.New("team name is required")
	ErrTeamNotFound  = errors.New("team not found")
	ErrSameTeam      = errors.New("a battle needs two different teams")

	// Social errors
	ErrEmptyMessage   = errors.New("message text is required")
	ErrEmptyRouteName = errors.New("route name is required")
	ErrRouteNotFound  = errors.New("route not found")

	// Reminder errors
	ErrUnknownReminder = errors.New("unknown reminder kind")
)
