// Package responder manages the roster of specialized responders the
// delegation engine can route to.
package responder

import "time"

// Tier selects which engine model backs a responder.
type Tier string

const (
	TierFast Tier = "fast"
	TierSlow Tier = "slow"
)

// Status gates whether a responder is part of the live roster.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusProduction Status = "production"
)

// Responder is one specialist definition as stored in the database.
type Responder struct {
	ID        string
	Subject   string
	Behaviour string
	Details   string
	Tier      Tier
	Status    Status
	Documents []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Profile is a responder prepared for delegation: the resolved model
// plus the instruction set handed to the engine.
type Profile struct {
	ID           string   `json:"id"`
	Subject      string   `json:"subject"`
	Role         string   `json:"role"`
	Model        string   `json:"model"`
	Instructions []string `json:"instructions"`
	Documents    []string `json:"documents,omitempty"`
}
