package model

import (
	"fmt"

	"github.com/google/uuid"
)

// Classification splits accounts into the two sides of the balance sheet.
type Classification string

const (
	ClassificationAsset     Classification = "asset"
	ClassificationLiability Classification = "liability"
)

// Direction names which way a series should move to be good news.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// ParseDirection accepts "up" or "down".
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(s); d {
	case DirectionUp, DirectionDown:
		return d, nil
	default:
		return "", fmt.Errorf("unknown direction %q", s)
	}
}

// Valid reports whether the classification is one of the known values.
func (c Classification) Valid() bool {
	return c == ClassificationAsset || c == ClassificationLiability
}

// FavorableDirection is up for assets (growth is good) and down for
// liabilities (paying debt off is good).
func (c Classification) FavorableDirection() Direction {
	if c == ClassificationLiability {
		return DirectionDown
	}
	return DirectionUp
}

// Account represents a row in chart-of-accounts.csv.
type Account struct {
	ID             uuid.UUID
	Name           string
	Classification Classification
	Subtype        string // depository, credit_card, loan, investment...
	Currency       string
	Visible        bool
}
