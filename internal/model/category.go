package model

import "github.com/google/uuid"

// Category tags transactions for spending breakdowns.
type Category struct {
	ID       uuid.UUID
	Name     string
	ParentID uuid.UUID // uuid.Nil = top-level
}
