package models

import "time"

// ExclusionMark is one row of the non_recurring_exclusions table. The pair
// (normalized_name, account_number) is unique.
type ExclusionMark struct {
	ExclusionID    string    `db:"exclusion_id"`
	Name           string    `db:"name"`
	NormalizedName string    `db:"normalized_name"`
	AccountNumber  string    `db:"account_number"`
	CreatedAt      time.Time `db:"created_at"`
}
