package models

// CategoryRule is one row of the category_rules table.
type CategoryRule struct {
	RuleID           string `db:"rule_id"`
	MatchDescription string `db:"match_description"` // Unique, normalized
	Category         string `db:"category"`
	AuditFields
}
