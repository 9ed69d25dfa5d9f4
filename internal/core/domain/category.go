package domain

// CategoryRule pins a category to every transaction with a given normalized description.
type CategoryRule struct {
	RuleID           string `json:"ruleID"`
	MatchDescription string `json:"matchDescription"`
	Category         string `json:"category"`
	AuditFields
}

// Matches reports whether the rule applies to the description.
func (r CategoryRule) Matches(description string) bool {
	return r.MatchDescription == NormalizeDescription(description)
}

// Categorization is the outcome of running the precedence chain.
type Categorization struct {
	Category string         `json:"category"`
	Source   CategorySource `json:"source"`
}
