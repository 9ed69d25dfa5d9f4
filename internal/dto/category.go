package dto

import (
	"time"

	"github.com/SscSPs/finsync/internal/core/domain"
)

// UpdateCategoryByDescriptionRequest re-categorizes every transaction with a description.
type UpdateCategoryByDescriptionRequest struct {
	Description string `json:"description" binding:"required"`
	NewCategory string `json:"newCategory" binding:"required"`
	CreateRule  bool   `json:"createRule"`
}

// UpdateCategoryByDescriptionResponse reports how many transactions changed.
type UpdateCategoryByDescriptionResponse struct {
	TransactionsUpdated int `json:"transactionsUpdated"`
}

// CategoryRuleResponse defines the data returned for a category rule.
type CategoryRuleResponse struct {
	RuleID           string    `json:"ruleId"`
	MatchDescription string    `json:"matchDescription"`
	Category         string    `json:"category"`
	CreatedAt        time.Time `json:"createdAt"`
	LastUpdatedAt    time.Time `json:"lastUpdatedAt"`
	LastUpdatedBy    string    `json:"lastUpdatedBy"`
}

// ToCategoryRuleResponse converts a domain.CategoryRule to CategoryRuleResponse DTO
func ToCategoryRuleResponse(rule domain.CategoryRule) CategoryRuleResponse {
	return CategoryRuleResponse{
		RuleID:           rule.RuleID,
		MatchDescription: rule.MatchDescription,
		Category:         rule.Category,
		CreatedAt:        rule.CreatedAt,
		LastUpdatedAt:    rule.LastUpdatedAt,
		LastUpdatedBy:    rule.LastUpdatedBy,
	}
}

// ToListCategoryRuleResponse converts a slice of rules, never returning nil.
func ToListCategoryRuleResponse(rules []domain.CategoryRule) []CategoryRuleResponse {
	res := make([]CategoryRuleResponse, len(rules))
	for i, rule := range rules {
		res[i] = ToCategoryRuleResponse(rule)
	}
	return res
}

// CreateExclusionRequest marks a description/account pair as not recurring.
type CreateExclusionRequest struct {
	Name          string `json:"name" binding:"required"`
	AccountNumber string `json:"account_number" binding:"required"`
}

// ExclusionResponse defines the data returned for an exclusion mark.
type ExclusionResponse struct {
	ExclusionID   string    `json:"id"`
	Name          string    `json:"name"`
	AccountNumber string    `json:"account_number"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ToExclusionResponse converts a domain.ExclusionMark to ExclusionResponse DTO
func ToExclusionResponse(mark domain.ExclusionMark) ExclusionResponse {
	return ExclusionResponse{
		ExclusionID:   mark.ExclusionID,
		Name:          mark.Name,
		AccountNumber: mark.AccountNumber,
		CreatedAt:     mark.CreatedAt,
	}
}

// ToListExclusionResponse converts a slice of marks, never returning nil.
func ToListExclusionResponse(marks []domain.ExclusionMark) []ExclusionResponse {
	res := make([]ExclusionResponse, len(marks))
	for i, mark := range marks {
		res[i] = ToExclusionResponse(mark)
	}
	return res
}
