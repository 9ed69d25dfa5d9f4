package mapping

import (
	"github.com/SscSPs/finsync/internal/core/domain"
	"github.com/SscSPs/finsync/internal/models"
)

// ToModelCategoryRule converts a domain CategoryRule to a model CategoryRule
func ToModelCategoryRule(d domain.CategoryRule) models.CategoryRule {
	return models.CategoryRule{
		RuleID:           d.RuleID,
		MatchDescription: domain.NormalizeDescription(d.MatchDescription),
		Category:         d.Category,
		AuditFields:      models.AuditFields(d.AuditFields),
	}
}

// ToDomainCategoryRule converts a model CategoryRule to a domain CategoryRule
func ToDomainCategoryRule(m models.CategoryRule) domain.CategoryRule {
	return domain.CategoryRule{
		RuleID:           m.RuleID,
		MatchDescription: m.MatchDescription,
		Category:         m.Category,
		AuditFields:      domain.AuditFields(m.AuditFields),
	}
}

// ToModelExclusion converts a domain ExclusionMark to a model ExclusionMark
func ToModelExclusion(d domain.ExclusionMark) models.ExclusionMark {
	return models.ExclusionMark{
		ExclusionID:    d.ExclusionID,
		Name:           d.Name,
		NormalizedName: domain.NormalizeDescription(d.Name),
		AccountNumber:  d.AccountNumber,
		CreatedAt:      d.CreatedAt,
	}
}

// ToDomainExclusion converts a model ExclusionMark to a domain ExclusionMark
func ToDomainExclusion(m models.ExclusionMark) domain.ExclusionMark {
	return domain.ExclusionMark{
		ExclusionID:   m.ExclusionID,
		Name:          m.Name,
		AccountNumber: m.AccountNumber,
		CreatedAt:     m.CreatedAt,
	}
}
