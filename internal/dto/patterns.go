package dto

import (
	"github.com/SscSPs/finsync/internal/apperrors"
	"github.com/SscSPs/finsync/internal/core/domain"
	"github.com/SscSPs/finsync/internal/utils/pagination"
)

// PatternQueryParams are the query string parameters of GET /recurring-payments.
// Sort keys and status values depend on the type and are checked by the service.
type PatternQueryParams struct {
	Type      string `form:"type" binding:"required,oneof=installments recurring"`
	SortBy    string `form:"sortBy"`
	SortOrder string `form:"sortOrder" binding:"omitempty,oneof=asc desc"`
	Limit     int    `form:"limit"`
	Offset    int    `form:"offset"`
	Frequency string `form:"frequency" binding:"omitempty,oneof=monthly bi-monthly"`
	Status    string `form:"status"`
	Vendor    string `form:"vendor"`
	Snapshot  string `form:"snapshot"`
}

// ToDomain converts the parameters to a domain.PatternQuery, unpacking the
// snapshot token when present.
func (p PatternQueryParams) ToDomain() (domain.PatternQuery, error) {
	q := domain.PatternQuery{
		Type:      domain.PatternType(p.Type),
		SortBy:    p.SortBy,
		SortOrder: domain.SortOrder(p.SortOrder),
		Limit:     p.Limit,
		Offset:    p.Offset,
		Frequency: domain.Frequency(p.Frequency),
		Status:    p.Status,
		Vendor:    p.Vendor,
	}
	if p.Snapshot != "" {
		seq, version, asOf, err := pagination.DecodeSnapshotToken(p.Snapshot)
		if err != nil {
			return q, apperrors.Validationf("invalid snapshot token: %v", err)
		}
		q.Snapshot = seq
		q.Version = version
		q.AsOf = asOf
	}
	return q, nil
}

// PaginationResponse describes the page and carries the token for the next one.
type PaginationResponse struct {
	Total    int    `json:"total"`
	Limit    int    `json:"limit"`
	Offset   int    `json:"offset"`
	HasMore  bool   `json:"hasMore"`
	Snapshot string `json:"snapshot"`
}

// PatternPageResponse is one page of installment or recurring groups. Only the
// list matching the requested type is present.
type PatternPageResponse struct {
	Installments *[]domain.InstallmentGroup `json:"installments,omitempty"`
	Recurring    *[]domain.RecurringGroup   `json:"recurring,omitempty"`
	Pagination   PaginationResponse         `json:"pagination"`
	Summary      any                        `json:"summary"`
}

// ToPatternPageResponse converts a domain.PatternPage to its response DTO
func ToPatternPageResponse(page *domain.PatternPage) PatternPageResponse {
	resp := PatternPageResponse{
		Pagination: PaginationResponse{
			Total:    page.Pagination.Total,
			Limit:    page.Pagination.Limit,
			Offset:   page.Pagination.Offset,
			HasMore:  page.Pagination.HasMore,
			Snapshot: pagination.EncodeSnapshotToken(page.Pagination.Snapshot, page.Pagination.Version, page.Pagination.AsOf),
		},
	}
	switch page.Type {
	case domain.PatternInstallments:
		groups := page.Installments
		if groups == nil {
			groups = []domain.InstallmentGroup{}
		}
		resp.Installments = &groups
		resp.Summary = page.InstallmentSummary
	case domain.PatternRecurring:
		groups := page.Recurring
		if groups == nil {
			groups = []domain.RecurringGroup{}
		}
		resp.Recurring = &groups
		resp.Summary = page.RecurringSummary
	}
	return resp
}
