package returns

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wms/backend/internal/domain/returns"
)

// DefaultTopMaterials is the top-N size used when the caller does not ask
// for a specific one.
const DefaultTopMaterials = 5

// SummaryService aggregates return activity over a date range
type SummaryService struct {
	returnRepo returns.ReturnRepository
}

// NewSummaryService creates a new SummaryService
func NewSummaryService(returnRepo returns.ReturnRepository) *SummaryService {
	return &SummaryService{returnRepo: returnRepo}
}

// Summarize computes counts by category and status, the total returned value
// and the most-returned materials for returns requested in [from, to]. Nil
// bounds are open ends. The ranking flattens every line of every included
// request, whatever the line's processing outcome.
func (s *SummaryService) Summarize(ctx context.Context, from, to *time.Time, topN int) (*SummaryResponse, error) {
	if topN <= 0 {
		topN = DefaultTopMaterials
	}

	requests, err := s.returnRepo.FindInRange(ctx, from, to)
	if err != nil {
		return nil, err
	}

	summary := &SummaryResponse{
		From:       from,
		To:         to,
		TotalCount: len(requests),
		TotalValue: decimal.Zero,
		ByCategory: map[string]int{
			string(returns.CategoryCustomer): 0,
			string(returns.CategorySupplier): 0,
			string(returns.CategoryInternal): 0,
		},
		ByStatus: map[string]int{
			string(returns.ReturnStatusPending):   0,
			string(returns.ReturnStatusApproved):  0,
			string(returns.ReturnStatusRejected):  0,
			string(returns.ReturnStatusProcessed): 0,
		},
		TopMaterials: []MaterialTotalResponse{},
	}

	totals := make(map[uuid.UUID]*MaterialTotalResponse)
	for i := range requests {
		r := &requests[i]
		summary.ByCategory[string(r.Category)]++
		summary.ByStatus[string(r.Status)]++
		summary.TotalValue = summary.TotalValue.Add(r.TotalValue)

		for j := range r.Lines {
			line := &r.Lines[j]
			t, ok := totals[line.MaterialID]
			if !ok {
				t = &MaterialTotalResponse{
					MaterialID:    line.MaterialID,
					MaterialCode:  line.MaterialCode,
					MaterialName:  line.MaterialName,
					TotalQuantity: decimal.Zero,
					TotalValue:    decimal.Zero,
				}
				totals[line.MaterialID] = t
			}
			t.TotalQuantity = t.TotalQuantity.Add(line.Quantity)
			t.TotalValue = t.TotalValue.Add(line.Subtotal)
		}
	}

	ranked := make([]MaterialTotalResponse, 0, len(totals))
	for _, t := range totals {
		ranked = append(ranked, *t)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if !ranked[i].TotalQuantity.Equal(ranked[j].TotalQuantity) {
			return ranked[i].TotalQuantity.GreaterThan(ranked[j].TotalQuantity)
		}
		if !ranked[i].TotalValue.Equal(ranked[j].TotalValue) {
			return ranked[i].TotalValue.GreaterThan(ranked[j].TotalValue)
		}
		return ranked[i].MaterialCode < ranked[j].MaterialCode
	})
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	summary.TopMaterials = ranked

	return summary, nil
}
