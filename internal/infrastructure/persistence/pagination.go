package persistence

import (
	"strings"

	"github.com/erp/procurement/internal/domain/shared"
	"gorm.io/gorm"
)

// sortColumns whitelists the columns a list query may be ordered by.
// Column names reach SQL verbatim, so nothing outside the set is accepted.
type sortColumns map[string]bool

func newSortColumns(columns ...string) sortColumns {
	s := sortColumns{"id": true, "created_at": true, "updated_at": true}
	for _, c := range columns {
		s[c] = true
	}
	return s
}

var (
	workflowSort    = newSortColumns("name", "document_type", "priority")
	requisitionSort = newSortColumns("requisition_number", "title", "department", "status", "total_amount", "required_by", "submitted_at")
	orderSort       = newSortColumns("order_number", "supplier_name", "status", "total_amount", "grand_total", "expected_delivery_date")
	inventorySort   = newSortColumns("quantity", "available_quantity", "reserved_quantity", "unit_cost", "total_value", "reorder_level", "expiry_date")
	ledgerSort      = newSortColumns("occurred_at", "transaction_type", "quantity")
)

// column returns requested when whitelisted, fallback otherwise
func (s sortColumns) column(requested, fallback string) string {
	if c := strings.TrimSpace(requested); s[c] {
		return c
	}
	return fallback
}

// sortDirection accepts asc in any case; everything else sorts descending
func sortDirection(dir string) string {
	if strings.EqualFold(strings.TrimSpace(dir), "asc") {
		return "ASC"
	}
	return "DESC"
}

// paginate orders the query, breaks ties on id so pages are stable and
// applies the filter's offset and limit
func (s sortColumns) paginate(query *gorm.DB, filter shared.Filter, fallback string) *gorm.DB {
	column := s.column(filter.OrderBy, fallback)
	query = query.Order(column + " " + sortDirection(filter.OrderDir))
	if column != "id" {
		query = query.Order("id ASC")
	}
	return query.Offset(filter.Offset()).Limit(filter.Limit())
}

// likePattern builds a lower-cased LIKE pattern for a search term
func likePattern(search string) string {
	return "%" + strings.ToLower(strings.TrimSpace(search)) + "%"
}
