package persistence

import (
	"strings"

	"github.com/bizconsult/crm/internal/domain/shared"
)

// customerSortColumns maps the sort keys accepted from clients to columns.
// Anything not listed falls back to the default, so OrderBy never reaches SQL.
var customerSortColumns = map[string]string{
	"created_at":       "created_at",
	"updated_at":       "updated_at",
	"name":             "name",
	"company_name":     "company_name",
	"status":           "status_code",
	"manager_name":     "manager_name",
	"credit_score":     "credit_score",
	"desired_amount":   "desired_amount",
	"contract_date":    "contract_date",
	"contract_amount":  "contract_amount",
	"execution_date":   "execution_date",
	"execution_amount": "execution_amount",
}

// orderClause builds "<column> ASC|DESC" from a filter, defaulting to
// defaultColumn DESC
func orderClause(filter shared.Filter, columns map[string]string, defaultColumn string) string {
	column, ok := columns[strings.TrimSpace(filter.OrderBy)]
	if !ok {
		column = defaultColumn
	}
	if strings.EqualFold(strings.TrimSpace(filter.OrderDir), "asc") {
		return column + " ASC"
	}
	return column + " DESC"
}
