package postgres

import (
	"strings"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/lms-service/internal/repositories"
)

// Allowed sort columns per table
var (
	accountSortColumns = map[string]bool{
		"created_at":    true,
		"email":         true,
		"display_name":  true,
		"role":          true,
		"last_login_at": true,
	}
	courseSortColumns = map[string]bool{
		"created_at": true,
		"updated_at": true,
		"title":      true,
		"price":      true,
		"category":   true,
		"status":     true,
	}
	enrollmentSortColumns = map[string]bool{
		"enrolled_at":      true,
		"progress":         true,
		"last_accessed_at": true,
	}
	inboxSortColumns = map[string]bool{
		"created_at": true,
		"updated_at": true,
		"status":     true,
		"rating":     true,
		"email":      true,
		"title":      true,
	}
)

// ApplyPaginationAndSort applies pagination and sorting with SQL injection protection
func ApplyPaginationAndSort(query *gorm.DB, sortBy, sortOrder string, limit, offset int, allowed map[string]bool, defaultSort string) *gorm.DB {
	if sortBy == "" || !allowed[sortBy] {
		sortBy = defaultSort
	}

	if strings.EqualFold(sortOrder, "asc") {
		sortOrder = "ASC"
	} else {
		sortOrder = "DESC"
	}

	query = query.Order(sortBy + " " + sortOrder)

	if limit <= 0 {
		limit = 10
	}
	if limit > repositories.MaxExportRows {
		limit = repositories.MaxExportRows
	}
	if offset < 0 {
		offset = 0
	}

	return query.Limit(limit).Offset(offset)
}

// likePattern escapes LIKE wildcards in user input
func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(q)) + "%"
}
