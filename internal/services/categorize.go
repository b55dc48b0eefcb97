package services

import "strings"

// Entry categories shown next to each summary.
const (
	CategoryDatabase   = "Database Error"
	CategoryTimeout    = "Timeout Error"
	CategoryCodeLogic  = "Code/Logic Error"
	CategoryPermission = "Permission Error"
	CategoryGeneral    = "General Error"
)

// Categorize buckets a log message by keyword. The first matching rule wins.
func Categorize(message string) string {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(message, "SQL") || strings.Contains(lower, "database"):
		return CategoryDatabase
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "timed out"):
		return CategoryTimeout
	case strings.Contains(lower, "undefined"):
		return CategoryCodeLogic
	case strings.Contains(lower, "permission"):
		return CategoryPermission
	default:
		return CategoryGeneral
	}
}
