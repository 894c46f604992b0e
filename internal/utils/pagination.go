// Package utils provides small, generic helper functions used across
// different layers of the application. These utilities are independent
// of domain or business logic.
package utils

import "strconv"

// AtoiDefault converts a string to an int using strconv.Atoi. If the string
// is empty or cannot be parsed as an integer, it returns the provided
// default value instead.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// PageParams parses page/page_size query values with defaults and bounds:
// page is at least 1, pageSize falls back to defSize and is capped at
// maxSize. A maxSize <= 0 disables the cap.
func PageParams(pageStr, sizeStr string, defSize, maxSize int) (page, pageSize int) {
	page = AtoiDefault(pageStr, 1)
	if page < 1 {
		page = 1
	}
	pageSize = AtoiDefault(sizeStr, defSize)
	if pageSize <= 0 {
		pageSize = defSize
	}
	if maxSize > 0 && pageSize > maxSize {
		pageSize = maxSize
	}
	return page, pageSize
}
