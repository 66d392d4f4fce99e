package common

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

func ParseDateRequired(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("date is required")
	}
	return time.Parse(DateLayout, value)
}

func ParseCSV(value string) []string {
	parts := strings.Split(value, ",")
	seen := make(map[string]struct{}, len(parts))
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		result = append(result, item)
	}
	return result
}

func ParseIntParam(value string, fallback int) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return 0, fmt.Errorf("invalid int")
	}
	return parsed, nil
}

func ParseBoolParam(value string) (*bool, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// Page reads limit and offset from query values.
func Page(limitValue, offsetValue string, fallback int) (limit, offset int, err error) {
	limit, err = ParseIntParam(limitValue, fallback)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid limit")
	}
	offset, err = ParseIntParam(offsetValue, 0)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid offset")
	}
	return limit, offset, nil
}

// UniqueIDs trims, drops empties and deduplicates ids, keeping order.
func UniqueIDs(ids []string) []string {
	return ParseCSV(strings.Join(ids, ","))
}
