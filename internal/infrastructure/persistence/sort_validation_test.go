package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string returns DESC", "", "DESC"},
		{"ASC uppercase returns ASC", "ASC", "ASC"},
		{"asc lowercase returns ASC", "asc", "ASC"},
		{"DESC uppercase returns DESC", "DESC", "DESC"},
		{"invalid value returns DESC", "INVALID", "DESC"},
		{"sql injection attempt returns DESC", "ASC; DROP TABLE return_requests;--", "DESC"},
		{"whitespace around ASC returns ASC", "  asc  ", "ASC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateSortOrder(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestValidateSortField(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		defaultField string
		expected     string
	}{
		{"empty string returns default", "", "created_at", "created_at"},
		{"valid field returns field", "requested_at", "created_at", "requested_at"},
		{"code is sortable", "code", "created_at", "code"},
		{"invalid field returns default", "approval_note", "created_at", "created_at"},
		{"sql injection attempt returns default", "code; DROP TABLE return_requests;--", "created_at", "created_at"},
		{"case sensitive - uppercase invalid", "CODE", "created_at", "created_at"},
		{"whitespace around valid field returns field", "  status  ", "created_at", "status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateSortField(tt.input, ReturnSortFields, tt.defaultField)
			assert.Equal(t, tt.expected, result)
		})
	}
}
