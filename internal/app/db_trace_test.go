package app

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatDBQueryForTrace(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{name: "empty", query: "   ", want: ""},
		{name: "collapses whitespace", query: "SELECT *\n\tFROM tour_dates\n  WHERE season = ?", want: "SELECT * FROM tour_dates WHERE season = ?"},
		{
			name:  "folds batch values",
			query: "INSERT INTO tour_dates (a, b) VALUES (?, ?), (?, ?),\n (?, ?) ON CONFLICT DO NOTHING",
			want:  "INSERT INTO tour_dates (a, b) VALUES (?, ?), ... ON CONFLICT DO NOTHING",
		},
		{name: "single group untouched", query: "INSERT INTO t (a) VALUES (?)", want: "INSERT INTO t (a) VALUES (?)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatDBQueryForTrace(tt.query))
		})
	}
}

func TestFormatDBQueryForTrace_Truncates(t *testing.T) {
	query := "SELECT " + strings.Repeat("x", 600)

	got := formatDBQueryForTrace(query)

	assert.Len(t, got, maxTracedQueryLength+3)
	assert.True(t, strings.HasSuffix(got, "..."))
}
