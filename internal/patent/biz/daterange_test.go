package biz

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClampDateRange(t *testing.T) {
	now := time.Date(2024, 6, 15, 13, 45, 0, 0, time.UTC)

	tests := []struct {
		name     string
		from, to string
		wantFrom string
		wantTo   string
	}{
		{
			name: "valid range unchanged",
			from: "2020-01-01", to: "2021-01-01",
			wantFrom: "2020-01-01", wantTo: "2021-01-01",
		},
		{
			name: "both in the future clamp to today",
			from: "2030-01-01", to: "2031-01-01",
			wantFrom: "2024-06-15", wantTo: "2024-06-15",
		},
		{
			name: "end in the future",
			from: "2023-01-01", to: "2099-12-31",
			wantFrom: "2023-01-01", wantTo: "2024-06-15",
		},
		{
			name: "ten year span keeps last five",
			from: "2010-01-01", to: "2020-01-01",
			wantFrom: "2015-01-02", wantTo: "2020-01-01",
		},
		{
			name: "reversed pair is swapped",
			from: "2022-05-01", to: "2021-05-01",
			wantFrom: "2021-05-01", wantTo: "2022-05-01",
		},
		{
			name: "reversed and too wide",
			from: "2020-01-01", to: "2000-01-01",
			wantFrom: "2015-01-02", wantTo: "2020-01-01",
		},
		{
			name: "exactly five years",
			from: "2015-01-02", to: "2020-01-01",
			wantFrom: "2015-01-02", wantTo: "2020-01-01",
		},
		{
			name: "unparseable input unchanged",
			from: "01/01/2020", to: "2021-01-01",
			wantFrom: "01/01/2020", wantTo: "2021-01-01",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to := ClampDateRange(tt.from, tt.to, now, nil)
			assert.Equal(t, tt.wantFrom, from)
			assert.Equal(t, tt.wantTo, to)
		})
	}
}

func TestClampDateRange_AlwaysOrderedAndNotFuture(t *testing.T) {
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	dates := []string{"1990-03-04", "2010-12-31", "2024-06-15", "2024-06-16", "2035-01-01"}

	for _, a := range dates {
		for _, b := range dates {
			from, to := ClampDateRange(a, b, now, nil)
			f, _ := time.Parse(dateLayout, from)
			tt, _ := time.Parse(dateLayout, to)
			assert.False(t, f.After(tt), "%s..%s gave %s..%s", a, b, from, to)
			assert.False(t, tt.After(now), "%s..%s gave %s..%s", a, b, from, to)
			assert.LessOrEqual(t, tt.Sub(f), time.Duration(maxDateSpan)*24*time.Hour)
		}
	}
}
