package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		query  string
		g      Granularity
		date   *time.Time
		hasDay bool
	}{
		{"taxa de rejeição mensal", Monthly, nil, false},
		{"rejeição semanal", Weekly, nil, false},
		{"falhas de hoje", Daily, nil, false},
		{"taxa anual", Yearly, nil, false},
		{"como estamos?", Overall, nil, false},
		{"falhas em 15/03/2024", Overall, ptr(day(2024, 3, 15)), true},
		{"falhas em 5-4-23 por dia", Daily, ptr(day(2023, 4, 5)), true},
		{"rejeição de março", Overall, ptr(day(2024, 3, 1)), false},
		{"falhas em 31/02/2024", Overall, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			p := ParsePeriod(tt.query, fixedNow)
			assert.Equal(t, tt.g, p.Granularity)
			assert.Equal(t, tt.hasDay, p.HasDay)
			if tt.date == nil {
				assert.Nil(t, p.Date)
				return
			}
			require.NotNil(t, p.Date)
			assert.True(t, tt.date.Equal(*p.Date), "got %s", p.Date)
		})
	}
}

func TestBucketKey_WeekRunsMondayToSunday(t *testing.T) {
	assert.Equal(t, "2024-03-11/2024-03-17", bucketKey(day(2024, 3, 13), Weekly))
	assert.Equal(t, "2024-03-11/2024-03-17", bucketKey(day(2024, 3, 17), Weekly))
	assert.Equal(t, "2024-03-18/2024-03-24", bucketKey(day(2024, 3, 18), Weekly))
}
