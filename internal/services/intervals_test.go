package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexisSev/gwaste-application-sub000/internal/domain"
)

func TestGenerateIntervalsThreeAreasOverThreeHours(t *testing.T) {
	got, err := GenerateIntervals("07:00", "10:00", []string{"A", "B", "C"})
	require.NoError(t, err)
	require.Len(t, got, 3)

	want := []struct{ area, start, end string }{
		{"A", "07:00", "08:00"},
		{"B", "08:00", "09:00"},
		{"C", "09:00", "10:00"},
	}
	for i, w := range want {
		assert.Equal(t, w.area, got[i].Area)
		assert.Equal(t, w.start, got[i].StartTime)
		assert.Equal(t, w.end, got[i].EndTime)
		assert.Equal(t, i+1, got[i].Index)
	}
}

func TestGenerateIntervalsClampsSliceLength(t *testing.T) {
	cases := []struct {
		name       string
		start, end string
		areas      int
		wantLen    int
	}{
		{"short window floors to 60", "06:00", "07:30", 3, 60},
		{"long window caps at 90", "05:00", "15:00", 2, 90},
		{"in range keeps quotient", "08:00", "12:00", 3, 80},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			areas := make([]string, tc.areas)
			for i := range areas {
				areas[i] = string(rune('A' + i))
			}

			got, err := GenerateIntervals(tc.start, tc.end, areas)
			require.NoError(t, err)
			require.Len(t, got, tc.areas)
			assert.Equal(t, tc.wantLen, got[0].Minutes())
		})
	}
}

func TestGenerateIntervalsProperties(t *testing.T) {
	windows := []struct{ start, end string }{
		{"06:00", "09:00"}, {"07:00", "10:00"}, {"05:30", "11:45"}, {"13:00", "14:10"}, {"00:00", "23:59"},
	}

	for _, w := range windows {
		startMin, _ := parseClock(w.start)
		endMin, _ := parseClock(w.end)

		for n := 1; n <= 6; n++ {
			areas := make([]string, n)
			for i := range areas {
				areas[i] = string(rune('A' + i))
			}

			got, err := GenerateIntervals(w.start, w.end, areas)
			require.NoError(t, err)
			require.Len(t, got, n)

			assert.Equal(t, w.start, got[0].StartTime, "first slice starts at window start")
			for i, iv := range got {
				assert.Equal(t, areas[i], iv.Area, "order follows input")
				assert.LessOrEqual(t, iv.endMin, endMin, "never past window end")
				if i > 0 {
					assert.Equal(t, got[i-1].EndTime, iv.StartTime, "no gap between slices")
				}
				full := iv.startMin+MinSliceMinutes <= endMin
				if i < n-1 && full {
					assert.GreaterOrEqual(t, iv.Minutes(), MinSliceMinutes)
					assert.LessOrEqual(t, iv.Minutes(), MaxSliceMinutes)
				}
			}
			assert.GreaterOrEqual(t, got[n-1].startMin, startMin)
		}
	}
}

func TestGenerateIntervalsDegradesToEmpty(t *testing.T) {
	got, err := GenerateIntervals("07:00", "10:00", nil)
	assert.NoError(t, err)
	assert.Empty(t, got)

	got, err = GenerateIntervals("", "10:00", []string{"A"})
	assert.NoError(t, err)
	assert.Empty(t, got)

	got, err = GenerateIntervals("10:00", "07:00", []string{"A"})
	assert.NoError(t, err)
	assert.Empty(t, got)

	got, err = GenerateIntervals("7am", "10:00", []string{"A"})
	assert.True(t, errors.Is(err, ErrParse))
	assert.Empty(t, got)

	_, err = GenerateIntervals("07:00", "25:00", []string{"A"})
	assert.True(t, errors.Is(err, ErrParse))
}

func TestBuildScheduleSortsAcrossRoutesAndFallsBack(t *testing.T) {
	routes := []domain.Route{
		{Driver: "c1", RouteNumber: "2", Areas: []string{"D", "E"}, Time: "08:30", EndTime: "11:00", Type: "residual"},
		{Driver: "c1", RouteNumber: "1", Areas: []string{"A", "B", "C"}, Time: "07:00", EndTime: "10:00", Type: "biodegradable"},
		{Driver: "c1", RouteNumber: "3", Areas: []string{"F"}, Time: "bad", EndTime: "12:00"},
	}

	got := BuildSchedule(routes)
	require.Len(t, got, 6)

	order := make([]string, 0, len(got))
	for _, e := range got {
		order = append(order, e.Location)
	}
	assert.Equal(t, []string{"A", "B", "D", "C", "E", "F"}, order)

	assert.Equal(t, "1", got[0].RouteNumber)
	assert.Equal(t, 1, got[0].AreaIndex)
	assert.Equal(t, "biodegradable", got[0].Type)

	// Unsliceable route keeps the undivided window.
	assert.Equal(t, "bad", got[5].Time)
	assert.Equal(t, "12:00", got[5].EndTime)
	assert.Equal(t, 1, got[5].AreaIndex)
}
