package phase

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_RootShapes(t *testing.T) {
	tests := []struct {
		name        string
		payload     string
		wantPhases  int
		wantProject string
	}{
		{
			name:       "bare array",
			payload:    `[{"id":"p1","name":"Foundation"}]`,
			wantPhases: 1,
		},
		{
			name:       "analysis request",
			payload:    `{"phases":[{"id":"p1"},{"id":"p2"}]}`,
			wantPhases: 2,
		},
		{
			name:        "project document",
			payload:     `{"id":"proj-7","name":"Tower A","phases":[{"id":"p1"}]}`,
			wantPhases:  1,
			wantProject: "proj-7",
		},
		{
			name:       "empty array",
			payload:    `[]`,
			wantPhases: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Decode([]byte(tt.payload))
			require.NoError(t, err)
			assert.Len(t, doc.Phases, tt.wantPhases)
			assert.Equal(t, tt.wantProject, doc.ProjectID)
		})
	}
}

func TestDecode_InvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{name: "null root", payload: `null`},
		{name: "missing phases", payload: `{"name":"Tower A"}`},
		{name: "phases not an array", payload: `{"phases":"Foundation"}`},
		{name: "scalar root", payload: `42`},
		{name: "not json", payload: `{phases:`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.payload))
			require.Error(t, err)
			var invalid *InvalidInputError
			assert.True(t, errors.As(err, &invalid), "expected InvalidInputError, got %T", err)
		})
	}
}

func TestDecode_Fields(t *testing.T) {
	payload := `{"phases":[
		{"id":"f","name":"Foundation","status":"In Progress",
		 "startDate":"2026-01-01T00:00:00Z","endDate":"2026-02-01",
		 "dependencies":["x", ""]},
		{"id":"s","name":"Skeleton","status":"Completed",
		 "startDate":{"seconds":1767225600,"nanoseconds":0},
		 "endDate":1767312000000},
		{"id":"w","name":"Walls","status":"blocked","endDate":"next tuesday"},
		"garbage",
		{"name":"no id"}
	]}`

	doc, err := Decode([]byte(payload))
	require.NoError(t, err)
	require.Len(t, doc.Phases, 3)
	assert.Equal(t, 2, doc.Skipped)

	f := doc.Phases[0]
	assert.Equal(t, StatusInProgress, f.Status)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), f.StartDate)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), f.EndDate)
	assert.Equal(t, []string{"x"}, f.Dependencies)

	s := doc.Phases[1]
	assert.Equal(t, StatusCompleted, s.Status)
	assert.Equal(t, time.Unix(1767225600, 0).UTC(), s.StartDate)
	assert.Equal(t, time.UnixMilli(1767312000000).UTC(), s.EndDate)

	w := doc.Phases[2]
	assert.Equal(t, StatusPending, w.Status)
	assert.True(t, w.EndDate.IsZero())
	assert.Equal(t, []string{"w"}, doc.UnknownStatuses)
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in     string
		want   Status
		wantOK bool
	}{
		{"Pending", StatusPending, true},
		{"In Progress", StatusInProgress, true},
		{"InProgress", StatusInProgress, true},
		{"in_progress", StatusInProgress, true},
		{"COMPLETED", StatusCompleted, true},
		{"done", StatusCompleted, true},
		{"", StatusPending, false},
		{"on hold", StatusPending, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseStatus(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}
