package queue

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func strptr(s string) *string { return &s }

func entryAt(name string, tag *string, offset time.Duration) Entry {
	base := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	return Entry{
		ID:          uuid.New(),
		PatientName: name,
		PriorityTag: tag,
		CheckInTime: base.Add(offset),
	}
}

func TestSortEntries(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
		want    []string
	}{
		{
			name: "fifo when no tags",
			entries: []Entry{
				entryAt("B", nil, 2*time.Minute),
				entryAt("A", nil, 1*time.Minute),
			},
			want: []string{"A", "B"},
		},
		{
			name: "emergency preempts arrival order",
			entries: []Entry{
				entryAt("A", nil, 1*time.Minute),
				entryAt("B", strptr(PriorityEmergency), 2*time.Minute),
			},
			want: []string{"B", "A"},
		},
		{
			name: "emergency above preferred above normal",
			entries: []Entry{
				entryAt("N", nil, 1*time.Minute),
				entryAt("P", strptr(PriorityPreferred), 2*time.Minute),
				entryAt("E", strptr(PriorityEmergency), 3*time.Minute),
			},
			want: []string{"E", "P", "N"},
		},
		{
			name: "fifo within same tag",
			entries: []Entry{
				entryAt("P2", strptr(PriorityPreferred), 2*time.Minute),
				entryAt("P1", strptr(PriorityPreferred), 1*time.Minute),
			},
			want: []string{"P1", "P2"},
		},
		{
			name: "unknown tag sorts as normal",
			entries: []Entry{
				entryAt("X", strptr("VIP"), 2*time.Minute),
				entryAt("A", nil, 1*time.Minute),
			},
			want: []string{"A", "X"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			SortEntries(tt.entries)
			for i, want := range tt.want {
				if tt.entries[i].PatientName != want {
					t.Errorf("position %d = %s, want %s", i, tt.entries[i].PatientName, want)
				}
			}
		})
	}
}
