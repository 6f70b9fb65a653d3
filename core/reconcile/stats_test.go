package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeStatistics(t *testing.T) {
	tests := []struct {
		name   string
		states []State
		want   Statistics
	}{
		{
			name:   "Empty",
			states: nil,
			want:   Statistics{},
		},
		{
			name:   "All pending",
			states: []State{StatePending, StatePending},
			want:   Statistics{Total: 2, Pending: 2},
		},
		{
			name:   "Mixed",
			states: []State{StatePending, StateScanned, StateDuplicate},
			want:   Statistics{Total: 3, Scanned: 1, Duplicates: 1, Pending: 1, ScannedPercentage: 33.33},
		},
		{
			name:   "Two thirds",
			states: []State{StateScanned, StateScanned, StatePending},
			want:   Statistics{Total: 3, Scanned: 2, Pending: 1, ScannedPercentage: 66.67},
		},
		{
			name:   "Complete",
			states: []State{StateScanned, StateScanned},
			want:   Statistics{Total: 2, Scanned: 2, ScannedPercentage: 100},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := make([]*Item, 0, len(tt.states))
			for _, st := range tt.states {
				items = append(items, &Item{Code: "x", State: st})
			}
			assert.Equal(t, tt.want, ComputeStatistics(items))
		})
	}
}

// TestComputeStatistics_MatchesSession tests that the session's inline statistics agree with a fresh computation.
func TestComputeStatistics_MatchesSession(t *testing.T) {
	sess := newTestSession(t, "0000000000001", "0000000000002", "0000000000003", "0000000000004")
	scans := []string{"0000000000001", "0000000000002", "0000000000002", "0000000000009", "0000000000004"}

	for _, raw := range scans {
		sess.ProcessScan(raw)
		items := sess.Items()
		ptrs := make([]*Item, len(items))
		for i := range items {
			ptrs[i] = &items[i]
		}
		assert.Equal(t, ComputeStatistics(ptrs), sess.Statistics())
	}
}
