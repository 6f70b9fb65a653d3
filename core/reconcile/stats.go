package reconcile

import "math"

// ComputeStatistics derives the statistics of a set of items.
// It has no side effects and may be called at any time.
func ComputeStatistics(items []*Item) Statistics {
	stats := Statistics{Total: len(items)}

	for _, item := range items {
		switch item.State {
		case StateScanned:
			stats.Scanned++
		case StateDuplicate:
			stats.Duplicates++
		case StatePending:
			stats.Pending++
		}
	}

	stats.ScannedPercentage = scannedPercentage(stats.Scanned, stats.Total)
	return stats
}

func scannedPercentage(scanned, total int) float64 {
	if total == 0 {
		return 0.0
	}
	return math.Round(float64(scanned)/float64(total)*100*100) / 100
}
