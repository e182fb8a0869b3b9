package services

import "sort"

type StageStatus string

const (
	StageLocked    StageStatus = "locked"
	StageCurrent   StageStatus = "current"
	StageCompleted StageStatus = "completed"
)

// DeriveStageStates applies sequential unlocking: stages before the first
// gap in completed are completed, the gap is current, and everything after
// it is locked even when recorded as completed.
func DeriveStageStates(total int, completed []int) []StageStatus {
	done := make(map[int]bool, len(completed))
	for _, i := range completed {
		done[i] = true
	}

	states := make([]StageStatus, total)
	gapSeen := false
	for i := 0; i < total; i++ {
		switch {
		case gapSeen:
			states[i] = StageLocked
		case done[i]:
			states[i] = StageCompleted
		default:
			states[i] = StageCurrent
			gapSeen = true
		}
	}
	return states
}

// mergeStages returns the sorted union of base and extra without duplicates.
func mergeStages(base []int, extra ...int) []int {
	seen := make(map[int]bool, len(base)+len(extra))
	out := make([]int, 0, len(base)+len(extra))
	for _, list := range [][]int{base, extra} {
		for _, i := range list {
			if !seen[i] {
				seen[i] = true
				out = append(out, i)
			}
		}
	}
	sort.Ints(out)
	return out
}

// newlyCompleted lists indices in after that are missing from before.
func newlyCompleted(before, after []int) []int {
	had := make(map[int]bool, len(before))
	for _, i := range before {
		had[i] = true
	}
	var out []int
	for _, i := range after {
		if !had[i] {
			out = append(out, i)
		}
	}
	return out
}
