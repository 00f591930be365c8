package session

import "time"

// segment is a phase slot before it has been anchored to absolute time.
type segment struct {
	kind     PhaseKind
	interval int
	duration time.Duration
}

// segmentsFor expands a config into the fixed phase order: optional warmup,
// then Active(i), Recovery(i) for i in 1..TotalIntervals, then optional
// cooldown. A disabled or zero-duration warmup/cooldown is omitted entirely;
// zero-duration Active/Recovery phases are kept so their side effects
// (counters, cues) still fire in order.
func segmentsFor(cfg PhaseConfig) []segment {
	segs := make([]segment, 0, 2*cfg.TotalIntervals+2)
	if d := cfg.warmup(); d > 0 {
		segs = append(segs, segment{kind: PhaseWarmup, duration: d})
	}
	for i := 1; i <= cfg.TotalIntervals; i++ {
		segs = append(segs, segment{kind: PhaseActive, interval: i, duration: cfg.ActiveDuration})
		segs = append(segs, segment{kind: PhaseRecovery, interval: i, duration: cfg.RecoveryDuration})
	}
	if d := cfg.cooldown(); d > 0 {
		segs = append(segs, segment{kind: PhaseCooldown, duration: d})
	}
	return segs
}

// layoutSegments anchors segments to absolute time starting at startAt.
// The resulting phases are contiguous: each phase starts exactly where the
// previous one ends. Both the initial build and the skip rebuild go through
// this single function, so the two paths cannot diverge.
func layoutSegments(startAt time.Time, segs []segment) Schedule {
	schedule := make(Schedule, 0, len(segs))
	current := startAt
	for _, seg := range segs {
		end := current.Add(seg.duration)
		schedule = append(schedule, ScheduledPhase{
			Kind:     seg.kind,
			Interval: seg.interval,
			StartAt:  current,
			EndAt:    end,
		})
		current = end
	}
	return schedule
}

// BuildSchedule produces the full absolute-time schedule for a session
// starting at startAt. Deterministic and side-effect free: the same inputs
// always produce the same schedule. An empty schedule (zero intervals, no
// warmup or cooldown) means the session is immediately complete; the caller
// must handle that.
func BuildSchedule(startAt time.Time, cfg PhaseConfig) Schedule {
	return layoutSegments(startAt, segmentsFor(cfg))
}
