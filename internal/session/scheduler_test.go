package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startedScheduler(t *testing.T, cfg PhaseConfig) *PhaseScheduler {
	t.Helper()
	s := NewPhaseScheduler(testLogger())
	_, err := s.Start(t0, cfg)
	require.NoError(t, err)
	return s
}

func TestStart_ReturnsFirstPhase(t *testing.T) {
	s := NewPhaseScheduler(testLogger())
	first, err := s.Start(t0, scenarioConfig())
	require.NoError(t, err)

	assert.Equal(t, PhaseActive, first.Kind)
	assert.Equal(t, 1, first.Interval)
	assert.True(t, first.StartAt.Equal(t0))
	assert.Equal(t, StatusRunning, s.Status())
}

func TestStart_RequiresIdle(t *testing.T) {
	s := startedScheduler(t, scenarioConfig())
	_, err := s.Start(t0, scenarioConfig())
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StatusRunning, s.Status())
}

func TestStart_RejectsInvalidConfig(t *testing.T) {
	s := NewPhaseScheduler(testLogger())
	cfg := scenarioConfig()
	cfg.TotalIntervals = -3
	_, err := s.Start(t0, cfg)
	require.Error(t, err)
	assert.Equal(t, StatusIdle, s.Status())
}

func TestStart_EmptyScheduleFinishesImmediately(t *testing.T) {
	s := NewPhaseScheduler(testLogger())
	first, err := s.Start(t0, PhaseConfig{})
	require.NoError(t, err)

	assert.Equal(t, PhaseCompleted, first.Kind)
	assert.Equal(t, StatusFinishing, s.Status())
}

func TestTick_NoAdvanceBeforeBoundary(t *testing.T) {
	s := startedScheduler(t, scenarioConfig())

	res := s.Tick(t0.Add(179 * time.Second))
	assert.False(t, res.Advanced())
	assert.Equal(t, 0, s.CurrentIndex())
}

func TestTick_AdvancesExactlyAtBoundary(t *testing.T) {
	s := startedScheduler(t, scenarioConfig())

	res := s.Tick(t0.Add(180 * time.Second))
	require.Len(t, res.Transitions, 1)
	assert.Equal(t, PhaseRecovery, res.Transitions[0].Kind)
	assert.Equal(t, 1, res.Transitions[0].Interval)
	assert.Equal(t, 1, s.CurrentIndex())
}

func TestTick_NotRunningIsNoop(t *testing.T) {
	s := startedScheduler(t, scenarioConfig())
	require.NoError(t, s.Pause(t0.Add(time.Second)))

	res := s.Tick(t0.Add(time.Hour))
	assert.False(t, res.Advanced())
	assert.Equal(t, 0, s.CurrentIndex())
}

func TestTick_BackwardsClockNeverRetreats(t *testing.T) {
	s := startedScheduler(t, scenarioConfig())
	s.Tick(t0.Add(180 * time.Second))
	require.Equal(t, 1, s.CurrentIndex())

	// Clock skew: now is before the current phase even started.
	res := s.Tick(t0.Add(-time.Minute))
	assert.False(t, res.Advanced())
	assert.Equal(t, 1, s.CurrentIndex())
}

func TestTick_CatchUpEmitsEveryMissedPhase(t *testing.T) {
	s := startedScheduler(t, scenarioConfig())

	// Suspend across 3 boundaries: now is 100s into Recovery(2).
	now := t0.Add(3*180*time.Second + 100*time.Second)

	var transitions []ScheduledPhase
	for {
		res := s.Tick(now)
		transitions = append(transitions, res.Transitions...)
		if !res.Advanced() {
			break
		}
	}

	require.Len(t, transitions, 3)
	assert.Equal(t, "Recovery 1", transitions[0].Label())
	assert.Equal(t, "Active 2", transitions[1].Label())
	assert.Equal(t, "Recovery 2", transitions[2].Label())

	// Stable: another tick does nothing.
	assert.False(t, s.Tick(now).Advanced())
}

func TestTick_AtMostOnePositivePhasePerCall(t *testing.T) {
	s := startedScheduler(t, scenarioConfig())

	now := t0.Add(1000 * time.Second)
	res := s.Tick(now)
	assert.Len(t, res.Transitions, 1)
	assert.Equal(t, 1, s.CurrentIndex())
}

func TestTick_ZeroDurationPhasesChainedInOneCall(t *testing.T) {
	cfg := PhaseConfig{ActiveDuration: time.Minute, RecoveryDuration: 0, TotalIntervals: 2}
	s := startedScheduler(t, cfg)

	// Crossing Active(1)'s boundary must also pass through the zero-length
	// Recovery(1), each with its own transition.
	res := s.Tick(t0.Add(time.Minute))
	require.Len(t, res.Transitions, 2)
	assert.Equal(t, "Recovery 1", res.Transitions[0].Label())
	assert.Equal(t, "Active 2", res.Transitions[1].Label())
}

func TestTick_CompletesAfterFinalPhase(t *testing.T) {
	cfg := PhaseConfig{ActiveDuration: time.Minute, RecoveryDuration: time.Minute, TotalIntervals: 1}
	s := startedScheduler(t, cfg)

	require.True(t, s.Tick(t0.Add(time.Minute)).Advanced())
	res := s.Tick(t0.Add(2 * time.Minute))
	assert.True(t, res.Completed)
	assert.Empty(t, res.Transitions)
	assert.Equal(t, StatusFinishing, s.Status())
}

func TestPauseResume_ShiftsRemainingPhases(t *testing.T) {
	s := startedScheduler(t, scenarioConfig())

	// Pause 60s into Active(1), resume 30s later.
	require.NoError(t, s.Pause(t0.Add(60*time.Second)))
	assert.Equal(t, StatusPaused, s.Status())

	resumed, err := s.Resume(t0.Add(90 * time.Second))
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, s.Status())

	// Active(1) now ends at T0+210; every later phase shifted by +30s.
	assert.True(t, resumed.EndAt.Equal(t0.Add(210*time.Second)))
	schedule := s.Schedule()
	assert.True(t, schedule[1].StartAt.Equal(t0.Add(210*time.Second)))
	assert.True(t, schedule.EndAt().Equal(t0.Add(1830*time.Second)))
	assertContiguous(t, schedule)
	assert.Equal(t, 30*time.Second, s.AccumulatedPause())
}

func TestPauseResume_EarlierPhasesUntouched(t *testing.T) {
	s := startedScheduler(t, scenarioConfig())
	s.Tick(t0.Add(180 * time.Second)) // into Recovery(1)

	require.NoError(t, s.Pause(t0.Add(200*time.Second)))
	_, err := s.Resume(t0.Add(260 * time.Second))
	require.NoError(t, err)

	schedule := s.Schedule()
	// Completed Active(1) keeps its original instants.
	assert.True(t, schedule[0].EndAt.Equal(t0.Add(180*time.Second)))
	// Current and later phases shifted by 60s.
	assert.True(t, schedule[1].EndAt.Equal(t0.Add(420*time.Second)))
}

func TestPauseResume_RepeatedCyclesPreserveTotalDuration(t *testing.T) {
	s := startedScheduler(t, scenarioConfig())
	total := s.Schedule().TotalDuration()

	now := t0.Add(30 * time.Second)
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Pause(now))
		now = now.Add(time.Duration(i+1) * 17 * time.Second)
		_, err := s.Resume(now)
		require.NoError(t, err)
		now = now.Add(3 * time.Second)
	}

	// Pause time shifts the schedule; phase durations never shrink or grow.
	assert.Equal(t, total, s.Schedule().TotalDuration())
	assertContiguous(t, s.Schedule())
}

func TestPause_WrongStateRejected(t *testing.T) {
	s := startedScheduler(t, scenarioConfig())
	require.NoError(t, s.Pause(t0.Add(time.Second)))

	err := s.Pause(t0.Add(2 * time.Second))
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StatusPaused, s.Status())
}

func TestResume_WrongStateRejected(t *testing.T) {
	s := startedScheduler(t, scenarioConfig())
	_, err := s.Resume(t0.Add(time.Second))
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StatusRunning, s.Status())
}

func TestResume_BackwardsClockTreatedAsInstantResume(t *testing.T) {
	s := startedScheduler(t, scenarioConfig())
	require.NoError(t, s.Pause(t0.Add(60*time.Second)))

	resumed, err := s.Resume(t0.Add(50 * time.Second))
	require.NoError(t, err)
	assert.True(t, resumed.EndAt.Equal(t0.Add(180*time.Second)))
	assert.Equal(t, time.Duration(0), s.AccumulatedPause())
}

func TestSkip_NextPhaseGetsFullDuration(t *testing.T) {
	s := startedScheduler(t, scenarioConfig())

	// Skip 60s into Active(1): Recovery(1) must run [T0+60, T0+240), its
	// full 180s, with no leftover from the skipped phase.
	next, completed, err := s.Skip(t0.Add(60 * time.Second))
	require.NoError(t, err)
	assert.False(t, completed)

	assert.Equal(t, "Recovery 1", next.Label())
	assert.True(t, next.StartAt.Equal(t0.Add(60*time.Second)))
	assert.True(t, next.EndAt.Equal(t0.Add(240*time.Second)))
	assert.Equal(t, 180*time.Second, s.TimeRemainingInPhase(t0.Add(60*time.Second)))
	assertContiguous(t, s.Schedule())
}

func TestSkip_FromWarmupEntersFirstActive(t *testing.T) {
	s := startedScheduler(t, fullConfig())

	next, completed, err := s.Skip(t0.Add(30 * time.Second))
	require.NoError(t, err)
	assert.False(t, completed)
	assert.Equal(t, PhaseActive, next.Kind)
	assert.Equal(t, 1, next.Interval)
	assert.True(t, next.StartAt.Equal(t0.Add(30*time.Second)))
}

func TestSkip_LastPhaseCompletes(t *testing.T) {
	cfg := PhaseConfig{ActiveDuration: time.Minute, RecoveryDuration: time.Minute, TotalIntervals: 1}
	s := startedScheduler(t, cfg)
	s.Tick(t0.Add(time.Minute)) // into Recovery(1), the final phase

	_, completed, err := s.Skip(t0.Add(90 * time.Second))
	require.NoError(t, err)
	assert.True(t, completed)
	assert.Equal(t, StatusFinishing, s.Status())
}

func TestSkip_WrongStateRejected(t *testing.T) {
	s := startedScheduler(t, scenarioConfig())
	require.NoError(t, s.Pause(t0.Add(time.Second)))

	_, _, err := s.Skip(t0.Add(2 * time.Second))
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSkip_RemainingKindsPreserved(t *testing.T) {
	s := startedScheduler(t, fullConfig())
	originalKinds := make([]string, 0)
	for _, p := range s.Schedule()[1:] {
		originalKinds = append(originalKinds, p.Label())
	}

	_, _, err := s.Skip(t0.Add(time.Minute))
	require.NoError(t, err)

	rebuiltKinds := make([]string, 0)
	for _, p := range s.Schedule()[s.CurrentIndex():] {
		rebuiltKinds = append(rebuiltKinds, p.Label())
	}
	assert.Equal(t, originalKinds, rebuiltKinds)
}

func TestEnd_FromRunningAndPaused(t *testing.T) {
	s := startedScheduler(t, scenarioConfig())
	require.NoError(t, s.End())
	assert.Equal(t, StatusEnded, s.Status())
	assert.Equal(t, 0, s.PhaseCount())

	s2 := startedScheduler(t, scenarioConfig())
	require.NoError(t, s2.Pause(t0.Add(time.Second)))
	require.NoError(t, s2.End())
	assert.Equal(t, StatusEnded, s2.Status())
}

func TestEnd_WrongStateRejected(t *testing.T) {
	s := NewPhaseScheduler(testLogger())
	assert.ErrorIs(t, s.End(), ErrInvalidTransition)

	s2 := startedScheduler(t, scenarioConfig())
	require.NoError(t, s2.End())
	assert.ErrorIs(t, s2.End(), ErrInvalidTransition)
}

func TestTimeRemainingInPhase(t *testing.T) {
	s := startedScheduler(t, scenarioConfig())

	assert.Equal(t, 180*time.Second, s.TimeRemainingInPhase(t0))
	assert.Equal(t, 120*time.Second, s.TimeRemainingInPhase(t0.Add(60*time.Second)))
	// Past the boundary but not yet ticked: clamped to zero.
	assert.Equal(t, time.Duration(0), s.TimeRemainingInPhase(t0.Add(200*time.Second)))
}

func TestTimeRemainingInPhase_FrozenWhilePaused(t *testing.T) {
	s := startedScheduler(t, scenarioConfig())
	require.NoError(t, s.Pause(t0.Add(60*time.Second)))

	// However much wall-clock time passes, the countdown holds at 120s.
	assert.Equal(t, 120*time.Second, s.TimeRemainingInPhase(t0.Add(time.Hour)))
}

func TestTotalElapsed_ExcludesPauseTime(t *testing.T) {
	s := startedScheduler(t, scenarioConfig())
	require.NoError(t, s.Pause(t0.Add(60*time.Second)))
	_, err := s.Resume(t0.Add(90 * time.Second))
	require.NoError(t, err)

	assert.Equal(t, 100*time.Second, s.TotalElapsed(t0.Add(130*time.Second)))
}

func TestProgressFraction(t *testing.T) {
	s := startedScheduler(t, scenarioConfig())

	assert.InDelta(t, 0.0, s.ProgressFraction(t0), 1e-9)
	assert.InDelta(t, 0.5, s.ProgressFraction(t0.Add(900*time.Second)), 1e-9)

	require.NoError(t, s.End())
	assert.InDelta(t, 1.0, s.ProgressFraction(t0.Add(time.Hour)), 1e-9)
}
