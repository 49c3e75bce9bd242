package retention

import (
	"math"
	"testing"
	"time"
)

const eps = 1e-9

func TestSchedule_EasyFromDefault(t *testing.T) {
	now := time.Now()
	got := Schedule(Easy, DefaultState("cmd-1"), now)

	if math.Abs(got.Stability-3.6) > eps {
		t.Errorf("Stability = %f, want 3.6", got.Stability)
	}
	if math.Abs(got.IntervalDays-9.0) > eps {
		t.Errorf("IntervalDays = %f, want 9.0", got.IntervalDays)
	}
	if math.Abs(got.Difficulty-4.6) > eps {
		t.Errorf("Difficulty = %f, want 4.6", got.Difficulty)
	}
	if got.Reps != 1 {
		t.Errorf("Reps = %d, want 1", got.Reps)
	}
	if got.Lapses != 0 {
		t.Errorf("Lapses = %d, want 0", got.Lapses)
	}
	if !got.NextReviewAt.Equal(now.Add(9 * 24 * time.Hour)) {
		t.Errorf("NextReviewAt = %v, want now+9d", got.NextReviewAt)
	}
}

func TestSchedule_GradeTable(t *testing.T) {
	tests := []struct {
		grade          Grade
		wantDifficulty float64
		wantStability  float64
		wantInterval   float64
		wantLapse      bool
	}{
		{Easy, 4.6, 3.6, 9.0, false},
		{Good, 4.8, 2.88, 4.608, false},
		{Hard, 5.2, 2.04, 1.836, true},
		{Again, 5.5, 1.44, 0.72, true},
	}

	now := time.Now()
	for _, tt := range tests {
		t.Run(tt.grade.String(), func(t *testing.T) {
			got := Schedule(tt.grade, DefaultState("x"), now)

			if math.Abs(got.Difficulty-tt.wantDifficulty) > 1e-6 {
				t.Errorf("Difficulty = %f, want %f", got.Difficulty, tt.wantDifficulty)
			}
			if math.Abs(got.Stability-tt.wantStability) > 1e-6 {
				t.Errorf("Stability = %f, want %f", got.Stability, tt.wantStability)
			}
			if math.Abs(got.IntervalDays-tt.wantInterval) > 1e-6 {
				t.Errorf("IntervalDays = %f, want %f", got.IntervalDays, tt.wantInterval)
			}
			wantLapses := 0
			if tt.wantLapse {
				wantLapses = 1
			}
			if got.Lapses != wantLapses {
				t.Errorf("Lapses = %d, want %d", got.Lapses, wantLapses)
			}
			if got.LastGrade != tt.grade {
				t.Errorf("LastGrade = %v, want %v", got.LastGrade, tt.grade)
			}
		})
	}
}

func TestSchedule_Clamps(t *testing.T) {
	now := time.Now()

	t.Run("difficulty ceiling", func(t *testing.T) {
		prior := State{Difficulty: 9.9, Stability: 2.4}
		got := Schedule(Again, prior, now)
		if got.Difficulty != 10.0 {
			t.Errorf("Difficulty = %f, want 10.0", got.Difficulty)
		}
	})

	t.Run("difficulty floor", func(t *testing.T) {
		prior := State{Difficulty: 1.1, Stability: 2.4}
		got := Schedule(Easy, prior, now)
		if got.Difficulty != 1.0 {
			t.Errorf("Difficulty = %f, want 1.0", got.Difficulty)
		}
	})

	t.Run("stability ceiling", func(t *testing.T) {
		prior := State{Difficulty: 5, Stability: 80}
		got := Schedule(Easy, prior, now)
		if got.Stability != 90.0 {
			t.Errorf("Stability = %f, want 90.0", got.Stability)
		}
	})

	t.Run("stability floor", func(t *testing.T) {
		prior := State{Difficulty: 5, Stability: 0.9}
		got := Schedule(Again, prior, now)
		if got.Stability != 0.8 {
			t.Errorf("Stability = %f, want 0.8 (floor)", got.Stability)
		}
	})

	t.Run("interval floor", func(t *testing.T) {
		prior := State{Difficulty: 5, Stability: 0.8}
		got := Schedule(Again, prior, now)
		if got.IntervalDays != minIntervalDays {
			t.Errorf("IntervalDays = %f, want %f", got.IntervalDays, minIntervalDays)
		}
	})
}

func TestSchedule_ZeroStateGetsDefaults(t *testing.T) {
	got := Schedule(Easy, State{ItemID: "fresh"}, time.Now())
	if math.Abs(got.Stability-3.6) > eps {
		t.Errorf("Stability = %f, want 3.6 (defaults applied)", got.Stability)
	}
	if got.ItemID != "fresh" {
		t.Errorf("ItemID = %q, want fresh", got.ItemID)
	}
}

func TestSchedule_MalformedStateFallsBack(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name  string
		prior State
	}{
		{"NaN stability", State{Difficulty: 5, Stability: math.NaN()}},
		{"Inf difficulty", State{Difficulty: math.Inf(1), Stability: 2.4}},
		{"negative stability", State{Difficulty: 5, Stability: -1}},
		{"negative reps", State{Difficulty: 5, Stability: 2.4, Reps: -3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Schedule(Good, tt.prior, now)

			if math.Abs(got.IntervalDays-3.0) > eps {
				t.Errorf("IntervalDays = %f, want 3.0 (fallback table)", got.IntervalDays)
			}
			if got.Difficulty != DefaultDifficulty || got.Stability != DefaultStability {
				t.Errorf("state = (%f, %f), want defaults", got.Difficulty, got.Stability)
			}
			if got.Reps != 1 {
				t.Errorf("Reps = %d, want 1", got.Reps)
			}
		})
	}
}

func TestSchedule_FallbackTable(t *testing.T) {
	now := time.Now()
	wants := map[Grade]float64{Again: 0.1, Hard: 1.0, Good: 3.0, Easy: 7.0}

	for grade, want := range wants {
		prior := State{Stability: math.NaN()}
		got := Schedule(grade, prior, now)
		if math.Abs(got.IntervalDays-want) > eps {
			t.Errorf("fallback interval for %v = %f, want %f", grade, got.IntervalDays, want)
		}
	}
}

func TestSchedule_InvalidGradeUsesFallbackTable(t *testing.T) {
	got := Schedule(Grade(9), DefaultState("x"), time.Now())
	if math.Abs(got.IntervalDays-0.1) > eps {
		t.Errorf("IntervalDays = %f, want the fallback 0.1", got.IntervalDays)
	}
	if got.Reps != 1 || got.Difficulty != DefaultDifficulty {
		t.Errorf("fallback state = %+v; want a fresh default state", got)
	}
}

func TestSchedule_RetentionProbability(t *testing.T) {
	got := Schedule(Easy, DefaultState("x"), time.Now())
	// e^(-9/3.6) = e^-2.5 ≈ 0.082
	if math.Abs(got.RetentionProbability-0.082) > 1e-9 {
		t.Errorf("RetentionProbability = %f, want 0.082", got.RetentionProbability)
	}
}

func TestGrade(t *testing.T) {
	if Again.String() != "Again" || Easy.String() != "Easy" {
		t.Error("grade names wrong")
	}
	if Grade(0).IsValid() || Grade(5).IsValid() {
		t.Error("out-of-range grades should be invalid")
	}
	if !Hard.Lapsed() || Good.Lapsed() {
		t.Error("lapse classification wrong")
	}
}

func TestReviewQueue(t *testing.T) {
	now := time.Now()

	items := []State{
		{ItemID: "future", Stability: 5, NextReviewAt: now.Add(48 * time.Hour)},
		{ItemID: "overdue-long", Stability: 2, NextReviewAt: now.Add(-5 * 24 * time.Hour)},
		{ItemID: "overdue-short", Stability: 10, NextReviewAt: now.Add(-24 * time.Hour)},
		{ItemID: "unscheduled", Stability: 3},
	}

	queue := ReviewQueue(items, now, 10)

	if len(queue) != 3 {
		t.Fatalf("queue length = %d, want 3 (unscheduled skipped)", len(queue))
	}
	if queue[0].State.ItemID != "overdue-long" {
		t.Errorf("most urgent = %q, want overdue-long", queue[0].State.ItemID)
	}
	if queue[len(queue)-1].State.ItemID != "future" {
		t.Errorf("least urgent = %q, want future", queue[len(queue)-1].State.ItemID)
	}
	if !queue[0].Overdue || queue[len(queue)-1].Overdue {
		t.Error("overdue flags wrong")
	}
}

func TestReviewQueue_Limit(t *testing.T) {
	now := time.Now()
	var items []State
	for i := 0; i < 10; i++ {
		items = append(items, State{
			ItemID:       string(rune('a' + i)),
			Stability:    2,
			NextReviewAt: now.Add(-time.Duration(i) * time.Hour),
		})
	}

	queue := ReviewQueue(items, now, 3)
	if len(queue) != 3 {
		t.Errorf("queue length = %d, want 3", len(queue))
	}
}
