package calibration

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
)

// separableResponses builds the canonical synthetic dataset: learners above
// the split ability always answer correctly, those below never do.
func separableResponses(n int, split float64) []Response {
	responses := make([]Response, 0, n)
	for i := 0; i < n; i++ {
		// Abilities spread evenly across [split-1.5, split+1.5].
		ability := split - 1.5 + 3.0*float64(i)/float64(n-1)
		responses = append(responses, Response{
			ItemID:    "item-1",
			LearnerID: uuid.New(),
			Ability:   ability,
			Correct:   ability > split,
			At:        time.Now(),
		})
	}
	return responses
}

func TestCalibrate_SeparableDataset(t *testing.T) {
	item := Item{ID: "item-1"}
	responses := separableResponses(30, 0.5)

	params := Calibrate(item, responses, time.Now())

	if math.Abs(params.Difficulty-0.5) > 0.5 {
		t.Errorf("Difficulty = %f, want near split 0.5", params.Difficulty)
	}
	if params.Discrimination <= 1.0 {
		t.Errorf("Discrimination = %f, want > 1.0 for cleanly separable data", params.Discrimination)
	}
	if params.Guessing != 0.0 {
		t.Errorf("Guessing = %f, want 0 for non-MCQ", params.Guessing)
	}
	if params.ItemID != "item-1" {
		t.Errorf("ItemID = %q, want item-1", params.ItemID)
	}
}

func TestCalibrate_Deterministic(t *testing.T) {
	item := Item{ID: "item-1"}
	responses := separableResponses(30, 0.0)
	now := time.Now()

	a := Calibrate(item, responses, now)
	b := Calibrate(item, responses, now)

	if a != b {
		t.Errorf("Calibrate not deterministic: %+v vs %+v", a, b)
	}
}

func TestCalibrate_AllCorrect(t *testing.T) {
	item := Item{ID: "item-1"}
	var responses []Response
	for i := 0; i < 30; i++ {
		responses = append(responses, Response{
			Ability: float64(i%5) - 2.0,
			Correct: true,
		})
	}

	params := Calibrate(item, responses, time.Now())

	// Empty incorrect group: difficulty defaults near 0, discrimination near 1.
	if math.Abs(params.Difficulty) > 0.5 {
		t.Errorf("Difficulty = %f, want near 0 with empty incorrect group", params.Difficulty)
	}
	if params.Discrimination < discriminationMin || params.Discrimination > discriminationMax {
		t.Errorf("Discrimination = %f out of range", params.Discrimination)
	}
}

func TestCalibrate_ClampsParameters(t *testing.T) {
	item := Item{ID: "item-1"}

	// Extreme abilities, perfectly separable at 4.0; raw difficulty would
	// drift past the clamp range.
	var responses []Response
	for i := 0; i < 30; i++ {
		ability := 8.0
		correct := true
		if i%2 == 0 {
			ability = 0.0
			correct = false
		}
		responses = append(responses, Response{Ability: ability, Correct: correct})
	}

	params := Calibrate(item, responses, time.Now())

	if params.Difficulty < difficultyMin || params.Difficulty > difficultyMax {
		t.Errorf("Difficulty = %f, want within [%f, %f]", params.Difficulty, difficultyMin, difficultyMax)
	}
	if params.Discrimination < discriminationMin || params.Discrimination > discriminationMax {
		t.Errorf("Discrimination = %f, want within [%f, %f]", params.Discrimination, discriminationMin, discriminationMax)
	}
}

func TestEstimateGuessing(t *testing.T) {
	t.Run("non-MCQ gets zero", func(t *testing.T) {
		got := estimateGuessing(Item{ID: "x"}, []Response{{Correct: true}})
		if got != 0.0 {
			t.Errorf("guessing = %f, want 0", got)
		}
	})

	t.Run("MCQ with misses floors at zero", func(t *testing.T) {
		item := Item{ID: "x", MCQ: true, OptionCount: 4}
		got := estimateGuessing(item, []Response{{Correct: true}, {Correct: false}})
		if got != 0.0 {
			t.Errorf("guessing = %f, want 0 (empirical floor)", got)
		}
	})

	t.Run("MCQ all correct bounded by option count", func(t *testing.T) {
		item := Item{ID: "x", MCQ: true, OptionCount: 4}
		got := estimateGuessing(item, []Response{{Correct: true}, {Correct: true}})
		if math.Abs(got-0.25) > 1e-9 {
			t.Errorf("guessing = %f, want 0.25", got)
		}
	})

	t.Run("two options capped at 0.5", func(t *testing.T) {
		item := Item{ID: "x", MCQ: true, OptionCount: 2}
		got := estimateGuessing(item, []Response{{Correct: true}})
		if math.Abs(got-0.5) > 1e-9 {
			t.Errorf("guessing = %f, want 0.5", got)
		}
	})

	t.Run("missing option count assumes four", func(t *testing.T) {
		item := Item{ID: "x", MCQ: true}
		got := estimateGuessing(item, []Response{{Correct: true}})
		if math.Abs(got-0.25) > 1e-9 {
			t.Errorf("guessing = %f, want 0.25", got)
		}
	})
}

func TestProbability(t *testing.T) {
	// At theta == difficulty, probability is exactly 0.5 for any slope.
	for _, a := range []float64{0.1, 1.0, 3.0} {
		if got := Probability(1.2, 1.2, a); math.Abs(got-0.5) > 1e-9 {
			t.Errorf("Probability(1.2, 1.2, %f) = %f, want 0.5", a, got)
		}
	}

	// Higher discrimination sharpens the curve.
	soft := Probability(1.0, 0.0, 0.5)
	sharp := Probability(1.0, 0.0, 3.0)
	if sharp <= soft {
		t.Errorf("sharp curve %f should exceed soft curve %f above difficulty", sharp, soft)
	}
}
