package inputqueue

import (
	"testing"

	"github.com/andersfylling/duelback/internal/frameinfo"
)

func mustAdd(t *testing.T, q *InputQueue[int], frame frameinfo.Frame, val int, strict bool) frameinfo.Frame {
	t.Helper()
	f, err := q.AddInput(PlayerInput[int]{Frame: frame, Input: val}, strict)
	if err != nil {
		t.Fatalf("AddInput(%d, %d) unexpected error: %v", frame, val, err)
	}
	return f
}

func TestAddInputSequentialLocal(t *testing.T) {
	q := New[int](8, 0, RepeatLastConfirmed[int]())

	for i := 0; i < 5; i++ {
		f := mustAdd(t, q, frameinfo.Frame(i), i*10, true)
		if f != frameinfo.Frame(i) {
			t.Fatalf("expected effective frame %d, got %d", i, f)
		}
	}
	if q.LastAddedFrame() != frameinfo.Frame(4) {
		t.Fatalf("expected last added frame 4, got %s", q.LastAddedFrame())
	}
	if err := q.CheckInvariants(); err != nil {
		t.Fatalf("invariants violated: %v", err)
	}
}

func TestAddInputStrictRejectsNonSequential(t *testing.T) {
	q := New[int](8, 0, RepeatLastConfirmed[int]())
	mustAdd(t, q, 0, 1, true)

	if _, err := q.AddInput(PlayerInput[int]{Frame: 2, Input: 2}, true); err == nil {
		t.Fatal("expected error adding out-of-order frame with strict=true")
	}
}

func TestAddInputNonStrictDropsNonSequential(t *testing.T) {
	q := New[int](8, 0, RepeatLastConfirmed[int]())
	mustAdd(t, q, 0, 1, false)

	f, err := q.AddInput(PlayerInput[int]{Frame: 2, Input: 2}, false)
	if err != nil {
		t.Fatalf("expected silent drop, got error: %v", err)
	}
	if !f.IsNull() {
		t.Fatalf("expected NullFrame on dropped input, got %s", f)
	}
	if q.LastAddedFrame() != frameinfo.Frame(0) {
		t.Fatalf("dropped input must not advance last added frame, got %s", q.LastAddedFrame())
	}
}

func TestFrameDelayShiftsEffectiveFrame(t *testing.T) {
	q := New[int](8, 0, RepeatLastConfirmed[int]())
	if err := q.SetFrameDelay(2); err != nil {
		t.Fatalf("SetFrameDelay: %v", err)
	}
	f := mustAdd(t, q, 0, 1, true)
	if f != frameinfo.Frame(2) {
		t.Fatalf("expected effective frame 2 with delay 2, got %s", f)
	}
}

func TestSetFrameDelayRejectedAfterAdds(t *testing.T) {
	q := New[int](8, 0, RepeatLastConfirmed[int]())
	mustAdd(t, q, 0, 1, true)
	if err := q.SetFrameDelay(3); err == nil {
		t.Fatal("expected error changing frame delay after an input was added")
	}
}

func TestPredictionIsDeterministicAndStable(t *testing.T) {
	q := New[int](8, 0, RepeatLastConfirmed[int]())
	mustAdd(t, q, 0, 7, true)

	p1, status1 := q.Input(1)
	p2, status2 := q.Input(1)

	if status1 != frameinfo.InputPredicted || status2 != frameinfo.InputPredicted {
		t.Fatalf("expected predicted status, got %v and %v", status1, status2)
	}
	if p1 != p2 {
		t.Fatalf("repeated prediction for the same frame must be stable: %+v vs %+v", p1, p2)
	}
	if p1.Input != 7 {
		t.Fatalf("RepeatLastConfirmed should predict 7, got %d", p1.Input)
	}
}

func TestConfirmedInputOverridesPrediction(t *testing.T) {
	q := New[int](8, 0, RepeatLastConfirmed[int]())
	mustAdd(t, q, 0, 7, true)

	predicted, status := q.Input(1)
	if status != frameinfo.InputPredicted || predicted.Input != 7 {
		t.Fatalf("unexpected prediction: %+v %v", predicted, status)
	}

	mustAdd(t, q, 1, 99, true)

	confirmed, status := q.Input(1)
	if status != frameinfo.InputConfirmed {
		t.Fatalf("expected confirmed status after AddInput, got %v", status)
	}
	if confirmed.Input != 99 {
		t.Fatalf("expected confirmed input 99, got %d", confirmed.Input)
	}
}

func TestMispredictionSetsFirstIncorrectFrame(t *testing.T) {
	q := New[int](8, 0, RepeatLastConfirmed[int]())
	mustAdd(t, q, 0, 7, true)

	if _, status := q.Input(1); status != frameinfo.InputPredicted {
		t.Fatalf("expected a prediction to be generated and stored")
	}

	mustAdd(t, q, 1, 99, true) // contradicts the stored prediction of 7

	if q.FirstIncorrectFrame() != frameinfo.Frame(1) {
		t.Fatalf("expected first incorrect frame 1, got %s", q.FirstIncorrectFrame())
	}
}

func TestCorrectPredictionDoesNotSetFirstIncorrectFrame(t *testing.T) {
	q := New[int](8, 0, RepeatLastConfirmed[int]())
	mustAdd(t, q, 0, 7, true)

	q.Input(1) // predicts 7 (RepeatLastConfirmed)
	mustAdd(t, q, 1, 7, true)

	if !q.FirstIncorrectFrame().IsNull() {
		t.Fatalf("expected no misprediction signal, got %s", q.FirstIncorrectFrame())
	}
}

func TestResetPredictionClearsState(t *testing.T) {
	q := New[int](8, 0, RepeatLastConfirmed[int]())
	mustAdd(t, q, 0, 7, true)
	q.Input(1)
	mustAdd(t, q, 1, 99, true)

	if q.FirstIncorrectFrame().IsNull() {
		t.Fatal("setup failed: expected a misprediction to be recorded")
	}
	q.ResetPrediction()
	if !q.FirstIncorrectFrame().IsNull() {
		t.Fatalf("ResetPrediction should clear first incorrect frame, got %s", q.FirstIncorrectFrame())
	}
}

func TestDiscardConfirmedFramesFreesSlots(t *testing.T) {
	q := New[int](8, 0, RepeatLastConfirmed[int]())
	for i := 0; i < 5; i++ {
		mustAdd(t, q, frameinfo.Frame(i), i, true)
	}
	if q.Length() != 5 {
		t.Fatalf("expected length 5, got %d", q.Length())
	}
	q.DiscardConfirmedFrames(2)
	if q.Length() != 2 {
		t.Fatalf("expected length 2 after discarding through frame 2, got %d", q.Length())
	}
	if err := q.CheckInvariants(); err != nil {
		t.Fatalf("invariants violated: %v", err)
	}
}

func TestWrapsAroundRingCapacity(t *testing.T) {
	q := New[int](4, 0, RepeatLastConfirmed[int]())
	for i := 0; i < 4; i++ {
		mustAdd(t, q, frameinfo.Frame(i), i, true)
	}
	q.DiscardConfirmedFrames(3)
	for i := 4; i < 10; i++ {
		mustAdd(t, q, frameinfo.Frame(i), i, true)
		q.DiscardConfirmedFrames(frameinfo.Frame(i - 1))
	}
	if err := q.CheckInvariants(); err != nil {
		t.Fatalf("invariants violated after wraparound: %v", err)
	}
	got, status := q.Input(9)
	if status != frameinfo.InputConfirmed || got.Input != 9 {
		t.Fatalf("expected confirmed input 9 after wraparound, got %+v %v", got, status)
	}
}

func TestBlankPredictionIgnoresHistory(t *testing.T) {
	q := New[int](8, 0, BlankPrediction[int]())
	mustAdd(t, q, 0, 42, true)

	p, status := q.Input(1)
	if status != frameinfo.InputPredicted {
		t.Fatalf("expected predicted status, got %v", status)
	}
	if p.Input != 0 {
		t.Fatalf("BlankPrediction should predict zero value, got %d", p.Input)
	}
}

// TestCheckInvariantsWithFrameDelayDetectsBound exercises the
// first_incorrect_frame bound with frame_delay > 0 alongside it:
// last_added_frame already holds the delay-shifted effective frame, so
// the bound must not add frame_delay a second time, or a real violation
// one frame_delay too late would go undetected.
func TestCheckInvariantsWithFrameDelayDetectsBound(t *testing.T) {
	q := New[int](16, 0, RepeatLastConfirmed[int]())
	if err := q.SetFrameDelay(3); err != nil {
		t.Fatalf("SetFrameDelay: %v", err)
	}

	// Prime the queue with a prediction at frame 10 (effective, given the
	// delay), then feed a contradicting confirmed input so
	// first_incorrect_frame is set to the same effective frame that
	// becomes last_added_frame.
	q.predictionStored = true
	q.prediction = PlayerInput[int]{Frame: 10, Input: 99}
	mustAdd(t, q, frameinfo.Frame(7), 1, true) // effective frame 7+3=10

	if q.FirstIncorrectFrame() != 10 || q.LastAddedFrame() != 10 {
		t.Fatalf("expected first_incorrect_frame == last_added_frame == 10, got %s / %s", q.FirstIncorrectFrame(), q.LastAddedFrame())
	}
	if err := q.CheckInvariants(); err != nil {
		t.Fatalf("equal first_incorrect_frame/last_added_frame must be within bound: %v", err)
	}

	// A first_incorrect_frame past last_added_frame is never produced by
	// AddInput, but it's exactly the violation the bound exists to catch.
	// With frame_delay double-counted, a too-large first_incorrect_frame
	// (here last_added_frame+1, well within the old bound of
	// last_added_frame+frame_delay) would slip through undetected.
	q.firstIncorrectFrame = q.lastAddedFrame + 1
	if err := q.CheckInvariants(); err == nil {
		t.Fatal("expected CheckInvariants to reject first_incorrect_frame past last_added_frame")
	}
}
