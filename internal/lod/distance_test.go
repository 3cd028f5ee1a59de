package lod

import "testing"

func selector() DistanceSelector {
	return DistanceSelector{FullLimit: 50, InteractiveLimit: 100, Hysteresis: 10}
}

func TestSelectHoldsInsideMargin(t *testing.T) {
	s := selector()
	// 52 is past the limit but inside limit+hysteresis, so Full holds.
	if got := s.Select(Full, 52); got != Full {
		t.Errorf("Select(Full, 52) = %v, want Full", got)
	}
}

func TestSelectCoarsensPastMargin(t *testing.T) {
	s := selector()
	if got := s.Select(Full, 61); got != Interactive {
		t.Errorf("Select(Full, 61) = %v, want Interactive", got)
	}
}

func TestSelectRefineNeedsBareLimit(t *testing.T) {
	s := selector()
	// Inside the dead zone neither direction moves.
	if got := s.Select(Interactive, 55); got != Interactive {
		t.Errorf("Select(Interactive, 55) = %v, want Interactive", got)
	}
	// Back inside the bare limit the finer tier returns.
	if got := s.Select(Interactive, 49); got != Full {
		t.Errorf("Select(Interactive, 49) = %v, want Full", got)
	}
}

func TestSelectStableAtFixedDistance(t *testing.T) {
	s := selector()
	// Mid dead zone: repeated evaluation never moves, from either side.
	d := s.FullLimit + s.Hysteresis/2
	for _, start := range []Tier{Full, Interactive} {
		cur := start
		for i := 0; i < 10; i++ {
			next := s.Select(cur, d)
			if next != cur {
				t.Fatalf("tier moved %v -> %v at fixed distance %v (start %v)", cur, next, d, start)
			}
			cur = next
		}
	}
}

func TestSelectStepsAcrossBothBoundaries(t *testing.T) {
	s := selector()
	// A camera jump far out drops Full all the way to Preview in one call.
	if got := s.Select(Full, 500); got != Preview {
		t.Errorf("Select(Full, 500) = %v, want Preview", got)
	}
	// And a jump back in recovers Full in one call.
	if got := s.Select(Preview, 5); got != Full {
		t.Errorf("Select(Preview, 5) = %v, want Full", got)
	}
}

func TestSelectInvalidCurrent(t *testing.T) {
	s := selector()
	if got := s.Select(Tier(99), 5); !got.Valid() {
		t.Errorf("Select with invalid current = %v, want a valid tier", got)
	}
}

func TestNewDistanceSelectorScales(t *testing.T) {
	s := NewDistanceSelector(10)
	if s.FullLimit >= s.InteractiveLimit {
		t.Error("full limit should sit inside the interactive limit")
	}
	if s.Hysteresis <= 0 {
		t.Error("hysteresis margin should be positive")
	}
	// Degenerate radius still yields a usable selector
	s = NewDistanceSelector(0)
	if s.FullLimit <= 0 {
		t.Error("selector for a degenerate radius should clamp")
	}
}
