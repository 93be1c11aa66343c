package frameplan

import "testing"

func TestCompute_HundredFrames(t *testing.T) {
	plan, err := Compute(1001, 1100)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	want := Plan{FrameCount: 100, Interval: 2, TileCount: 50, ThumbFrame: 50}
	if plan != want {
		t.Errorf("Compute(1001, 1100) = %+v, want %+v", plan, want)
	}
}

func TestCompute_ShortRangeDegenerates(t *testing.T) {
	cases := []struct {
		name        string
		first, last int
		wantCount   int
	}{
		{"single frame", 1001, 1001, 1},
		{"ten frames", 1, 10, 10},
		{"forty nine frames", 1001, 1049, 49},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			plan, err := Compute(tc.first, tc.last)
			if err != nil {
				t.Fatalf("Compute() error = %v", err)
			}
			if plan.FrameCount != tc.wantCount {
				t.Errorf("FrameCount = %d, want %d", plan.FrameCount, tc.wantCount)
			}
			if plan.Interval != tc.wantCount {
				t.Errorf("Interval = %d, want %d (degenerate single bucket)", plan.Interval, tc.wantCount)
			}
			if plan.TileCount != tc.wantCount {
				t.Errorf("TileCount = %d, want %d", plan.TileCount, tc.wantCount)
			}
			if plan.ThumbFrame != tc.wantCount/2 {
				t.Errorf("ThumbFrame = %d, want %d", plan.ThumbFrame, tc.wantCount/2)
			}
		})
	}
}

func TestCompute_LongRange(t *testing.T) {
	plan, err := Compute(1, 237)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if plan.FrameCount != 237 {
		t.Errorf("FrameCount = %d, want 237", plan.FrameCount)
	}
	if plan.Interval != 4 {
		t.Errorf("Interval = %d, want 4", plan.Interval)
	}
	if plan.TileCount != 59 {
		t.Errorf("TileCount = %d, want 59", plan.TileCount)
	}
	if plan.ThumbFrame != 118 {
		t.Errorf("ThumbFrame = %d, want 118", plan.ThumbFrame)
	}
}

func TestCompute_Idempotent(t *testing.T) {
	a, err := Compute(1001, 1100)
	if err != nil {
		t.Fatalf("first Compute() error = %v", err)
	}
	b, err := Compute(1001, 1100)
	if err != nil {
		t.Fatalf("second Compute() error = %v", err)
	}
	if a != b {
		t.Errorf("plans differ: %+v vs %+v", a, b)
	}
}

func TestCompute_InvalidRange(t *testing.T) {
	if _, err := Compute(1100, 1001); err == nil {
		t.Fatal("Compute(1100, 1001) expected error for inverted range")
	}
}

func TestSampleStride_ClampsToOne(t *testing.T) {
	p := Plan{Interval: 0}
	if got := p.SampleStride(); got != 1 {
		t.Errorf("SampleStride() = %d, want 1", got)
	}

	p = Plan{Interval: 7}
	if got := p.SampleStride(); got != 7 {
		t.Errorf("SampleStride() = %d, want 7", got)
	}
}
