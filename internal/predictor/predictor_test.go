package predictor

import "testing"

func TestNewSelectsElementWidth(t *testing.T) {
	tests := []struct {
		name          string
		bitsPerSample int
		wantBits      int
	}{
		{"8-bit", 8, 16},
		{"16-bit", 16, 16},
		{"24-bit", 24, 16},
		{"32-bit", 32, 32},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(Normal, tt.bitsPerSample)
			if c.elementBits != tt.wantBits {
				t.Errorf("elementBits = %d, want %d", c.elementBits, tt.wantBits)
			}
		})
	}
}

func TestFilterSpecsByLevel(t *testing.T) {
	tests := []struct {
		level     Level
		wantCount int
	}{
		{Fast, 1},
		{Normal, 2},
		{High, 1},
		{ExtraHigh, 2},
		{Insane, 3},
	}
	for _, tt := range tests {
		specs := filterSpecsFor(tt.level)
		if len(specs) != tt.wantCount {
			t.Errorf("level %v: got %d filters, want %d", tt.level, len(specs), tt.wantCount)
		}
	}
}

func TestCompressValueIsDeterministic(t *testing.T) {
	a := New(Normal, 16)
	b := New(Normal, 16)

	samples := []int64{0, 100, -100, 5000, -5000, 1, -1, 0, 32000, -32000}
	for i, s := range samples {
		ra := a.CompressValue(s, 0, false)
		rb := b.CompressValue(s, 0, false)
		if ra != rb {
			t.Fatalf("sample %d: got %d and %d from two identically-configured channels", i, ra, rb)
		}
	}
}

func TestFlushResetsState(t *testing.T) {
	c := New(High, 16)
	for _, s := range []int64{1000, -2000, 3000, -4000, 5000} {
		c.CompressValue(s, 0, false)
	}
	c.Flush()

	fresh := New(High, 16)
	if got, want := c.CompressValue(42, 0, false), fresh.CompressValue(42, 0, false); got != want {
		t.Errorf("after Flush, CompressValue(42) = %d, want %d (matching a fresh channel)", got, want)
	}
}

func TestRingCopyBackOnWraparound(t *testing.T) {
	r := newRing(4)
	for i := int64(1); i <= 10; i++ {
		r.push(i)
	}
	got := r.history()
	want := []int64{7, 8, 9, 10}
	if len(got) != len(want) {
		t.Fatalf("history length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("history[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestSaturate(t *testing.T) {
	if v := saturate(100000, 16); v != 32767 {
		t.Errorf("saturate(100000, 16) = %d, want 32767", v)
	}
	if v := saturate(-100000, 16); v != -32768 {
		t.Errorf("saturate(-100000, 16) = %d, want -32768", v)
	}
	if v := saturate(1000, 16); v != 1000 {
		t.Errorf("saturate(1000, 16) = %d, want 1000", v)
	}
}
