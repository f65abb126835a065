package videos

import "testing"

func TestClampLimit(t *testing.T) {
	for in, want := range map[int]int{0: DefaultSearchLimit, -1: DefaultSearchLimit, 7: 7, 51: MaxSearchLimit} {
		if got := ClampLimit(in); got != want {
			t.Errorf("ClampLimit(%d) = %d, want %d", in, got, want)
		}
	}
}
