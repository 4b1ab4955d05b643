package cascade

import "testing"

func TestSpecificity_Less(t *testing.T) {
	tests := []struct {
		a, b Specificity
		want bool
	}{
		{Specificity{0, 0, 0, 1}, Specificity{0, 0, 1, 0}, true},
		{Specificity{0, 0, 9, 9}, Specificity{0, 1, 0, 0}, true},
		{Specificity{0, 9, 9, 9}, Inline, true},
		{Inline, Specificity{0, 9, 9, 9}, false},
		{Specificity{0, 1, 1, 1}, Specificity{0, 1, 1, 1}, false},
	}
	for _, tt := range tests {
		if got := tt.a.Less(tt.b); got != tt.want {
			t.Errorf("%s.Less(%s) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestFromSelector(t *testing.T) {
	if got := FromSelector([3]int{1, 2, 3}); got != (Specificity{0, 1, 2, 3}) {
		t.Errorf("FromSelector() = %s", got)
	}
}
