package cascade

import "fmt"

// Specificity is (inline, ids, classes, types), compared lexicographically.
type Specificity [4]int

// Inline is specificity of declarations coming from style attribute. It
// outranks any selector.
var Inline = Specificity{1, 0, 0, 0}

// FromSelector lifts selector specificity (ids, classes, types).
func FromSelector(s [3]int) Specificity {
	return Specificity{0, s[0], s[1], s[2]}
}

// Less reports whether s ranks strictly lower than other.
func (s Specificity) Less(other Specificity) bool {
	for i := range s {
		if s[i] != other[i] {
			return s[i] < other[i]
		}
	}
	return false
}

func (s Specificity) String() string {
	return fmt.Sprintf("(%d,%d,%d,%d)", s[0], s[1], s[2], s[3])
}
