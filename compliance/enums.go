package compliance

//go:generate go tool go-enum --nocase

// How well a client supports a CSS property.
// ENUM(full, partial, none)
type SupportLevel int

// Fails reports whether level counts as a failing client.
func (x SupportLevel) Fails() bool {
	return x == SupportLevelPartial || x == SupportLevelNone
}
