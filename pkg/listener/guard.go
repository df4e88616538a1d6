package listener

// Guard marks that actions are currently being applied to the container.
// The zero value is inactive.
type Guard struct {
	active bool
}

// Enter activates the guard and returns a func restoring its previous state.
// Callers defer the release so it also runs when delivery panics.
func (g *Guard) Enter() (release func()) {
	prev := g.active
	g.active = true
	return func() {
		g.active = prev
	}
}

// Active reports whether the guard is held.
func (g *Guard) Active() bool {
	return g != nil && g.active
}
