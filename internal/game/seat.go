package game

// Seat is a stable place in a room, decoupled from the live connection so a
// mid-round disconnect does not lose the player's spot.
type Seat struct {
	ID     string // stable seat identity, survives reconnects
	Name   string // display name, key for cumulative score restoration
	ConnID string // current connection, empty while offline
}

// Connected reports whether the seat has a live connection.
func (s *Seat) Connected() bool {
	return s.ConnID != ""
}
