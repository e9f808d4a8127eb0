package booking

// IsAvailable is the single overlap rule shared by the drag grid and the
// creation and edit forms. A candidate is available when it has positive
// length and overlaps none of existing, ignoring the reservation whose ID
// equals excludeID (an edited reservation never conflicts with itself).
func IsAvailable(candidate TimeRange, existing []Reservation, excludeID string) bool {
	_, found := Conflict(candidate, existing, excludeID)
	return candidate.Valid() && !found
}

// Conflict returns the first reservation overlapping candidate.
func Conflict(candidate TimeRange, existing []Reservation, excludeID string) (Reservation, bool) {
	for _, r := range existing {
		if excludeID != "" && r.ID == excludeID {
			continue
		}
		if candidate.Overlaps(r.Range()) {
			return r, true
		}
	}
	return Reservation{}, false
}

// Check returns nil when candidate is available, ErrInvalidRange for an
// empty or inverted range and a *ConflictError otherwise.
func Check(candidate TimeRange, existing []Reservation, excludeID string) error {
	if !candidate.Valid() {
		return ErrInvalidRange
	}
	if r, found := Conflict(candidate, existing, excludeID); found {
		return &ConflictError{Existing: r}
	}
	return nil
}

// Snapshot supplies the most recent reservation list.
type Snapshot interface {
	Reservations() []Reservation
}

// Checker applies IsAvailable to the reservations of one room, reading the
// snapshot afresh on every call so a refresh between calls is picked up.
type Checker struct {
	Room      Room
	Source    Snapshot
	ExcludeID string
}

// Available reports whether r is free in the checker's room.
func (c Checker) Available(r TimeRange) bool {
	var existing []Reservation
	if c.Source != nil {
		existing = ForRoom(c.Source.Reservations(), c.Room)
	}
	return IsAvailable(r, existing, c.ExcludeID)
}

// List is a fixed Snapshot.
type List []Reservation

// Reservations returns the list itself.
func (l List) Reservations() []Reservation {
	return l
}
