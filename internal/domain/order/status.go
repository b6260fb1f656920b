package order

// Status represents the lifecycle state of an order.
// The set is closed: values outside the constants below are rejected by IsValid
// and by ParseStatus.
type Status string

const (
	StatusCreated      Status = "created"
	StatusPaid         Status = "paid"
	StatusInProduction Status = "in_production"
	StatusPrinted      Status = "printed"
	StatusShipped      Status = "shipped"
	StatusCompleted    Status = "completed"
	StatusCanceled     Status = "canceled"
)

// transitions is the lifecycle graph. A status missing from the map is terminal.
var transitions = map[Status][]Status{
	StatusCreated:      {StatusPaid, StatusCanceled},
	StatusPaid:         {StatusInProduction, StatusCanceled},
	StatusInProduction: {StatusPrinted},
	StatusPrinted:      {StatusShipped},
	StatusShipped:      {StatusCompleted},
}

// AllStatuses returns every status in lifecycle order
func AllStatuses() []Status {
	return []Status{
		StatusCreated,
		StatusPaid,
		StatusInProduction,
		StatusPrinted,
		StatusShipped,
		StatusCompleted,
		StatusCanceled,
	}
}

// ParseStatus converts a raw string into a Status
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.IsValid() {
		return "", ErrUnknownStatus(s)
	}
	return st, nil
}

// IsValid checks if the status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusCreated, StatusPaid, StatusInProduction, StatusPrinted,
		StatusShipped, StatusCompleted, StatusCanceled:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether no transition leaves s
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// CanTransitionTo checks if the status can transition to the target status
func (s Status) CanTransitionTo(target Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the statuses reachable from s in one step
func (s Status) AllowedTransitions() []Status {
	out := make([]Status, len(transitions[s]))
	copy(out, transitions[s])
	return out
}

// AcceptsItemChanges reports whether line items may be added, changed or removed
func (s Status) AcceptsItemChanges() bool {
	return s == StatusCreated
}
