package order

// ValidatePayable checks that an order may move from created to paid.
// It has no side effects.
func ValidatePayable(o *Order) error {
	if len(o.items) == 0 {
		return ErrEmptyOrder
	}
	if !o.total.IsPositive() {
		return ErrInvalidTotal
	}
	return nil
}
