package order

import "time"

// Transition moves o to target along the lifecycle graph and stamps the
// timestamp of that transition. It is the only writer of Order.status.
//
// On error nothing on o changes.
func Transition(o *Order, target Status, at time.Time) error {
	if !o.status.CanTransitionTo(target) {
		return errIllegalTransition(o.status, target)
	}

	from := o.status
	stamp := at
	switch target {
	case StatusPaid:
		o.timestamps.PaidAt = &stamp
	case StatusInProduction:
		o.timestamps.ProductionStartedAt = &stamp
	case StatusPrinted:
		o.timestamps.PrintedAt = &stamp
	case StatusShipped:
		o.timestamps.ShippedAt = &stamp
	case StatusCompleted:
		o.timestamps.CompletedAt = &stamp
	case StatusCanceled:
		o.timestamps.CanceledAt = &stamp
	}
	o.status = target
	o.Touch(at)
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, from, at))
	return nil
}
