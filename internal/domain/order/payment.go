package order

// PaymentMethod is how the buyer paid for an order
type PaymentMethod string

const (
	PaymentMethodCreditCard PaymentMethod = "credit_card"
	PaymentMethodDebitCard  PaymentMethod = "debit_card"
	PaymentMethodPix        PaymentMethod = "pix"
	PaymentMethodBoleto     PaymentMethod = "boleto"
)

// IsValid checks if the payment method is known
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCreditCard, PaymentMethodDebitCard, PaymentMethodPix, PaymentMethodBoleto:
		return true
	}
	return false
}

// PaymentStatus is the gateway-reported state recorded with a payment
type PaymentStatus string

const (
	PaymentStatusConfirmed PaymentStatus = "confirmed"
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// DefaultPaymentStatus is recorded when the caller does not name one
const DefaultPaymentStatus = PaymentStatusConfirmed

// IsValid checks if the payment status is known
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusConfirmed, PaymentStatusPending, PaymentStatusFailed:
		return true
	}
	return false
}

// Payment holds what was recorded on the transition into paid
type Payment struct {
	Method PaymentMethod
	Status PaymentStatus
}
