package order

// terminalPaymentStatuses are states after which no further change for the
// same invoice is accepted.
var terminalPaymentStatuses = []PaymentStatus{
	PaymentStatusPaid,
	PaymentStatusExpired,
	PaymentStatusFailed,
	PaymentStatusCancelled,
}

// IsTerminal reports whether s is a terminal payment status.
func (s PaymentStatus) IsTerminal() bool {
	for _, t := range terminalPaymentStatuses {
		if s == t {
			return true
		}
	}
	return false
}

// TerminalPaymentStatuses returns a copy of the terminal status set.
func TerminalPaymentStatuses() []PaymentStatus {
	out := make([]PaymentStatus, len(terminalPaymentStatuses))
	copy(out, terminalPaymentStatuses)
	return out
}

// Transition describes how a payment update relates to the current state.
type Transition int

const (
	// TransitionApply means the update should be written.
	TransitionApply Transition = iota
	// TransitionNoop means the order already holds the same terminal status.
	TransitionNoop
	// TransitionRejectTerminal means the update would leave a terminal status.
	TransitionRejectTerminal
	// TransitionRejectStale means the update belongs to a replaced invoice.
	TransitionRejectStale
)

// Classify decides how an update for invoiceID moving to next applies to o.
func Classify(o *Order, invoiceID string, next PaymentStatus) Transition {
	if invoiceID != "" && o.ProviderInvoiceID != "" && o.ProviderInvoiceID != invoiceID {
		return TransitionRejectStale
	}
	if o.PaymentStatus.IsTerminal() {
		if o.PaymentStatus == next {
			return TransitionNoop
		}
		return TransitionRejectTerminal
	}
	return TransitionApply
}

// Err returns the error for a rejecting transition, or nil.
func (t Transition) Err() error {
	switch t {
	case TransitionRejectTerminal:
		return ErrTerminalState
	case TransitionRejectStale:
		return ErrStaleReference
	default:
		return nil
	}
}
