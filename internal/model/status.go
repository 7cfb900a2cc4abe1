package model

// Status is the lifecycle state of an order. Only StatusUnsubmitted orders
// are locally mutable; every later state is driven by the server and the
// cart engine treats the order as read-only.
type Status string

const (
	StatusUnsubmitted    Status = "unsubmitted"
	StatusPlaced         Status = "Order Placed"
	StatusVendorAccepted Status = "Vendor Accepted"
	StatusRejected       Status = "Rejected"
	StatusPreparing      Status = "Preparing"
	StatusReady          Status = "Order Ready"
	StatusRiderAssigned  Status = "Rider Assigned"
	StatusRiderOnTheWay  Status = "Rider on the Way"
	StatusDelivered      Status = "Delivered"
	StatusCancelled      Status = "Cancelled"

	// Pickup-flow variants of the ready/handover states.
	StatusReadyForPickup Status = "Ready for Pickup"
	StatusPickedUp       Status = "Picked Up"
)

// statusTransitions lists the allowed forward transitions for each state.
// Cancellation is handled separately since it is reachable from every
// pre-terminal state.
var statusTransitions = map[Status][]Status{
	StatusUnsubmitted:    {StatusPlaced},
	StatusPlaced:         {StatusVendorAccepted, StatusRejected},
	StatusVendorAccepted: {StatusPreparing},
	StatusPreparing:      {StatusReady, StatusRiderAssigned, StatusReadyForPickup},
	StatusReady:          {StatusRiderAssigned},
	StatusRiderAssigned:  {StatusRiderOnTheWay},
	StatusRiderOnTheWay:  {StatusDelivered},
	StatusReadyForPickup: {StatusPickedUp},
}

// IsTerminal reports whether no further transitions are possible.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusDelivered, StatusCancelled, StatusRejected, StatusPickedUp:
		return true
	}
	return false
}

// CanTransition reports whether an order may move from s to next.
func (s Status) CanTransition(next Status) bool {
	if next == StatusCancelled {
		return !s.IsTerminal()
	}
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
