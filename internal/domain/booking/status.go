package booking

// CaseStatus is one of the enumerated workflow states of a case booking.
type CaseStatus string

const (
	StatusCaseBooked              CaseStatus = "Case Booked"
	StatusOrderPreparation        CaseStatus = "Order Preparation"
	StatusOrderPrepared           CaseStatus = "Order Prepared"
	StatusPendingDeliveryHospital CaseStatus = "Pending Delivery (Hospital)"
	StatusDeliveredHospital       CaseStatus = "Delivered (Hospital)"
	StatusCaseCompleted           CaseStatus = "Case Completed"
	StatusPendingDeliveryOffice   CaseStatus = "Pending Delivery (Office)"
	StatusDeliveredOffice         CaseStatus = "Delivered (Office)"
	StatusToBeBilled              CaseStatus = "To be billed"
	StatusCaseClosed              CaseStatus = "Case Closed"
	StatusCaseCancelled           CaseStatus = "Case Cancelled"
)

// WorkflowOrder lists the statuses a case normally moves through, in order.
// Case Cancelled sits outside the linear flow and can be entered from any
// non-terminal status.
var WorkflowOrder = []CaseStatus{
	StatusCaseBooked,
	StatusOrderPreparation,
	StatusOrderPrepared,
	StatusPendingDeliveryHospital,
	StatusDeliveredHospital,
	StatusCaseCompleted,
	StatusPendingDeliveryOffice,
	StatusDeliveredOffice,
	StatusToBeBilled,
	StatusCaseClosed,
}

var validStatuses = func() map[CaseStatus]bool {
	m := make(map[CaseStatus]bool, len(WorkflowOrder)+1)
	for _, s := range WorkflowOrder {
		m[s] = true
	}
	m[StatusCaseCancelled] = true
	return m
}()

// IsValid reports whether s is one of the eleven known statuses.
func (s CaseStatus) IsValid() bool {
	return validStatuses[s]
}

// IsTerminal reports whether no further transitions are expected from s.
func (s CaseStatus) IsTerminal() bool {
	return s == StatusCaseClosed || s == StatusCaseCancelled
}

func (s CaseStatus) String() string {
	return string(s)
}
