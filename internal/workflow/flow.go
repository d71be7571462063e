// Package workflow provides the core business rules for the service-order
// lifecycle: the per-attendance-type status flow tables, the evidence
// requirements gating specific transitions, and the payment stage policy.
// The package is pure; it performs no I/O and holds no mutable state.
package workflow

import "fmt"

// AttendanceType is the delivery mode of a service order.
type AttendanceType string

const (
	// AttendanceInHome services the appliance at the client's home.
	AttendanceInHome AttendanceType = "in_home"
	// AttendancePickupRepair collects the appliance for direct repair.
	AttendancePickupRepair AttendanceType = "pickup_repair"
	// AttendancePickupDiagnosis collects the appliance for a
	// diagnosis-then-quote cycle before any repair.
	AttendancePickupDiagnosis AttendanceType = "pickup_diagnosis"
)

// Status is a fine-grained order lifecycle status.
type Status string

const (
	StatusPending              Status = "pending"
	StatusScheduled            Status = "scheduled"
	StatusScheduledCollection  Status = "scheduled_collection"
	StatusOnTheWay             Status = "on_the_way"
	StatusInProgress           Status = "in_progress"
	StatusPaymentPending       Status = "payment_pending"
	StatusCollected            Status = "collected"
	StatusCollectedDiagnosis   Status = "collected_for_diagnosis"
	StatusAtWorkshop           Status = "at_workshop"
	StatusReceivedAtWorkshop   Status = "received_at_workshop"
	StatusDiagnosisCompleted   Status = "diagnosis_completed"
	StatusQuoteSent            Status = "quote_sent"
	StatusQuoteApproved        Status = "quote_approved"
	StatusNeedsWorkshop        Status = "needs_workshop"
	StatusInRepair             Status = "in_repair"
	StatusReadyForDelivery     Status = "ready_for_delivery"
	StatusDeliveryScheduled    Status = "delivery_scheduled"
	StatusCollectedForDelivery Status = "collected_for_delivery"
	StatusOnTheWayToDeliver    Status = "on_the_way_to_deliver"
	StatusDelivered            Status = "delivered"
	StatusCompleted            Status = "completed"
	StatusCancelled            Status = "cancelled"
	StatusQuoteRejected        Status = "quote_rejected"
	StatusReturned             Status = "returned"
)

// Location is the physical location of the appliance.
type Location string

const (
	LocationClient    Location = "client"
	LocationTransit   Location = "transit"
	LocationWorkshop  Location = "workshop"
	LocationDelivered Location = "delivered"
)

// Step is one entry in a flow table.
type Step struct {
	Status   Status
	Label    string
	Terminal bool
}

// The three flow tables are strict total orders with no branching. The only
// branch point is which table is selected at order creation, based on the
// attendance type.
var inHomeFlow = []Step{
	{StatusPending, "Awaiting scheduling", false},
	{StatusScheduled, "Visit scheduled", false},
	{StatusOnTheWay, "Technician on the way", false},
	{StatusInProgress, "Service in progress", false},
	{StatusPaymentPending, "Awaiting payment", false},
	{StatusCompleted, "Completed", true},
}

var pickupRepairFlow = []Step{
	{StatusPending, "Awaiting scheduling", false},
	{StatusScheduledCollection, "Collection scheduled", false},
	{StatusOnTheWay, "Technician on the way", false},
	{StatusCollected, "Equipment collected", false},
	{StatusAtWorkshop, "At workshop", false},
	{StatusInRepair, "In repair", false},
	{StatusReadyForDelivery, "Ready for delivery", false},
	{StatusDeliveryScheduled, "Delivery scheduled", false},
	{StatusCollectedForDelivery, "Out for delivery pickup", false},
	{StatusOnTheWayToDeliver, "On the way to deliver", false},
	{StatusDelivered, "Delivered", false},
	{StatusCompleted, "Completed", true},
}

var pickupDiagnosisFlow = []Step{
	{StatusPending, "Awaiting scheduling", false},
	{StatusScheduledCollection, "Collection scheduled", false},
	{StatusOnTheWay, "Technician on the way", false},
	{StatusCollectedDiagnosis, "Collected for diagnosis", false},
	{StatusReceivedAtWorkshop, "Received at workshop", false},
	{StatusDiagnosisCompleted, "Diagnosis completed", false},
	{StatusQuoteSent, "Quote sent", false},
	{StatusQuoteApproved, "Quote approved", false},
	{StatusInRepair, "In repair", false},
	{StatusReadyForDelivery, "Ready for delivery", false},
	{StatusDeliveryScheduled, "Delivery scheduled", false},
	{StatusCollectedForDelivery, "Out for delivery pickup", false},
	{StatusOnTheWayToDeliver, "On the way to deliver", false},
	{StatusDelivered, "Delivered", false},
	{StatusCompleted, "Completed", true},
}

var flows = map[AttendanceType][]Step{
	AttendanceInHome:          inHomeFlow,
	AttendancePickupRepair:    pickupRepairFlow,
	AttendancePickupDiagnosis: pickupDiagnosisFlow,
}

// terminalStatuses are statuses from which no further transition is legal.
// Besides the natural end of each flow, these are reachable by a direct
// jump from any non-terminal status (cancel, rejection, return).
var terminalStatuses = map[Status]bool{
	StatusCompleted:     true,
	StatusCancelled:     true,
	StatusQuoteRejected: true,
	StatusReturned:      true,
}

// workshopStatuses are the statuses during which the appliance physically
// sits at the workshop bench.
var workshopStatuses = map[Status]bool{
	StatusAtWorkshop:         true,
	StatusReceivedAtWorkshop: true,
	StatusDiagnosisCompleted: true,
	StatusQuoteSent:          true,
	StatusQuoteApproved:      true,
	StatusNeedsWorkshop:      true,
	StatusInRepair:           true,
	StatusReadyForDelivery:   true,
	StatusDeliveryScheduled:  true,
}

// IsKnownAttendanceType reports whether at selects a flow table.
func IsKnownAttendanceType(at AttendanceType) bool {
	_, ok := flows[at]
	return ok
}

// Flow returns the ordered flow table for an attendance type, or nil for an
// unknown type. Callers must not mutate the returned slice.
func Flow(at AttendanceType) []Step {
	return flows[at]
}

// IndexOf returns the position of a status in the flow table for the given
// attendance type, or -1 when the status is not part of that flow.
func IndexOf(status Status, at AttendanceType) int {
	for i, step := range flows[at] {
		if step.Status == status {
			return i
		}
	}
	return -1
}

// Next returns the immediate successor of a status in its flow table.
// The second return value is false when the status is last, terminal, or
// not part of the flow.
func Next(status Status, at AttendanceType) (Status, bool) {
	idx := IndexOf(status, at)
	if idx < 0 || idx+1 >= len(flows[at]) {
		return "", false
	}
	return flows[at][idx+1].Status, true
}

// IsTerminal reports whether a status ends the order lifecycle.
func IsTerminal(status Status) bool {
	return terminalStatuses[status]
}

// IsWorkshopStatus reports whether the appliance is workshop-resident in
// the given status.
func IsWorkshopStatus(status Status) bool {
	return workshopStatuses[status]
}

// LocationFor derives the appliance location implied by a status. The
// second return value is false for statuses that do not move the appliance
// (terminal rejections keep whatever location the order already had).
func LocationFor(status Status) (Location, bool) {
	switch {
	case workshopStatuses[status]:
		return LocationWorkshop, true
	case status == StatusCollected || status == StatusCollectedDiagnosis ||
		status == StatusCollectedForDelivery || status == StatusOnTheWayToDeliver:
		return LocationTransit, true
	case status == StatusDelivered || status == StatusCompleted:
		return LocationDelivered, true
	case status == StatusPending || status == StatusScheduled ||
		status == StatusScheduledCollection || status == StatusOnTheWay ||
		status == StatusInProgress || status == StatusPaymentPending ||
		status == StatusReturned:
		return LocationClient, true
	default:
		return "", false
	}
}

// IllegalTransitionError reports a transition request rejected by the flow
// table. It is always fatal to the request and never retried automatically.
type IllegalTransitionError struct {
	From       Status
	To         Status
	Attendance AttendanceType
	Reason     string
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal transition %s -> %s (%s): %s", e.From, e.To, e.Attendance, e.Reason)
}

// CanTransition checks whether from -> to is a legal step for the given
// attendance type. Legal moves are exactly: the immediate next status in
// the flow table, or a jump to a terminal status from any non-terminal
// status. There is no generic skip-forward.
func CanTransition(from, to Status, at AttendanceType) error {
	if !IsKnownAttendanceType(at) {
		return &IllegalTransitionError{From: from, To: to, Attendance: at, Reason: "unknown attendance type"}
	}
	if IsTerminal(from) {
		return &IllegalTransitionError{From: from, To: to, Attendance: at, Reason: "order is in a terminal status"}
	}
	if IsTerminal(to) {
		if to == StatusQuoteRejected && at != AttendancePickupDiagnosis {
			return &IllegalTransitionError{From: from, To: to, Attendance: at, Reason: "quote rejection only applies to diagnosis orders"}
		}
		if to == StatusCompleted {
			// completed is only reachable as the natural end of the flow
			next, ok := Next(from, at)
			if !ok || next != StatusCompleted {
				return &IllegalTransitionError{From: from, To: to, Attendance: at, Reason: "completed must follow the flow order"}
			}
		}
		return nil
	}
	next, ok := Next(from, at)
	if !ok {
		return &IllegalTransitionError{From: from, To: to, Attendance: at, Reason: "status has no successor in this flow"}
	}
	if next != to {
		return &IllegalTransitionError{From: from, To: to, Attendance: at, Reason: fmt.Sprintf("only %s or a terminal status is reachable", next)}
	}
	return nil
}
