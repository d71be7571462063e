package service

import "repairdesk_backend/internal/workflow"

// StatusClass is the coarse display class of a calendar event. The calendar
// renders nine classes; the fine-grained order statuses fold onto them.
type StatusClass string

const (
	ClassScheduled        StatusClass = "scheduled"
	ClassOnTheWay         StatusClass = "on_the_way"
	ClassInProgress       StatusClass = "in_progress"
	ClassAtWorkshop       StatusClass = "at_workshop"
	ClassAwaitingApproval StatusClass = "awaiting_approval"
	ClassInRepair         StatusClass = "in_repair"
	ClassReadyDelivery    StatusClass = "ready_delivery"
	ClassCompleted        StatusClass = "completed"
	ClassCancelled        StatusClass = "cancelled"
)

var statusClasses = map[workflow.Status]StatusClass{
	workflow.StatusPending:              ClassScheduled,
	workflow.StatusScheduled:            ClassScheduled,
	workflow.StatusScheduledCollection:  ClassScheduled,
	workflow.StatusOnTheWay:             ClassOnTheWay,
	workflow.StatusCollected:            ClassInProgress,
	workflow.StatusCollectedDiagnosis:   ClassInProgress,
	workflow.StatusInProgress:           ClassInProgress,
	workflow.StatusAtWorkshop:           ClassAtWorkshop,
	workflow.StatusReceivedAtWorkshop:   ClassAtWorkshop,
	workflow.StatusDiagnosisCompleted:   ClassAwaitingApproval,
	workflow.StatusQuoteSent:            ClassAwaitingApproval,
	workflow.StatusQuoteApproved:        ClassInRepair,
	workflow.StatusNeedsWorkshop:        ClassInRepair,
	workflow.StatusInRepair:             ClassInRepair,
	workflow.StatusReadyForDelivery:     ClassReadyDelivery,
	workflow.StatusDeliveryScheduled:    ClassReadyDelivery,
	workflow.StatusCollectedForDelivery: ClassReadyDelivery,
	workflow.StatusOnTheWayToDeliver:    ClassReadyDelivery,
	workflow.StatusPaymentPending:       ClassReadyDelivery,
	workflow.StatusDelivered:            ClassCompleted,
	workflow.StatusCompleted:            ClassCompleted,
	workflow.StatusCancelled:            ClassCancelled,
	workflow.StatusQuoteRejected:        ClassCancelled,
	workflow.StatusReturned:             ClassCancelled,
}

// ClassForStatus folds an order status onto its display class. An unmapped
// status falls back to scheduled so the event still renders; the second
// return value is false in that case and the caller logs it.
func ClassForStatus(status workflow.Status) (StatusClass, bool) {
	if class, ok := statusClasses[status]; ok {
		return class, true
	}
	return ClassScheduled, false
}
