package workflow

import "fmt"

// PaymentStage identifies a payment checkpoint in the order lifecycle.
type PaymentStage string

const (
	// StageCollection is the partial payment owed when the equipment is
	// collected from the client.
	StageCollection PaymentStage = "collection"
	// StageDelivery is the remainder owed when the repaired equipment is
	// handed back.
	StageDelivery PaymentStage = "delivery"
	// StageFull is the single full payment of an in-home service.
	StageFull PaymentStage = "full"
)

// collectionFraction is the share of the initial cost collected up front
// on pickup orders.
const collectionFraction = 0.5

// StageForTransition returns the payment stage that gates a transition,
// if any. Most transitions carry no payment checkpoint.
func StageForTransition(from, to Status, at AttendanceType) (PaymentStage, bool) {
	switch at {
	case AttendanceInHome:
		if from == StatusPaymentPending && to == StatusCompleted {
			return StageFull, true
		}
	case AttendancePickupRepair, AttendancePickupDiagnosis:
		if from == StatusOnTheWay && (to == StatusCollected || to == StatusCollectedDiagnosis) {
			return StageCollection, true
		}
		if from == StatusOnTheWayToDeliver && to == StatusDelivered {
			return StageDelivery, true
		}
	}
	return "", false
}

// AmountDue computes the amount owed at a stage from the order's recorded
// costs. The final cost falls back to the initial estimate when it has not
// been set yet.
func AmountDue(stage PaymentStage, initialCost, finalCost float64) float64 {
	total := finalCost
	if total <= 0 {
		total = initialCost
	}
	switch stage {
	case StageCollection:
		return initialCost * collectionFraction
	case StageDelivery:
		due := total - initialCost*collectionFraction
		if due < 0 {
			return 0
		}
		return due
	case StageFull:
		return total
	default:
		return 0
	}
}

// StageRecord is the recorded state of one payment stage of an order.
type StageRecord struct {
	Stage         PaymentStage
	Amount        float64
	RequiresPhoto bool
	PhotoUploaded bool
	Confirmed     bool
}

// PaymentRequiredError blocks a payment-gated transition until the stage
// payment has been confirmed.
type PaymentRequiredError struct {
	Stage  PaymentStage
	Amount float64
}

func (e *PaymentRequiredError) Error() string {
	return fmt.Sprintf("payment stage %s not confirmed (%.2f due)", e.Stage, e.Amount)
}

// CanProceed checks the payment policy for a transition: when the
// transition carries a payment checkpoint, a confirmed record for that
// stage must exist. Collection-stage payments also require the receipt
// photo when the record demands one.
func CanProceed(from, to Status, at AttendanceType, initialCost, finalCost float64, recorded []StageRecord) error {
	stage, gated := StageForTransition(from, to, at)
	if !gated {
		return nil
	}
	for _, rec := range recorded {
		if rec.Stage != stage || !rec.Confirmed {
			continue
		}
		if rec.RequiresPhoto && !rec.PhotoUploaded {
			return &PaymentRequiredError{Stage: stage, Amount: rec.Amount}
		}
		return nil
	}
	return &PaymentRequiredError{Stage: stage, Amount: AmountDue(stage, initialCost, finalCost)}
}
