package workflow

import (
	"errors"
	"math"
	"testing"
)

func TestStageForTransition(t *testing.T) {
	tests := []struct {
		name  string
		from  Status
		to    Status
		at    AttendanceType
		stage PaymentStage
		gated bool
	}{
		{"in-home completion", StatusPaymentPending, StatusCompleted, AttendanceInHome, StageFull, true},
		{"repair collection", StatusOnTheWay, StatusCollected, AttendancePickupRepair, StageCollection, true},
		{"diagnosis collection", StatusOnTheWay, StatusCollectedDiagnosis, AttendancePickupDiagnosis, StageCollection, true},
		{"repair delivery", StatusOnTheWayToDeliver, StatusDelivered, AttendancePickupRepair, StageDelivery, true},
		{"diagnosis delivery", StatusOnTheWayToDeliver, StatusDelivered, AttendancePickupDiagnosis, StageDelivery, true},
		{"ungated step", StatusScheduled, StatusOnTheWay, AttendanceInHome, "", false},
		{"in-home has no collection", StatusOnTheWay, StatusInProgress, AttendanceInHome, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stage, gated := StageForTransition(tt.from, tt.to, tt.at)
			if stage != tt.stage || gated != tt.gated {
				t.Errorf("StageForTransition = (%s, %v), want (%s, %v)", stage, gated, tt.stage, tt.gated)
			}
		})
	}
}

func TestAmountDue(t *testing.T) {
	tests := []struct {
		name    string
		stage   PaymentStage
		initial float64
		final   float64
		want    float64
	}{
		{"collection is half the initial cost", StageCollection, 200, 0, 100},
		{"collection ignores final cost", StageCollection, 200, 350, 100},
		{"delivery is the remainder", StageDelivery, 200, 350, 250},
		{"delivery falls back to initial when no final cost", StageDelivery, 200, 0, 100},
		{"delivery never goes negative", StageDelivery, 200, 50, 0},
		{"full uses final cost", StageFull, 200, 350, 350},
		{"full falls back to initial", StageFull, 200, 0, 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AmountDue(tt.stage, tt.initial, tt.final)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("AmountDue = %.2f, want %.2f", got, tt.want)
			}
		})
	}
}

func TestCanProceed(t *testing.T) {
	confirmed := StageRecord{Stage: StageCollection, Amount: 100, Confirmed: true}
	unconfirmed := StageRecord{Stage: StageCollection, Amount: 100}
	photoPending := StageRecord{Stage: StageCollection, Amount: 100, Confirmed: true, RequiresPhoto: true}
	photoDone := StageRecord{Stage: StageCollection, Amount: 100, Confirmed: true, RequiresPhoto: true, PhotoUploaded: true}

	tests := []struct {
		name    string
		records []StageRecord
		wantErr bool
	}{
		{"no record at all", nil, true},
		{"unconfirmed record", []StageRecord{unconfirmed}, true},
		{"confirmed record", []StageRecord{confirmed}, false},
		{"confirmed but receipt photo pending", []StageRecord{photoPending}, true},
		{"confirmed with receipt photo", []StageRecord{photoDone}, false},
		{"record for the wrong stage", []StageRecord{{Stage: StageDelivery, Confirmed: true}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanProceed(StatusOnTheWay, StatusCollected, AttendancePickupRepair, 200, 0, tt.records)
			if (err != nil) != tt.wantErr {
				t.Errorf("CanProceed error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var payErr *PaymentRequiredError
				if !errors.As(err, &payErr) {
					t.Errorf("expected *PaymentRequiredError, got %T", err)
				}
			}
		})
	}

	// Ungated transitions never fail regardless of records.
	if err := CanProceed(StatusPending, StatusScheduled, AttendanceInHome, 200, 0, nil); err != nil {
		t.Errorf("ungated transition should proceed: %v", err)
	}
}
