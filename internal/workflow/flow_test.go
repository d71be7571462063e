package workflow

import "testing"

func TestFlowTablesAreStrictTotalOrders(t *testing.T) {
	for at, steps := range flows {
		seen := make(map[Status]bool)
		for i, step := range steps {
			if seen[step.Status] {
				t.Errorf("%s: status %s appears twice in flow", at, step.Status)
			}
			seen[step.Status] = true
			if step.Terminal && i != len(steps)-1 {
				t.Errorf("%s: terminal step %s is not last", at, step.Status)
			}
		}
		last := steps[len(steps)-1]
		if !last.Terminal || last.Status != StatusCompleted {
			t.Errorf("%s: flow must end with terminal completed, got %s", at, last.Status)
		}
	}
}

func TestNextIsLaterInSameFlow(t *testing.T) {
	for at, steps := range flows {
		for _, step := range steps {
			next, ok := Next(step.Status, at)
			if !ok {
				if !step.Terminal {
					t.Errorf("%s: non-terminal %s has no successor", at, step.Status)
				}
				continue
			}
			if IndexOf(next, at) <= IndexOf(step.Status, at) {
				t.Errorf("%s: successor %s of %s is not later in the flow", at, next, step.Status)
			}
		}
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		at      AttendanceType
		wantErr bool
	}{
		{"in-home next step", StatusScheduled, StatusOnTheWay, AttendanceInHome, false},
		{"in-home skip two steps", StatusScheduled, StatusInProgress, AttendanceInHome, true},
		{"in-home backwards", StatusInProgress, StatusScheduled, AttendanceInHome, true},
		{"cancel from mid-flow", StatusInRepair, StatusCancelled, AttendancePickupRepair, false},
		{"return from mid-flow", StatusQuoteSent, StatusReturned, AttendancePickupDiagnosis, false},
		{"quote rejection on diagnosis flow", StatusQuoteSent, StatusQuoteRejected, AttendancePickupDiagnosis, false},
		{"quote rejection on repair flow", StatusInRepair, StatusQuoteRejected, AttendancePickupRepair, true},
		{"quote rejection on in-home flow", StatusScheduled, StatusQuoteRejected, AttendanceInHome, true},
		{"completed via natural flow", StatusPaymentPending, StatusCompleted, AttendanceInHome, false},
		{"completed jump from mid-flow", StatusScheduled, StatusCompleted, AttendanceInHome, true},
		{"out of terminal status", StatusCancelled, StatusScheduled, AttendanceInHome, true},
		{"terminal to terminal", StatusCompleted, StatusCancelled, AttendanceInHome, true},
		{"status from another flow", StatusAtWorkshop, StatusInRepair, AttendanceInHome, true},
		{"unknown attendance type", StatusPending, StatusScheduled, AttendanceType("mail_in"), true},
		{"diagnosis next step", StatusQuoteApproved, StatusInRepair, AttendancePickupDiagnosis, false},
		{"pickup delivery handoff", StatusOnTheWayToDeliver, StatusDelivered, AttendancePickupRepair, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanTransition(tt.from, tt.to, tt.at)
			if (err != nil) != tt.wantErr {
				t.Errorf("CanTransition(%s, %s, %s) error = %v, wantErr %v", tt.from, tt.to, tt.at, err, tt.wantErr)
			}
			if err != nil {
				if _, ok := err.(*IllegalTransitionError); !ok {
					t.Errorf("expected *IllegalTransitionError, got %T", err)
				}
			}
		})
	}
}

func TestTerminalJumpFromEveryNonTerminalStatus(t *testing.T) {
	for at, steps := range flows {
		for _, step := range steps {
			if step.Terminal {
				continue
			}
			if err := CanTransition(step.Status, StatusCancelled, at); err != nil {
				t.Errorf("%s: cancel from %s should be legal: %v", at, step.Status, err)
			}
			if err := CanTransition(step.Status, StatusReturned, at); err != nil {
				t.Errorf("%s: return from %s should be legal: %v", at, step.Status, err)
			}
		}
	}
}

func TestLocationFor(t *testing.T) {
	tests := []struct {
		status Status
		want   Location
		ok     bool
	}{
		{StatusPending, LocationClient, true},
		{StatusOnTheWay, LocationClient, true},
		{StatusCollected, LocationTransit, true},
		{StatusCollectedDiagnosis, LocationTransit, true},
		{StatusAtWorkshop, LocationWorkshop, true},
		{StatusQuoteApproved, LocationWorkshop, true},
		{StatusCollectedForDelivery, LocationTransit, true},
		{StatusDelivered, LocationDelivered, true},
		{StatusCompleted, LocationDelivered, true},
		{StatusReturned, LocationClient, true},
		{StatusCancelled, "", false},
		{StatusQuoteRejected, "", false},
	}

	for _, tt := range tests {
		got, ok := LocationFor(tt.status)
		if ok != tt.ok || got != tt.want {
			t.Errorf("LocationFor(%s) = (%s, %v), want (%s, %v)", tt.status, got, ok, tt.want, tt.ok)
		}
	}
}

func TestIsWorkshopStatus(t *testing.T) {
	if !IsWorkshopStatus(StatusInRepair) {
		t.Error("in_repair should be workshop-resident")
	}
	if !IsWorkshopStatus(StatusReceivedAtWorkshop) {
		t.Error("received_at_workshop should be workshop-resident")
	}
	if IsWorkshopStatus(StatusOnTheWay) {
		t.Error("on_the_way should not be workshop-resident")
	}
	if IsWorkshopStatus(StatusDelivered) {
		t.Error("delivered should not be workshop-resident")
	}
}
