package models

import (
	"reflect"
	"testing"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in       string
		wantType CommandType
		wantArgs []string
	}{
		{in: "/declare semaine47 lundi L1 REF-A 450", wantType: CommandDeclare, wantArgs: []string{"semaine47", "lundi", "L1", "REF-A", "450"}},
		{in: "  /DECL semaine47 mardi L2 REF-B 10 12 ", wantType: CommandDeclare, wantArgs: []string{"semaine47", "mardi", "L2", "REF-B", "10", "12"}},
		{in: "/nc semaine47 lundi L1 REF-A 0 20 0 10 0", wantType: CommandLoss, wantArgs: []string{"semaine47", "lundi", "L1", "REF-A", "0", "20", "0", "10", "0"}},
		{in: "/stats semaine47 L1", wantType: CommandStats, wantArgs: []string{"semaine47", "L1"}},
		{in: "aide", wantType: CommandHelp},
		{in: "/unknown x", wantType: CommandUnknown, wantArgs: []string{"x"}},
		{in: "   ", wantType: CommandUnknown},
	}

	for _, tc := range tests {
		got := ParseCommand(tc.in)
		if got.Type != tc.wantType {
			t.Errorf("ParseCommand(%q).Type = %s, want %s", tc.in, got.Type, tc.wantType)
		}
		if !reflect.DeepEqual(got.Args, tc.wantArgs) {
			t.Errorf("ParseCommand(%q).Args = %v, want %v", tc.in, got.Args, tc.wantArgs)
		}
	}
}

func TestQuantitySource(t *testing.T) {
	tests := []struct {
		planned, modified, want int
	}{
		{planned: 100, modified: 0, want: 100},
		{planned: 100, modified: 80, want: 80},
		{planned: 0, modified: 40, want: 40},
		{planned: 0, modified: 0, want: 0},
		{planned: 50, modified: 120, want: 120},
	}
	for _, tc := range tests {
		rec := PlanningRecord{PlannedQty: tc.planned, ModifiedQty: tc.modified}
		if got := rec.QuantitySource(); got != tc.want {
			t.Errorf("QuantitySource(planned=%d, modified=%d) = %d, want %d", tc.planned, tc.modified, got, tc.want)
		}
	}
}

func TestPlanningState(t *testing.T) {
	tests := []struct {
		name      string
		rec       PlanningRecord
		hasReport bool
		want      PlanningState
	}{
		{name: "zeroed", rec: PlanningRecord{}, want: StateUninitialized},
		{name: "planned only", rec: PlanningRecord{PlannedQty: 100}, want: StatePlanned},
		{name: "shortfall", rec: PlanningRecord{PlannedQty: 100, DeclaredProduction: 80, Delta: -20}, want: StateDeclared},
		{name: "shortfall reconciled", rec: PlanningRecord{PlannedQty: 100, DeclaredProduction: 80, Delta: -20}, hasReport: true, want: StateReconciled},
		{name: "met target", rec: PlanningRecord{PlannedQty: 100, DeclaredProduction: 100}, want: StateOverTarget},
	}
	for _, tc := range tests {
		if got := tc.rec.State(tc.hasReport); got != tc.want {
			t.Errorf("%s: State = %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestValidWeekNameAndDay(t *testing.T) {
	for _, name := range []string{"semaine01", "semaine47", "semaine53"} {
		if !ValidWeekName(name) {
			t.Errorf("ValidWeekName(%q) = false", name)
		}
	}
	for _, name := range []string{"week47", "semaine", "semaine1", "semaine00", "semaine54", "semaine123", "Semaine01"} {
		if ValidWeekName(name) {
			t.Errorf("ValidWeekName(%q) = true", name)
		}
	}
	if Day("dimanche").Valid() {
		t.Error("dimanche must not be a working day")
	}
	if !Saturday.Valid() {
		t.Error("samedi must be a working day")
	}
}
