package media

import "testing"

func TestJobStateTerminal(t *testing.T) {
	cases := []struct {
		state    JobState
		terminal bool
	}{
		{StateQueued, false},
		{StateScheduled, false},
		{StateProcessing, false},
		{StateFinished, true},
		{StateError, true},
		{StateCanceled, true},
	}
	for _, tc := range cases {
		if got := tc.state.Terminal(); got != tc.terminal {
			t.Errorf("%s.Terminal() = %v, want %v", tc.state, got, tc.terminal)
		}
	}
}

func TestJobTaskLookup(t *testing.T) {
	job := &Job{Tasks: []Task{{ID: "t1"}, {ID: "t2"}}}

	if task := job.Task("t2"); task == nil || task.ID != "t2" {
		t.Errorf("Task(t2) = %v", task)
	}
	if task := job.Task("t3"); task != nil {
		t.Errorf("Task(t3) = %v, want nil", task)
	}

	// The returned pointer aliases the job's task list.
	job.Task("t1").State = StateFinished
	if job.Tasks[0].State != StateFinished {
		t.Error("Task() should return a pointer into the job")
	}
}

func TestTaskInput(t *testing.T) {
	if in := InputAsset("nb:cid:UUID:123"); in.FromTask() {
		t.Error("asset input reported as task chain")
	}
	if in := InputTaskOutput(1); !in.FromTask() {
		t.Error("task output input not reported as task chain")
	}
}

func TestReservedUnitTypeDisplayName(t *testing.T) {
	cases := []struct {
		typ  ReservedUnitType
		name string
	}{
		{ReservedUnitBasic, "S1"},
		{ReservedUnitStandard, "S2"},
		{ReservedUnitPremium, "S3"},
		{ReservedUnitType(42), "S1"},
	}
	for _, tc := range cases {
		if got := tc.typ.DisplayName(); got != tc.name {
			t.Errorf("DisplayName(%d) = %q, want %q", int(tc.typ), got, tc.name)
		}
	}

	for _, name := range []string{"S1", "S2", "S3"} {
		if got := ReservedUnitTypeFromDisplayName(name).DisplayName(); got != name {
			t.Errorf("round trip %q = %q", name, got)
		}
	}
	if got := ReservedUnitTypeFromDisplayName("S9"); got != ReservedUnitBasic {
		t.Errorf("unknown display name = %v, want basic", got)
	}
}
