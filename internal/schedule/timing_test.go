package schedule

import (
	"testing"

	"cafesched/internal/model"
)

func TestAssignStartTimes(t *testing.T) {
	in := []model.Task{
		{Type: model.MakeSandwich},
		{Type: model.Serve},
		{Type: model.Break},
		{Type: model.Break},
		{Type: model.Serve},
	}
	got := AssignStartTimes(in, DefaultDurations())
	want := []int{0, 150, 210, 210, 210}
	for i, w := range want {
		if got[i].Start() != w {
			t.Fatalf("task %d: start %d, want %d", i, got[i].Start(), w)
		}
	}
	for i := range in {
		if in[i].StartTimeSeconds != nil {
			t.Fatalf("input task %d was modified", i)
		}
	}
	if len(AssignStartTimes(nil, DefaultDurations())) != 0 {
		t.Fatalf("empty input should give empty output")
	}
}

func TestDurations(t *testing.T) {
	d := DefaultDurations()
	if d.Of(model.MakeSandwich) != 150 || d.Of(model.Serve) != 60 || d.Of(model.Break) != 0 {
		t.Fatalf("unexpected defaults: %v", d)
	}
	custom := Durations{model.Serve: 30}
	if custom.Of(model.Serve) != 30 || custom.Of(model.MakeSandwich) != 150 {
		t.Fatalf("partial durations should fall back to defaults")
	}
	merged := d.Merge(custom)
	if merged.Of(model.Serve) != 30 || d.Of(model.Serve) != 60 {
		t.Fatalf("Merge must not modify the receiver")
	}
}

func TestRender(t *testing.T) {
	tasks := []model.Task{
		{Description: "Make sandwich 1", Type: model.MakeSandwich, StartTimeSeconds: model.IntPtr(59)},
		{Description: "Serve Order 1", Type: model.Serve, StartTimeSeconds: model.IntPtr(3600)},
		{Description: "Take a break", Type: model.Break, StartTimeSeconds: model.IntPtr(6005)},
	}
	want := "1.\t00:59\tMake sandwich 1\n2.\t60:00\tServe Order 1\n3.\t100:05\tTake a break"
	if got := Render(tasks); got != want {
		t.Fatalf("Render:\n%q\nwant\n%q", got, want)
	}
	if Render(nil) != "" {
		t.Fatalf("empty render should be empty")
	}
}

func TestNumberedServe(t *testing.T) {
	cases := []struct {
		first, last int
		want        string
	}{
		{4, 4, "Serve sandwich 4"},
		{1, 2, "Serve sandwiches 1 and 2"},
		{1, 3, "Serve sandwiches 1, 2 and 3"},
		{7, 10, "Serve sandwiches 7, 8, 9 and 10"},
	}
	for _, tc := range cases {
		if got := numberedServe(tc.first, tc.last); got != tc.want {
			t.Fatalf("numberedServe(%d,%d) = %q, want %q", tc.first, tc.last, got, tc.want)
		}
	}
}
