package schedule

import "cafesched/internal/model"

// Durations maps a task type to the seconds it occupies the worker.
type Durations map[model.TaskType]int

// DefaultDurations: a sandwich takes 2m30s, serving takes 1m, a break takes no slot.
func DefaultDurations() Durations {
	return Durations{
		model.MakeSandwich: 150,
		model.Serve:        60,
		model.Break:        0,
	}
}

// Of returns the duration for t. Types missing from d fall back to the defaults.
func (d Durations) Of(t model.TaskType) int {
	if v, ok := d[t]; ok {
		return v
	}
	return DefaultDurations()[t]
}

// Merge overlays o on top of d and returns the result; d is not modified.
func (d Durations) Merge(o Durations) Durations {
	out := Durations{}
	for k, v := range d {
		out[k] = v
	}
	for k, v := range o {
		out[k] = v
	}
	return out
}

// timeline is the state carried through the timing fold.
type timeline struct {
	elapsed int
	tasks   []model.Task
}

func (tl timeline) step(t model.Task, d Durations) timeline {
	tl.tasks = append(tl.tasks, t.Timed(tl.elapsed))
	tl.elapsed += d.Of(t.Type)
	return tl
}

// AssignStartTimes walks tasks once, giving each the sum of the durations before it.
// The input slice is left untouched.
func AssignStartTimes(tasks []model.Task, d Durations) []model.Task {
	tl := timeline{tasks: make([]model.Task, 0, len(tasks))}
	for _, t := range tasks {
		tl = tl.step(t, d)
	}
	return tl.tasks
}

// TotalSeconds is the length of the timeline covered by tasks.
func TotalSeconds(tasks []model.Task, d Durations) int {
	total := 0
	for _, t := range tasks {
		total += d.Of(t.Type)
	}
	return total
}
