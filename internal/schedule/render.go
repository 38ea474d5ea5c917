package schedule

import (
	"fmt"
	"strings"

	"cafesched/internal/model"
)

// Clock renders seconds as MM:SS. Minutes keep growing past 59; there is no hour field.
func Clock(sec int) string {
	return fmt.Sprintf("%02d:%02d", sec/60, sec%60)
}

// Render formats timed tasks as a numbered timetable, one "{i}.\tMM:SS\t{description}"
// line per task, without a trailing newline.
func Render(tasks []model.Task) string {
	lines := make([]string, 0, len(tasks))
	for i, t := range tasks {
		lines = append(lines, fmt.Sprintf("%d.\t%s\t%s", i+1, Clock(t.Start()), t.Description))
	}
	return strings.Join(lines, "\n")
}
