package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandlerExposesCafeMetrics(t *testing.T) {
	OrdersAdded.Inc()
	TasksScheduled.WithLabelValues("MAKE_SANDWICH").Add(2)
	SchedulesBuilt.WithLabelValues("per-order").Inc()

	rr := httptest.NewRecorder()
	Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))
	if rr.Code != 200 {
		t.Fatalf("status %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	for _, want := range []string{
		"cafe_orders_added_total",
		`cafe_tasks_scheduled_total{task_type="MAKE_SANDWICH"}`,
		`cafe_schedules_built_total{serve="per-order"}`,
		"go_goroutines",
	} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
	// second registration must not panic
	RegisterDefault()
}
