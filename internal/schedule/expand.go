package schedule

import (
	"fmt"
	"strconv"
	"strings"

	"cafesched/internal/menu"
	"cafesched/internal/model"
)

// ServeStyle selects how sandwiches are numbered and serve tasks described.
type ServeStyle int

const (
	// ServePerOrder numbers sandwiches within each order and serves "Order {id}".
	ServePerOrder ServeStyle = iota
	// ServeNumbered numbers sandwiches across the whole schedule and serves them by number.
	ServeNumbered
)

func (s ServeStyle) String() string {
	switch s {
	case ServeNumbered:
		return "numbered"
	default:
		return "per-order"
	}
}

// ParseServeStyle accepts "per-order" (or "") and "numbered".
func ParseServeStyle(v string) (ServeStyle, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "per-order", "per_order", "order":
		return ServePerOrder, nil
	case "numbered":
		return ServeNumbered, nil
	}
	return ServePerOrder, fmt.Errorf("unknown serve style %q (allowed: per-order, numbered)", v)
}

const breakDescription = "Take a break"

// ExpandOrder turns one order into its untimed tasks: a make task per sandwich item,
// then a single serve task.
func ExpandOrder(o model.Order, m menu.Menu) []model.Task {
	tasks, _ := expand(o, m, ServePerOrder, 0)
	return tasks
}

// expand is the shared expansion. made is the number of sandwiches scheduled before o;
// the returned count includes o's sandwiches.
func expand(o model.Order, m menu.Menu, style ServeStyle, made int) ([]model.Task, int) {
	tasks := make([]model.Task, 0, len(o.Items)+1)
	n := 0
	for _, it := range o.Items {
		if !m.IsSandwich(it) {
			continue
		}
		n++
		num := n
		if style == ServeNumbered {
			num = made + n
		}
		tasks = append(tasks, model.Task{
			OrderID:     model.IntPtr(o.OrderID),
			Description: "Make sandwich " + strconv.Itoa(num),
			Type:        model.MakeSandwich,
		})
	}
	desc := "Serve Order " + strconv.Itoa(o.OrderID)
	if style == ServeNumbered && n > 0 {
		desc = numberedServe(made+1, made+n)
	}
	tasks = append(tasks, model.Task{
		OrderID:     model.IntPtr(o.OrderID),
		Description: desc,
		Type:        model.Serve,
	})
	return tasks, made + n
}

// numberedServe describes serving sandwiches first..last:
// "Serve sandwich 4" or "Serve sandwiches 1, 2 and 3".
func numberedServe(first, last int) string {
	if first == last {
		return "Serve sandwich " + strconv.Itoa(first)
	}
	nums := make([]string, 0, last-first+1)
	for i := first; i <= last; i++ {
		nums = append(nums, strconv.Itoa(i))
	}
	head := strings.Join(nums[:len(nums)-1], ", ")
	return "Serve sandwiches " + head + " and " + nums[len(nums)-1]
}

func breakTask() model.Task {
	return model.Task{Description: breakDescription, Type: model.Break}
}

// Assemble expands orders in submission order and appends the closing break.
// The result is untimed.
func Assemble(orders []model.Order, m menu.Menu, style ServeStyle) []model.Task {
	var (
		out  []model.Task
		made int
	)
	for _, o := range orders {
		var tasks []model.Task
		tasks, made = expand(o, m, style, made)
		out = append(out, tasks...)
	}
	return append(out, breakTask())
}
