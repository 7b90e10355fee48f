package canvas

import (
	"strconv"
	"strings"

	"appbuilder/internal/domain"
)

// ComputeComponentName derives a display name for a new widget of type t
// that is unused across boxes. Counting starts after the number of boxes
// already of that type: "button1", "button2", ...
func ComputeComponentName(t domain.WidgetType, boxes domain.Components) string {
	base := strings.ToLower(string(t))
	names := boxes.Names()
	for n := boxes.CountOfType(t) + 1; ; n++ {
		name := base + strconv.Itoa(n)
		if _, taken := names[name]; !taken {
			return name
		}
	}
}
