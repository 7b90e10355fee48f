package widgets

import "appbuilder/internal/domain"

const (
	Button     domain.WidgetType = "button"
	Text       domain.WidgetType = "text"
	TextInput  domain.WidgetType = "textinput"
	Table      domain.WidgetType = "table"
	Image      domain.WidgetType = "image"
	Chart      domain.WidgetType = "chart"
	Dropdown   domain.WidgetType = "dropdown"
	Checkbox   domain.WidgetType = "checkbox"
	Container  domain.WidgetType = "container"
	DatePicker domain.WidgetType = "datepicker"
)

func prop(typ, name, def string) domain.PropertyDef {
	return domain.PropertyDef{Type: typ, DisplayName: name, Default: def}
}

var stock = []domain.TypeDescriptor{
	{
		Component:   Button,
		DisplayName: "Button",
		Description: "Trigger actions: queries, alerts etc",
		DefaultSize: domain.Size{Width: 80, Height: 30},
		Properties:  map[string]domain.PropertyDef{"text": prop("text", "Button Text", "Button")},
		Events:      []string{"onClick"},
	},
	{
		Component:   Text,
		DisplayName: "Text",
		Description: "Display markdown or HTML",
		DefaultSize: domain.Size{Width: 100, Height: 30},
		Properties:  map[string]domain.PropertyDef{"text": prop("code", "Text", "Hello there!")},
	},
	{
		Component:   TextInput,
		DisplayName: "Text Input",
		Description: "Text field for forms",
		DefaultSize: domain.Size{Width: 200, Height: 30},
		Properties:  map[string]domain.PropertyDef{"placeholder": prop("text", "Placeholder", "")},
		Events:      []string{"onChange"},
	},
	{
		Component:   Table,
		DisplayName: "Table",
		Description: "Display paginated tabular data",
		DefaultSize: domain.Size{Width: 810, Height: 300},
		Properties: map[string]domain.PropertyDef{
			"data":    prop("code", "Table data", "[]"),
			"columns": prop("array", "Table Columns", ""),
		},
		Events: []string{"onRowClicked", "onBulkUpdate"},
	},
	{
		Component:   Image,
		DisplayName: "Image",
		Description: "Display an Image",
		DefaultSize: domain.Size{Width: 200, Height: 200},
		Properties:  map[string]domain.PropertyDef{"source": prop("code", "URL", "")},
		Events:      []string{"onClick"},
	},
	{
		Component:   Chart,
		DisplayName: "Chart",
		Description: "Display line, bar or pie charts",
		DefaultSize: domain.Size{Width: 600, Height: 400},
		Properties: map[string]domain.PropertyDef{
			"title": prop("text", "Title", ""),
			"data":  prop("code", "Data", "[]"),
			"type":  prop("select", "Chart type", "line"),
		},
	},
	{
		Component:   Dropdown,
		DisplayName: "Dropdown",
		Description: "Select one value from options",
		DefaultSize: domain.Size{Width: 200, Height: 30},
		Properties: map[string]domain.PropertyDef{
			"values":         prop("code", "Option values", "[]"),
			"display_values": prop("code", "Option labels", "[]"),
		},
		Events: []string{"onSelect"},
	},
	{
		Component:   Checkbox,
		DisplayName: "Checkbox",
		Description: "A single checkbox",
		DefaultSize: domain.Size{Width: 120, Height: 30},
		Properties:  map[string]domain.PropertyDef{"label": prop("text", "Label", "")},
		Events:      []string{"onCheck", "onUnCheck"},
	},
	{
		Component:   Container,
		DisplayName: "Container",
		Description: "Wrapper for multiple components",
		DefaultSize: domain.Size{Width: 400, Height: 200},
	},
	{
		Component:   DatePicker,
		DisplayName: "Date Picker",
		Description: "Select a date",
		DefaultSize: domain.Size{Width: 200, Height: 30},
		Properties:  map[string]domain.PropertyDef{"format": prop("text", "Format", "DD/MM/YYYY")},
	},
}

// Default returns a registry pre-loaded with the stock widget types.
func Default() *Registry {
	r := NewRegistry()
	for _, d := range stock {
		r.Register(d)
	}
	return r
}
