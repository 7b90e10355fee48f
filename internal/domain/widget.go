package domain

import (
	"maps"
	"slices"
)

// WidgetType is the type tag of a widget, e.g. "button".
type WidgetType string

type Size struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Point is an integer canvas coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Delta is the pointer movement reported by a drag source relative to
// the initial offset. It may carry sub-pixel values.
type Delta struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

// PropertyDef describes one configurable property of a widget type.
type PropertyDef struct {
	Type        string `json:"type"`
	DisplayName string `json:"displayName"`
	Default     string `json:"default,omitempty"`
}

// TypeDescriptor is the static metadata of a widget type.
type TypeDescriptor struct {
	Component   WidgetType             `json:"component"`
	DisplayName string                 `json:"displayName"`
	Description string                 `json:"description"`
	DefaultSize Size                   `json:"defaultSize"`
	Properties  map[string]PropertyDef `json:"properties,omitempty"`
	Events      []string               `json:"events,omitempty"`
}

// Clone returns a deep copy of the descriptor.
func (d TypeDescriptor) Clone() TypeDescriptor {
	d.Properties = maps.Clone(d.Properties)
	d.Events = slices.Clone(d.Events)
	return d
}

// ComponentData is the copy of a TypeDescriptor carried by a placed widget,
// together with its unique display name.
type ComponentData struct {
	TypeDescriptor
	Name string `json:"name"`
}

func (c ComponentData) Clone() ComponentData {
	c.TypeDescriptor = c.TypeDescriptor.Clone()
	return c
}

// Box is a placed widget. It doubles as the render descriptor handed to the
// presentation layer.
type Box struct {
	ID        string        `json:"id"`
	Top       int           `json:"top"`
	Left      int           `json:"left"`
	Width     int           `json:"width"`
	Height    int           `json:"height"`
	Component ComponentData `json:"component"`
}

func (b Box) Clone() Box {
	b.Component = b.Component.Clone()
	return b
}

// Components maps widget id to its placement. Only id uniqueness matters;
// iteration order carries no meaning.
type Components map[string]Box

// Clone returns a deep copy. A nil mapping clones to an empty one.
func (c Components) Clone() Components {
	out := make(Components, len(c))
	for id, b := range c {
		out[id] = b.Clone()
	}
	return out
}

// Names returns the set of display names currently in use.
func (c Components) Names() map[string]struct{} {
	names := make(map[string]struct{}, len(c))
	for _, b := range c {
		names[b.Component.Name] = struct{}{}
	}
	return names
}

// CountOfType returns how many boxes carry the given widget type.
func (c Components) CountOfType(t WidgetType) int {
	n := 0
	for _, b := range c {
		if b.Component.Component == t {
			n++
		}
	}
	return n
}
