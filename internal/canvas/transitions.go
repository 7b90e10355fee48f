package canvas

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"

	"appbuilder/internal/domain"
)

var (
	ErrUnknownWidgetType = errors.New("unknown widget type")
	ErrWidgetNotFound    = errors.New("widget not found")
	ErrInvalidSize       = errors.New("invalid widget size")
)

// DefaultOrigin is the anchor used when a drag source supplies none.
var DefaultOrigin = domain.Point{X: 20, Y: 60}

// TypeLookup resolves a widget type tag to its descriptor.
type TypeLookup interface {
	Lookup(t domain.WidgetType) (domain.TypeDescriptor, bool)
}

// Options configures drop placement.
type Options struct {
	SnapToGrid bool
	GridSize   int
	Origin     *domain.Point
	Types      TypeLookup
	NewID      func() string
}

func (o Options) withDefaults() Options {
	if o.GridSize <= 0 {
		o.GridSize = GridSize
	}
	if o.Origin == nil {
		origin := DefaultOrigin
		o.Origin = &origin
	}
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
	return o
}

// DropRequest is a completed drop gesture.
type DropRequest struct {
	Type   domain.WidgetType `json:"type"`
	Delta  domain.Delta      `json:"delta"`
	Anchor *domain.Point     `json:"anchor,omitempty"` // nil: use the configured origin
	ID     string            `json:"id,omitempty"`     // set when an existing widget is moved onto the canvas
	Size   *domain.Size      `json:"size,omitempty"`   // per-axis, used when positive
}

// ResizeRequest is a completed resize gesture. Width and Height are the
// size at the start of the gesture, the deltas the change during it.
type ResizeRequest struct {
	Width       int `json:"width"`
	Height      int `json:"height"`
	DeltaWidth  int `json:"deltaWidth"`
	DeltaHeight int `json:"deltaHeight"`
}

// Drop places a widget and returns the new mapping and the placed box.
// boxes is not modified.
func Drop(boxes domain.Components, req DropRequest, opts Options) (domain.Components, domain.Box, error) {
	opts = opts.withDefaults()
	if opts.Types == nil {
		return nil, domain.Box{}, fmt.Errorf("drop %q: no widget types configured: %w", req.Type, ErrUnknownWidgetType)
	}
	desc, ok := opts.Types.Lookup(req.Type)
	if !ok {
		return nil, domain.Box{}, fmt.Errorf("drop %q: %w", req.Type, ErrUnknownWidgetType)
	}

	anchor := *opts.Origin
	if req.Anchor != nil {
		anchor = *req.Anchor
	}
	left := int(math.Round(float64(anchor.X) + req.Delta.DX))
	top := int(math.Round(float64(anchor.Y) + req.Delta.DY))
	if opts.SnapToGrid {
		left, top = SnapToGrid(left, top, opts.GridSize)
	}
	left, top = max(left, 0), max(top, 0)

	width, height := desc.DefaultSize.Width, desc.DefaultSize.Height
	if req.Size != nil {
		if req.Size.Width > 0 {
			width = req.Size.Width
		}
		if req.Size.Height > 0 {
			height = req.Size.Height
		}
	}

	id := req.ID
	if id == "" {
		id = opts.NewID()
	}

	component := domain.ComponentData{TypeDescriptor: desc}
	if prev, exists := boxes[id]; exists && prev.Component.Component == req.Type {
		component.Name = prev.Component.Name
	} else {
		others := boxes
		if exists {
			others = without(boxes, id)
		}
		component.Name = ComputeComponentName(req.Type, others)
	}

	box := domain.Box{
		ID:        id,
		Top:       top,
		Left:      left,
		Width:     width,
		Height:    height,
		Component: component,
	}
	next := boxes.Clone()
	next[id] = box
	return next, box.Clone(), nil
}

// Move sets left and top of an existing widget. Coordinates are not bounded.
func Move(boxes domain.Components, id string, left, top int) (domain.Components, error) {
	if _, ok := boxes[id]; !ok {
		return nil, fmt.Errorf("move %s: %w", id, ErrWidgetNotFound)
	}
	next := boxes.Clone()
	b := next[id]
	b.Left, b.Top = left, top
	next[id] = b
	return next, nil
}

// Resize applies width = Width+DeltaWidth and height = Height+DeltaHeight
// to an existing widget.
func Resize(boxes domain.Components, id string, req ResizeRequest) (domain.Components, error) {
	if _, ok := boxes[id]; !ok {
		return nil, fmt.Errorf("resize %s: %w", id, ErrWidgetNotFound)
	}
	w, h := req.Width+req.DeltaWidth, req.Height+req.DeltaHeight
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("resize %s to %dx%d: %w", id, w, h, ErrInvalidSize)
	}
	next := boxes.Clone()
	b := next[id]
	b.Width, b.Height = w, h
	next[id] = b
	return next, nil
}

func without(boxes domain.Components, id string) domain.Components {
	out := make(domain.Components, len(boxes))
	for k, v := range boxes {
		if k != id {
			out[k] = v
		}
	}
	return out
}
