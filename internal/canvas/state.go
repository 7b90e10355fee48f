package canvas

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"appbuilder/internal/domain"
)

// ChangeKind names the gesture that produced a change notification.
type ChangeKind string

const (
	ChangeDrop   ChangeKind = "drop"
	ChangeMove   ChangeKind = "move"
	ChangeResize ChangeKind = "resize"
)

// Change describes the mutation behind a notification.
type Change struct {
	Kind     ChangeKind `json:"kind"`
	WidgetID string     `json:"widgetId"`
}

// ChangeFunc receives the owning document with its updated components after
// every successful mutation. It runs while the state is locked and must not
// call back into the State.
type ChangeFunc func(ctx context.Context, doc domain.AppDefinition, change Change)

// State caches the components of one application definition and applies
// canvas gestures to it. All mutations are serialized; each successful one
// yields exactly one ChangeFunc call carrying the complete mapping, delivered
// before the next mutation is processed.
type State struct {
	mu       sync.Mutex
	doc      domain.AppDefinition
	boxes    domain.Components
	opts     Options
	onChange ChangeFunc
	log      *zap.Logger
	revision uint64
}

// New creates a State for doc. A nil logger disables logging.
func New(doc domain.AppDefinition, onChange ChangeFunc, opts Options, log *zap.Logger) *State {
	if log == nil {
		log = zap.NewNop()
	}
	s := &State{
		opts:     opts.withDefaults(),
		onChange: onChange,
		log:      log.Named("canvas").With(zap.String("app", doc.ID)),
	}
	s.replace(doc)
	return s
}

// Replace swaps in a new owning document. The cached components are replaced
// wholesale; nothing of the previous mapping survives. No notification is sent
// since the document itself is the source of the change.
func (s *State) Replace(doc domain.AppDefinition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replace(doc)
	s.log.Debug("components replaced", zap.Int("widgets", len(s.boxes)))
}

// CompareAndReplace is Replace guarded by a revision read earlier. It
// reports false, leaving the state untouched, when any mutation or
// replacement happened since rev was observed.
func (s *State) CompareAndReplace(rev uint64, doc domain.AppDefinition) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.revision != rev {
		return false
	}
	s.replace(doc)
	s.log.Debug("components replaced", zap.Uint64("revision", s.revision))
	return true
}

// ReplaceWith runs persist and, when it succeeds, replaces the document the
// way Replace does. Both happen under the state's lock, so no gesture can be
// committed between the write and the swap. persist must not call back into
// the State.
func (s *State) ReplaceWith(doc domain.AppDefinition, persist func(domain.AppDefinition) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if persist != nil {
		if err := persist(doc); err != nil {
			return err
		}
	}
	s.replace(doc)
	s.log.Debug("components replaced", zap.Int("widgets", len(s.boxes)))
	return nil
}

// Revision counts the mutations and replacements applied so far.
func (s *State) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

func (s *State) replace(doc domain.AppDefinition) {
	s.boxes = doc.Components.Clone()
	doc.Components = nil
	s.doc = doc
	s.revision++
}

// DropWidget places a new widget, or re-places an existing one when req.ID
// names it.
func (s *State) DropWidget(ctx context.Context, req DropRequest) (domain.Box, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, box, err := Drop(s.boxes, req, s.opts)
	if err != nil {
		s.log.Warn("drop rejected", zap.String("type", string(req.Type)), zap.Error(err))
		return domain.Box{}, err
	}
	s.commit(ctx, next, Change{Kind: ChangeDrop, WidgetID: box.ID})
	s.log.Debug("widget dropped",
		zap.String("id", box.ID),
		zap.String("name", box.Component.Name),
		zap.Int("left", box.Left),
		zap.Int("top", box.Top))
	return box, nil
}

// MoveWidget sets the position of an existing widget.
func (s *State) MoveWidget(ctx context.Context, id string, left, top int) (domain.Box, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := Move(s.boxes, id, left, top)
	if err != nil {
		s.log.Warn("move rejected", zap.String("id", id), zap.Error(err))
		return domain.Box{}, err
	}
	s.commit(ctx, next, Change{Kind: ChangeMove, WidgetID: id})
	return next[id].Clone(), nil
}

// ResizeWidget applies a completed resize gesture to an existing widget.
func (s *State) ResizeWidget(ctx context.Context, id string, req ResizeRequest) (domain.Box, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := Resize(s.boxes, id, req)
	if err != nil {
		s.log.Warn("resize rejected", zap.String("id", id), zap.Error(err))
		return domain.Box{}, err
	}
	s.commit(ctx, next, Change{Kind: ChangeResize, WidgetID: id})
	return next[id].Clone(), nil
}

// commit installs next as the cache and notifies. Caller holds s.mu.
func (s *State) commit(ctx context.Context, next domain.Components, change Change) {
	s.boxes = next
	s.revision++
	if s.onChange != nil {
		s.onChange(ctx, s.doc.WithComponents(next.Clone()), change)
	}
}

// Components returns a copy of the cached mapping.
func (s *State) Components() domain.Components {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.boxes.Clone()
}

// Document returns the owning document with the current components.
func (s *State) Document() domain.AppDefinition {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.WithComponents(s.boxes.Clone())
}

// Boxes returns one render descriptor per widget, ordered as SortedBoxes.
func (s *State) Boxes() []domain.Box {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SortedBoxes(s.boxes)
}

// Rename changes the name of the owning document. Components are untouched.
func (s *State) Rename(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Name = name
}

// SortedBoxes returns copies of the boxes ordered top to bottom, then left
// to right, then by id.
func SortedBoxes(c domain.Components) []domain.Box {
	out := make([]domain.Box, 0, len(c))
	for _, b := range c {
		out = append(out, b.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Top != b.Top {
			return a.Top < b.Top
		}
		if a.Left != b.Left {
			return a.Left < b.Left
		}
		return a.ID < b.ID
	})
	return out
}

// Len returns the number of cached widgets.
func (s *State) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.boxes)
}

// Options returns the placement options in effect.
func (s *State) Options() Options {
	return s.opts
}
