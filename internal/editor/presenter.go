package editor

import (
	"github.com/cybernobie/lapce/internal/engine/buffer"
)

// InvalidationKind names the part of the presentation that is out of date.
type InvalidationKind uint8

const (
	// TextLayout means text or styling of a buffer changed.
	TextLayout InvalidationKind = iota
	// StatusBar means aggregate counts, dirty flags or the buffer list changed.
	StatusBar
	// CodeActions means the code action list changed.
	CodeActions
	// Cursor means the cursor or active buffer moved.
	Cursor
	// LoadError means a buffer failed to load.
	LoadError
)

// String returns the kind name.
func (k InvalidationKind) String() string {
	switch k {
	case TextLayout:
		return "text-layout"
	case StatusBar:
		return "status"
	case CodeActions:
		return "code-actions"
	case Cursor:
		return "cursor"
	case LoadError:
		return "load-error"
	default:
		return "unknown"
	}
}

// Invalidation tells the presentation layer what to redraw. Path and
// Buffer are empty for session-wide changes.
type Invalidation struct {
	Kind   InvalidationKind
	Path   string
	Buffer buffer.ID
}

// Presenter receives invalidations. It is called on the editor loop and
// must not block.
type Presenter interface {
	Invalidate(inv Invalidation)
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func(Invalidation)

// Invalidate calls f.
func (f PresenterFunc) Invalidate(inv Invalidation) {
	f(inv)
}

type nopPresenter struct{}

func (nopPresenter) Invalidate(Invalidation) {}
