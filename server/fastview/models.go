// Package fastview renders server-side views into a live page. Views turn a
// stream of view-models into element updates, and a websocket client pushes the
// updates to the page and relays the page's key presses back.
package fastview

import (
	"html/template"
)

// EleUpdate sets attributes or text of the page element with id EleId.
type EleUpdate struct {
	EleId string
	Ops   []Op
}

// Op sets one attribute, e.g. {"points", "0,0 10,10"}. The key textContent sets
// the element's text instead.
type Op struct {
	Key   string
	Value string
}

// ViewComponent is one view on the page.
type ViewComponent interface {
	// Updates streams the view's element updates.
	Updates() <-chan []EleUpdate
	// Parse defines the view's initial markup in the parent template and returns
	// the defined template's name.
	Parse(parent *template.Template) (string, error)
}
