package host

import (
	"sync"
	"sync/atomic"
)

// Region is the part of the page a voice message lives in: its controls and
// the media elements it renders.
type Region struct {
	mu       sync.Mutex
	id       string
	controls []*Control
	elements []*Element
	inert    bool
}

func NewRegion(id string) *Region {
	return &Region{id: id}
}

func (r *Region) ID() string { return r.id }

func (r *Region) AddControl(c *Control) {
	r.mu.Lock()
	r.controls = append(r.controls, c)
	r.mu.Unlock()
}

func (r *Region) Controls() []*Control {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Control, len(r.controls))
	copy(out, r.controls)
	return out
}

func (r *Region) AddElement(el *Element) {
	r.mu.Lock()
	r.elements = append(r.elements, el)
	r.mu.Unlock()
}

func (r *Region) Elements() []*Element {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Element, len(r.elements))
	copy(out, r.elements)
	return out
}

// SetInert toggles the cosmetic marker that blocks interaction with the region.
func (r *Region) SetInert(inert bool) {
	r.mu.Lock()
	r.inert = inert
	r.mu.Unlock()
}

func (r *Region) Inert() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inert
}

// Control is a clickable element rendered by the chat page.
type Control struct {
	TestID    string // data-testid attribute
	AriaLabel string
	Icon      string // icon name the page uses for the control
	onClick   func()
	clicks    atomic.Int32
}

func NewControl(testID, ariaLabel, icon string, onClick func()) *Control {
	return &Control{
		TestID:    testID,
		AriaLabel: ariaLabel,
		Icon:      icon,
		onClick:   onClick,
	}
}

// Click dispatches a click to the page handler.
func (c *Control) Click() {
	c.clicks.Add(1)
	if c.onClick != nil {
		c.onClick()
	}
}

func (c *Control) Clicks() int {
	return int(c.clicks.Load())
}
