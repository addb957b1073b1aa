// Package modal tracks the parameter form for one selected action: field
// values, per-field validation errors, and whether the form may be submitted.
//
// A Controller is owned by a single goroutine (the UI loop) and is not safe
// for concurrent use.
package modal

import (
	"errors"
	"fmt"
	"maps"

	"github.com/Mohsinsiddi/assetcli/internal/action"
)

// State is the lifecycle position of the form.
type State int

const (
	Closed State = iota
	Open
	Submitting
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case Submitting:
		return "submitting"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Errors.
var (
	ErrNotOpen        = errors.New("no action is open")
	ErrUnknownField   = errors.New("unknown field")
	ErrNotSubmittable = errors.New("form is incomplete or invalid")
)

// Delegate receives the action and a private copy of the collected values
// when a form is submitted.
type Delegate func(d action.Descriptor, values map[string]string)

// Controller holds the state of the form.
type Controller struct {
	state  State
	active *action.Descriptor
	values map[string]string
	errors map[string]string
}

// New returns a closed controller.
func New() *Controller {
	return &Controller{}
}

// Open starts a fresh form for d, dropping anything left from a previous one.
func (c *Controller) Open(d action.Descriptor) {
	c.active = &d
	c.values = make(map[string]string, len(d.Params))
	c.errors = make(map[string]string, len(d.Params))
	c.state = Open
}

// ChangeField stores raw for name and re-validates it against the declared kind.
func (c *Controller) ChangeField(name, raw string) error {
	if c.state != Open || c.active == nil {
		return ErrNotOpen
	}
	p, ok := c.active.Param(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	c.values[name] = raw
	c.errors[name] = action.Validate(p.Kind, raw)
	return nil
}

// CanSubmit reports whether every declared param has a value and no error.
func (c *Controller) CanSubmit() bool {
	if c.state != Open || c.active == nil {
		return false
	}
	for _, p := range c.active.Params {
		if c.values[p.Name] == "" || c.errors[p.Name] != "" {
			return false
		}
	}
	return true
}

// Cancel discards the form.
func (c *Controller) Cancel() {
	c.reset()
}

// Submit hands the form to fn and closes it. The form closes whatever fn
// later does with the submission; failures are reported elsewhere.
func (c *Controller) Submit(fn Delegate) error {
	if !c.CanSubmit() {
		return ErrNotSubmittable
	}
	c.state = Submitting
	d := *c.active
	values := maps.Clone(c.values)
	c.reset()
	if fn != nil {
		fn(d, values)
	}
	return nil
}

// State returns the current lifecycle state.
func (c *Controller) State() State { return c.state }

// Action returns the open action.
func (c *Controller) Action() (action.Descriptor, bool) {
	if c.active == nil {
		return action.Descriptor{}, false
	}
	return *c.active, true
}

// Field returns the current value and error message of a field.
func (c *Controller) Field(name string) (value, errMsg string) {
	return c.values[name], c.errors[name]
}

// Values returns a copy of the field values.
func (c *Controller) Values() map[string]string { return maps.Clone(c.values) }

// Errors returns a copy of the field errors.
func (c *Controller) Errors() map[string]string { return maps.Clone(c.errors) }

func (c *Controller) reset() {
	c.state = Closed
	c.active = nil
	c.values = nil
	c.errors = nil
}
