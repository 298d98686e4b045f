package cwidget

import (
	"slices"

	"fyne.io/fyne/v2/widget"
)

// Choices is a check group whose options can be replaced at runtime.
type Choices struct {
	*widget.CheckGroup

	listeners Listeners[[]string]
}

func NewChoices(options, selected []string) *Choices {
	c := &Choices{}
	c.CheckGroup = widget.NewCheckGroup(slices.Clone(options), nil)
	c.CheckGroup.Selected = slices.Clone(selected)
	c.CheckGroup.OnChanged = func(sel []string) { c.listeners.Notify(slices.Clone(sel)) }

	return c
}

// Update replaces options and selection without notifying listeners.
func (c *Choices) Update(options, selected []string) {
	c.CheckGroup.Options = slices.Clone(options)
	c.CheckGroup.Selected = slices.Clone(selected)
	c.CheckGroup.Refresh()
}

func (c *Choices) Value() []string {
	return slices.Clone(c.CheckGroup.Selected)
}

func (c *Choices) AddListener(fn func([]string)) {
	c.listeners.Add(fn)
}
