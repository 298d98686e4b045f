package cwidget

import "fyne.io/fyne/v2/widget"

// Toggle is a check box that any number of listeners can follow.
type Toggle struct {
	*widget.Check

	listeners Listeners[bool]
}

func NewToggle(label string, checked bool) *Toggle {
	t := &Toggle{}
	t.Check = widget.NewCheck(label, nil)
	t.Check.Checked = checked
	t.Check.OnChanged = func(b bool) { t.listeners.Notify(b) }

	return t
}

func (t *Toggle) AddListener(fn func(bool)) {
	t.listeners.Add(fn)
}
