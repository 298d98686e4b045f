package cwidget

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

type Input[T cmp.Ordered] struct {
	widget.BaseWidget

	labelWidget *widget.Label
	entryWidget *widget.Entry
	errorWidget *widget.Label

	LabelText   string
	Placeholder string

	DefaultValue T
	Min, Max     T

	OnChanged   func(T)
	OnSubmitted func(T)
	// OnCleared is called instead of OnChanged when the entry is emptied.
	OnCleared func()

	Validator func(string) (T, error)
	Format    func(T) string

	value T
	set   bool
	muted bool
}

// NewIntInput is a numeric entry accepting integers in [min, max]. An empty
// entry holds no value.
func NewIntInput(label, placeholder string, defaultValue, min, max int, onChanged func(int)) *Input[int] {
	input := &Input[int]{
		LabelText:    label,
		Placeholder:  placeholder,
		OnChanged:    onChanged,
		DefaultValue: defaultValue,
		Min:          min,
		Max:          max,
		Format:       strconv.Itoa,
	}

	input.Validator = func(s string) (int, error) {
		res, err := strconv.Atoi(s)
		if err != nil {
			return input.DefaultValue, errors.New("not an integer")
		}

		if res < input.Min || res > input.Max {
			return input.DefaultValue, fmt.Errorf("out of range [%d, %d]", input.Min, input.Max)
		}

		return res, nil
	}

	input.build()
	return input
}

// Unbounded is the upper limit of an input without a known maximum.
const Unbounded = math.MaxInt32

func (item *Input[T]) build() {
	item.labelWidget = widget.NewLabel(item.LabelText)
	item.labelWidget.TextStyle = fyne.TextStyle{Bold: true}

	item.entryWidget = widget.NewEntry()
	item.entryWidget.SetPlaceHolder(item.Placeholder)

	item.errorWidget = widget.NewLabel("")
	item.errorWidget.Hidden = true
	item.errorWidget.TextStyle = fyne.TextStyle{Italic: true}
	item.errorWidget.Importance = widget.DangerImportance

	item.entryWidget.OnChanged = func(s string) {
		if item.muted {
			return
		}

		if s == "" {
			var zero T
			item.value, item.set = zero, false
			item.SetError(nil)
			item.refreshLabel()
			if item.OnCleared != nil {
				item.OnCleared()
			}
			return
		}

		res, err := item.Validator(s)
		item.SetError(err)

		if err == nil {
			item.value, item.set = res, true
			item.refreshLabel()
			if item.OnChanged != nil {
				item.OnChanged(res)
			}
		}
	}

	item.entryWidget.OnSubmitted = func(s string) {
		if s == "" {
			return
		}
		if res, err := item.Validator(s); err == nil && item.OnSubmitted != nil {
			item.OnSubmitted(res)
		}
	}

	item.ExtendBaseWidget(item)
}

func (item *Input[T]) CreateRenderer() fyne.WidgetRenderer {
	c := container.NewVBox(
		item.labelWidget,
		item.entryWidget,
		item.errorWidget,
	)

	return widget.NewSimpleRenderer(c)
}

func (item *Input[T]) refreshLabel() {
	if !item.set {
		item.labelWidget.SetText(item.LabelText)
		return
	}
	item.labelWidget.SetText(fmt.Sprintf("%s: %s", item.LabelText, item.Format(item.value)))
}

func (item *Input[T]) SetError(err error) {
	item.errorWidget.Hidden = err == nil
	if err != nil {
		item.errorWidget.SetText(err.Error())
	}
	item.errorWidget.Refresh()
}

// SetValue shows v without calling OnChanged.
func (item *Input[T]) SetValue(v T) {
	item.value, item.set = v, true

	item.muted = true
	item.entryWidget.SetText(item.Format(v))
	item.muted = false

	item.SetError(nil)
	item.refreshLabel()
}

// Value returns the current value and whether one is set.
func (item *Input[T]) Value() (T, bool) {
	return item.value, item.set
}

// Clear empties the entry without calling OnChanged.
func (item *Input[T]) Clear() {
	var zero T
	item.value, item.set = zero, false

	item.muted = true
	item.entryWidget.SetText("")
	item.muted = false

	item.SetError(nil)
	item.refreshLabel()
}

func (item *Input[T]) SetRange(min, max T) {
	item.Min, item.Max = min, max
}

func (item *Input[T]) SetText(text string) {
	item.entryWidget.SetText(text)
}
