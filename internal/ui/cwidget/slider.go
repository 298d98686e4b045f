package cwidget

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// Slider is a titled slider that prints its current value.
type Slider struct {
	widget.BaseWidget

	labelWidget  *widget.Label
	sliderWidget *widget.Slider

	LabelText string

	muted     bool
	listeners Listeners[float64]
}

func NewSlider(label string, min, max, step, value float64) *Slider {
	s := &Slider{LabelText: label}

	s.labelWidget = widget.NewLabel("")
	s.labelWidget.TextStyle = fyne.TextStyle{Bold: true}

	s.sliderWidget = widget.NewSlider(min, max)
	s.sliderWidget.Step = step
	s.sliderWidget.Value = value
	s.sliderWidget.OnChanged = func(v float64) {
		s.refreshLabel()
		if !s.muted {
			s.listeners.Notify(v)
		}
	}

	s.refreshLabel()
	s.ExtendBaseWidget(s)
	return s
}

func (s *Slider) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(container.NewVBox(s.labelWidget, s.sliderWidget))
}

func (s *Slider) refreshLabel() {
	v := s.sliderWidget.Value
	if s.sliderWidget.Step >= 1 {
		s.labelWidget.SetText(fmt.Sprintf("%s: %d", s.LabelText, int(v)))
		return
	}
	s.labelWidget.SetText(fmt.Sprintf("%s: %.2f", s.LabelText, v))
}

func (s *Slider) Value() float64 {
	return s.sliderWidget.Value
}

// SetValue moves the slider and notifies listeners.
func (s *Slider) SetValue(v float64) {
	s.sliderWidget.SetValue(v)
}

// SetRange changes the bounds and value without notifying listeners.
func (s *Slider) SetRange(min, max, value float64) {
	s.muted = true
	defer func() { s.muted = false }()

	s.sliderWidget.Min = min
	s.sliderWidget.Max = max
	s.sliderWidget.Value = value
	s.sliderWidget.Refresh()
	s.refreshLabel()
}

func (s *Slider) AddListener(fn func(float64)) {
	s.listeners.Add(fn)
}
