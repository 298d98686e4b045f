package cwidget

import (
	"testing"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntInputValidates(t *testing.T) {
	test.NewTempApp(t)

	var got []int
	in := NewIntInput("TRIM", "frame", 0, 0, 100, func(v int) { got = append(got, v) })

	in.entryWidget.SetText("42")
	in.entryWidget.SetText("abc")
	in.entryWidget.SetText("101")
	assert.False(t, in.errorWidget.Hidden)

	assert.Equal(t, []int{42}, got)

	v, ok := in.Value()
	assert.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestIntInputEmptyEntryClears(t *testing.T) {
	test.NewTempApp(t)

	var got []int
	cleared := 0
	in := NewIntInput("TRIM", "frame", 0, 0, 100, func(v int) { got = append(got, v) })
	in.OnCleared = func() { cleared++ }

	in.entryWidget.SetText("42")
	in.entryWidget.SetText("")

	assert.Equal(t, []int{42}, got, "an empty entry must not report the zero value")
	assert.Equal(t, 1, cleared)

	_, ok := in.Value()
	assert.False(t, ok)
	assert.True(t, in.errorWidget.Hidden)
	assert.Equal(t, "TRIM", in.labelWidget.Text)
}

func TestIntInputSetValueIsQuiet(t *testing.T) {
	test.NewTempApp(t)

	calls := 0
	in := NewIntInput("TRIM", "", 0, 0, Unbounded, func(int) { calls++ })

	in.SetRange(0, 10)
	in.SetValue(7)
	assert.Equal(t, "TRIM: 7", in.labelWidget.Text)

	in.Clear()
	_, ok := in.Value()
	assert.False(t, ok)
	assert.Equal(t, "TRIM", in.labelWidget.Text)
	assert.Zero(t, calls)
}

func TestToggleNotifiesListeners(t *testing.T) {
	test.NewTempApp(t)

	tg := NewToggle("MANY FACES", false)
	var a, b []bool
	tg.AddListener(func(v bool) { a = append(a, v) })
	tg.AddListener(func(v bool) { b = append(b, v) })

	test.Tap(tg.Check)
	test.Tap(tg.Check)

	assert.Equal(t, []bool{true, false}, a)
	assert.Equal(t, a, b)
}

func TestChoicesUpdateIsQuiet(t *testing.T) {
	test.NewTempApp(t)

	c := NewChoices([]string{"a", "b"}, []string{"a"})
	calls := 0
	c.AddListener(func([]string) { calls++ })

	c.Update([]string{"b", "a", "c"}, []string{"b"})
	assert.Equal(t, []string{"b", "a", "c"}, c.Options)
	assert.Equal(t, []string{"b"}, c.Value())
	assert.Zero(t, calls)

	c.OnChanged([]string{"b", "c"})
	assert.Equal(t, 1, calls)
}

func TestSliderRange(t *testing.T) {
	test.NewTempApp(t)

	s := NewSlider("FRAME", 0, 10, 1, 0)
	var got []float64
	s.AddListener(func(v float64) { got = append(got, v) })

	s.SetRange(0, 500, 250)
	assert.Empty(t, got)
	assert.Equal(t, "FRAME: 250", s.labelWidget.Text)

	s.SetValue(300)
	require.Len(t, got, 1)
	assert.Equal(t, 300.0, got[0])
}

func TestFilePickerNotifiesOnSetPath(t *testing.T) {
	test.NewTempApp(t)

	p := NewFilePicker("SOURCE", []string{".png"}, nil)
	var got []string
	p.AddListener(func(s string) { got = append(got, s) })

	p.SetInitial("/tmp/a.png")
	assert.Empty(t, got)
	assert.Equal(t, "a.png", p.pathWidget.Text)

	p.SetPath("/tmp/b.png")
	p.Clear()
	assert.Equal(t, []string{"/tmp/b.png", ""}, got)
	assert.Equal(t, "", p.Path())
}
