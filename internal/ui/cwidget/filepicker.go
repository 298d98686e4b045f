package cwidget

import (
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
)

// FilePicker shows the chosen file name with open and clear buttons.
type FilePicker struct {
	widget.BaseWidget

	labelWidget *widget.Label
	pathWidget  *widget.Label
	openButton  *widget.Button
	clearButton *widget.Button

	LabelText  string
	Extensions []string

	window    fyne.Window
	path      string
	listeners Listeners[string]
}

func NewFilePicker(label string, extensions []string, window fyne.Window) *FilePicker {
	p := &FilePicker{
		LabelText:  label,
		Extensions: extensions,
		window:     window,
	}

	p.labelWidget = widget.NewLabel(label)
	p.labelWidget.TextStyle = fyne.TextStyle{Bold: true}

	p.pathWidget = widget.NewLabel("")
	p.pathWidget.Truncation = fyne.TextTruncateEllipsis

	p.openButton = widget.NewButton("Open", p.Open)
	p.clearButton = widget.NewButton("Clear", p.Clear)

	p.ExtendBaseWidget(p)
	return p
}

func (p *FilePicker) CreateRenderer() fyne.WidgetRenderer {
	buttons := container.NewHBox(p.openButton, p.clearButton)
	c := container.NewBorder(nil, nil, p.labelWidget, buttons, p.pathWidget)

	return widget.NewSimpleRenderer(c)
}

// Open shows a file dialog filtered to the accepted extensions.
func (p *FilePicker) Open() {
	if p.window == nil {
		return
	}

	d := dialog.NewFileOpen(func(r fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, p.window)
			return
		}
		if r == nil {
			return
		}

		path := r.URI().Path()
		r.Close()
		p.SetPath(path)
	}, p.window)

	if len(p.Extensions) > 0 {
		d.SetFilter(storage.NewExtensionFileFilter(p.Extensions))
	}
	d.Show()
}

func (p *FilePicker) Clear() {
	p.SetPath("")
}

// SetPath changes the selection and notifies listeners.
func (p *FilePicker) SetPath(path string) {
	p.SetInitial(path)
	p.listeners.Notify(path)
}

// SetInitial changes the selection without notifying listeners.
func (p *FilePicker) SetInitial(path string) {
	p.path = path

	name := ""
	if path != "" {
		name = filepath.Base(path)
	}
	p.pathWidget.SetText(name)
}

func (p *FilePicker) Path() string {
	return p.path
}

func (p *FilePicker) AddListener(fn func(string)) {
	p.listeners.Add(fn)
}
