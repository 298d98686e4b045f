package ui

import (
	"fmt"

	"swapstudio/internal/ui/core"
	_ "swapstudio/internal/ui/layouts"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"go.uber.org/zap"
)

const appID = "io.github.swapstudio"

type SwapApp struct {
	fyneApp fyne.App
	mainWin fyne.Window

	env        *core.Env
	configPath string
}

func CreateApp(env *core.Env, configPath string) *SwapApp {
	a := app.NewWithID(appID)
	return NewWithApp(a, env, configPath)
}

// NewWithApp builds the window on an existing fyne app.
func NewWithApp(a fyne.App, env *core.Env, configPath string) *SwapApp {
	w := a.NewWindow("swapstudio")
	w.Resize(fyne.NewSize(1400, 900))

	env.Window = w
	if env.Registry == nil {
		env.Registry = core.DefaultRegistry()
	}

	return &SwapApp{
		fyneApp:    a,
		mainWin:    w,
		env:        env,
		configPath: configPath,
	}
}

func (a *SwapApp) Window() fyne.Window {
	return a.mainWin
}

// Build loads every configured layout and puts them into the window.
func (a *SwapApp) Build() error {
	names := a.env.Config.GetUILayouts()
	if len(names) == 0 {
		return fmt.Errorf("no UI layout configured")
	}

	items := make([]*container.TabItem, 0, len(names))
	for _, name := range names {
		l, err := core.LoadLayout(name, a.env)
		if err != nil {
			return err
		}
		items = append(items, container.NewTabItem(name, l.Render()))

		l.Listen()
		a.env.Logger().Debug("layout loaded", zap.String("layout", name))
	}

	if len(items) == 1 {
		a.mainWin.SetContent(items[0].Content)
	} else {
		a.mainWin.SetContent(container.NewAppTabs(items...))
	}

	a.mainWin.SetCloseIntercept(a.shutdown)
	return nil
}

func (a *SwapApp) shutdown() {
	a.env.Close()

	if err := a.env.Config.Save(a.configPath); err != nil {
		a.env.Logger().Error("failed to save config", zap.String("path", a.configPath), zap.Error(err))
	}
	a.mainWin.Close()
}

func (a *SwapApp) Run() error {
	if err := a.Build(); err != nil {
		return err
	}

	a.mainWin.CenterOnScreen()
	a.mainWin.ShowAndRun()
	return nil
}
