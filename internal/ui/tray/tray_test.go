package tray

import (
	"testing"

	"fyne.io/fyne/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingApp struct {
	menus []*fyne.Menu
}

func (app *recordingApp) SetSystemTrayMenu(menu *fyne.Menu) {
	app.menus = append(app.menus, menu)
}

func (app *recordingApp) last() *fyne.Menu {
	return app.menus[len(app.menus)-1]
}

func TestManagerInstallsMenu(t *testing.T) {
	app := &recordingApp{}

	New(app, Callbacks{})

	require.Len(t, app.menus, 1)
	items := app.last().Items
	assert.Equal(t, "Status: starting...", items[0].Label)
	assert.True(t, items[0].Disabled)
	assert.Equal(t, "Check in", items[1].Label)
}

func TestManagerUpdatesLabels(t *testing.T) {
	app := &recordingApp{}
	manager := New(app, Callbacks{})

	manager.SetStatus("on break")
	manager.SetActionLabel("End break")

	items := app.last().Items
	assert.Equal(t, "Status: on break", items[0].Label)
	assert.Equal(t, "End break", items[1].Label)
}

func TestManagerRoutesCallbacks(t *testing.T) {
	app := &recordingApp{}
	var calls []string
	New(app, Callbacks{
		OnShow:        func() { calls = append(calls, "show") },
		OnAdvance:     func() { calls = append(calls, "advance") },
		OnPreferences: func() { calls = append(calls, "prefs") },
		OnQuit:        func() { calls = append(calls, "quit") },
	})

	for _, item := range app.last().Items {
		if item.Action != nil {
			item.Action()
		}
	}

	assert.Equal(t, []string{"advance", "show", "prefs", "quit"}, calls)
}
