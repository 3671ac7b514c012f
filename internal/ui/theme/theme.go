package theme

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	fynetheme "fyne.io/fyne/v2/theme"
)

// appTheme is the CardTap theme. It currently defers every lookup to the
// Fyne default theme.
type appTheme struct {
	base fyne.Theme
}

// Theme returns the application theme.
func Theme() fyne.Theme {
	return &appTheme{base: fynetheme.DefaultTheme()}
}

// Wrap applies the application theme to content.
func Wrap(content fyne.CanvasObject) fyne.CanvasObject {
	return container.NewThemeOverride(content, Theme())
}

func (t *appTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	return t.base.Color(name, variant)
}

func (t *appTheme) Font(style fyne.TextStyle) fyne.Resource {
	return t.base.Font(style)
}

func (t *appTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return t.base.Icon(name)
}

func (t *appTheme) Size(name fyne.ThemeSizeName) float32 {
	return t.base.Size(name)
}
