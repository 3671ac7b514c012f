package theme

import (
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	fynetheme "fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThemeMatchesDefault(t *testing.T) {
	base := fynetheme.DefaultTheme()
	th := Theme()

	for _, variant := range []fyne.ThemeVariant{fynetheme.VariantLight, fynetheme.VariantDark} {
		assert.Equal(t, base.Color(fynetheme.ColorNamePrimary, variant), th.Color(fynetheme.ColorNamePrimary, variant))
		assert.Equal(t, base.Color(fynetheme.ColorNameBackground, variant), th.Color(fynetheme.ColorNameBackground, variant))
	}
	assert.Equal(t, base.Size(fynetheme.SizeNamePadding), th.Size(fynetheme.SizeNamePadding))
	assert.Equal(t, base.Font(fyne.TextStyle{Bold: true}), th.Font(fyne.TextStyle{Bold: true}))
	assert.Equal(t, base.Icon(fynetheme.IconNameConfirm), th.Icon(fynetheme.IconNameConfirm))
}

func TestWrapKeepsContent(t *testing.T) {
	label := widget.NewLabel("hello")

	wrapped := Wrap(label)

	override, ok := wrapped.(*container.ThemeOverride)
	require.True(t, ok)
	assert.Same(t, label, override.Content)
}
