// ABOUTME: Theme tags for diary entries and the UI.
// ABOUTME: Normalizes theme names to lowercase with trimmed whitespace.

package models

import "strings"

type Theme string

const (
	ThemeMatrix Theme = "matrix"
	ThemeRain   Theme = "rain"
	ThemeSnow   Theme = "snow"
	ThemeSunny  Theme = "sunny"
	ThemeCloudy Theme = "cloudy"
	ThemeRainy  Theme = "rainy"
	ThemeSnowy  Theme = "snowy"

	DefaultTheme = ThemeMatrix
)

var themes = []Theme{ThemeMatrix, ThemeRain, ThemeSnow, ThemeSunny, ThemeCloudy, ThemeRainy, ThemeSnowy}

func ParseTheme(name string) (Theme, bool) {
	t := Theme(strings.ToLower(strings.TrimSpace(name)))
	return t, t.Valid()
}

func Themes() []Theme {
	out := make([]Theme, len(themes))
	copy(out, themes)
	return out
}

func (t Theme) Valid() bool {
	for _, known := range themes {
		if t == known {
			return true
		}
	}
	return false
}

func (t Theme) String() string {
	return string(t)
}
