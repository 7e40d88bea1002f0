package config

// UIConfig holds terminal form configuration.
type UIConfig struct {
	// Theme is "light", "dark" or "auto" (detect from the terminal).
	Theme string `json:"theme" yaml:"theme"`
}

// IsDark resolves the theme choice. detected is the terminal's own hint.
func (u UIConfig) IsDark(detected bool) bool {
	switch u.Theme {
	case "dark":
		return true
	case "light":
		return false
	default:
		return detected
	}
}
