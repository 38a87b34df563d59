package output

import (
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// namedColors maps friendly names onto the ANSI palette.
var namedColors = map[string]string{
	"black":          "0",
	"red":            "1",
	"green":          "2",
	"yellow":         "3",
	"blue":           "4",
	"magenta":        "5",
	"cyan":           "6",
	"white":          "7",
	"gray":           "8",
	"grey":           "8",
	"bright_black":   "8",
	"bright_red":     "9",
	"bright_green":   "10",
	"bright_yellow":  "11",
	"bright_blue":    "12",
	"bright_magenta": "13",
	"bright_cyan":    "14",
	"bright_white":   "15",
}

// Palette resolves level names to terminal escape sequences for one output.
type Palette struct {
	profile termenv.Profile
	levels  map[string]string
	change  string
}

// DetectProfile reports the color capability of w the way lipgloss sees it.
func DetectProfile(w io.Writer) termenv.Profile {
	return lipgloss.NewRenderer(w).ColorProfile()
}

// NewPalette builds a palette from level->color and the source change color.
// Colors may be names ("red"), ANSI numbers ("196") or hex ("#ff8800").
// Level lookups are case-insensitive.
func NewPalette(profile termenv.Profile, levels map[string]string, change string) Palette {
	p := Palette{
		profile: profile,
		levels:  make(map[string]string, len(levels)),
	}
	for level, color := range levels {
		p.levels[strings.ToLower(strings.TrimSpace(level))] = p.sequence(color)
	}
	p.change = p.sequence(change)
	return p
}

// Level returns the escape sequence for level, or "" for the default color.
func (p Palette) Level(level string) string {
	return p.levels[strings.ToLower(strings.TrimSpace(level))]
}

// Change returns the escape sequence used for source transition banners.
func (p Palette) Change() string {
	return p.change
}

// Reset returns the sequence that restores the terminal default, or "" when
// the profile has no color support.
func (p Palette) Reset() string {
	if p.profile == termenv.Ascii {
		return ""
	}
	return termenv.CSI + termenv.ResetSeq + "m"
}

func (p Palette) sequence(color string) string {
	color = strings.ToLower(strings.TrimSpace(color))
	if color == "" || color == "none" || color == "default" {
		return ""
	}
	if code, ok := namedColors[color]; ok {
		color = code
	}
	seq := p.profile.Color(color)
	if seq == nil {
		return ""
	}
	s := seq.Sequence(false)
	if s == "" {
		return ""
	}
	return termenv.CSI + s + "m"
}

// ValidColor reports whether color is a name, ANSI number or hex value the
// palette understands.
func ValidColor(color string) bool {
	color = strings.ToLower(strings.TrimSpace(color))
	switch color {
	case "", "none", "default":
		return true
	}
	if _, ok := namedColors[color]; ok {
		return true
	}
	if hexColor.MatchString(color) {
		return true
	}
	n, err := strconv.Atoi(color)
	return err == nil && n >= 0 && n <= 255
}

var hexColor = regexp.MustCompile(`^#([0-9a-f]{3}|[0-9a-f]{6})$`)
