package entry

// DesktopModeName is the display name of the desktop application mode
const DesktopModeName = "Drun"

// Kind tells which pool a Mode refers to
type Kind int

const (
	KindDesktop Kind = iota
	KindCustom
)

// Mode is a named partition of the candidate space.
// The desktop mode has an empty Name; custom modes carry their configured name.
type Mode struct {
	Kind Kind
	Name string
}

// Desktop returns the desktop application mode
func Desktop() Mode {
	return Mode{Kind: KindDesktop}
}

// Custom returns the custom mode with the given name
func Custom(name string) Mode {
	return Mode{Kind: KindCustom, Name: name}
}

// IsDesktop reports whether m is the desktop mode
func (m Mode) IsDesktop() bool {
	return m.Kind == KindDesktop
}

func (m Mode) String() string {
	if m.Kind == KindDesktop {
		return DesktopModeName
	}
	return m.Name
}

// DesktopEntry is a parsed application entry. Name is its identity.
type DesktopEntry struct {
	Name       string // Display name, unique within the desktop mode
	Icon       string // Icon reference, empty when the entry has none
	Exec       string // Exec command line as written in the entry file
	SourcePath string // Path to the .desktop file
	Terminal   bool   // Whether to run in terminal
}

// Key returns the raw identity bytes of the entry
func (d DesktopEntry) Key() []byte {
	return []byte(d.Name)
}

// CustomEntry is one line produced by a custom mode's source command.
// Its identity is the pair (Mode, Text).
type CustomEntry struct {
	Mode string
	Text string
}
