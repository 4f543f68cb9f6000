package mode

// Descriptor is the display metadata for a mode.
type Descriptor struct {
	Title    string
	Subtitle string
	Icon     string // emoji shown in confirmations
	Glyph    string // single-cell symbol for the terminal list
}

// HUD is the confirmation line shown after a successful switch.
func (d Descriptor) HUD() string { return d.Icon + " " + d.Title }

var descriptors = map[OutboundMode]Descriptor{
	Direct: {
		Title:    "Direct Outbound",
		Subtitle: "Connect directly without proxy",
		Icon:     "🔄",
		Glyph:    "→",
	},
	Proxy: {
		Title:    "Global Proxy",
		Subtitle: "Route all traffic through proxy",
		Icon:     "🌐",
		Glyph:    "◍",
	},
	Rule: {
		Title:    "Rule-Based Proxy",
		Subtitle: "Use rules to determine routing",
		Icon:     "📋",
		Glyph:    "≡",
	},
}

// Describe returns the descriptor for m.  Unknown modes get a
// descriptor whose title is the raw tag.
func Describe(m OutboundMode) Descriptor {
	if d, ok := descriptors[m]; ok {
		return d
	}
	return Descriptor{Title: m.String(), Icon: "?", Glyph: "?"}
}
