package scenario

import "sort"

var presets = map[string][]string{
	// Single-file corridor with an exit at the far end.
	"corridor": {
		"000000000000000E",
	},

	// Open hall with a doorway on each side wall.
	"hall": {
		"XXXXXXXXXXXXXXXX",
		"X00000000000000X",
		"X00000000000000X",
		"X000X000000X000X",
		"E00000000000000E",
		"X000X000000X000X",
		"X00000000000000X",
		"X00000000000000X",
		"XXXXXXXXXXXXXXXX",
	},

	// Room narrowing into a single exit; the classic crush point.
	"funnel": {
		"000000000000",
		"000000000000",
		"X0000000000X",
		"XX00000000XX",
		"XXX000000XXX",
		"XXXX0000XXXX",
		"XXXXX00XXXXX",
		"XXXXXEEXXXXX",
	},

	// Stadium stand: seating rows split by obstacles, exits at the bottom.
	"stadium": {
		"0000000000000000",
		"0XXXXXX00XXXXXX0",
		"0000000000000000",
		"0XXXXXX00XXXXXX0",
		"0000000000000000",
		"0XXXXXX00XXXXXX0",
		"0000000000000000",
		"XXXEXXXXXXXXEXXX",
	},
}

// Preset returns a copy of a named fixed layout.
func Preset(name string) ([]string, bool) {
	layout, ok := presets[name]
	if !ok {
		return nil, false
	}
	return append([]string(nil), layout...), true
}

// Presets lists the preset names in sorted order.
func Presets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
