package region

// Swatch is a named region colour.
type Swatch struct {
	Name string
	Hex  string
}

var palette = []Swatch{
	{"Red", "#FF0000"},
	{"Lime", "#00FF00"},
	{"Blue", "#0000FF"},
	{"Yellow", "#FFFF00"},
	{"Cyan", "#00FFFF"},
	{"Magenta", "#FF00FF"},
	{"Maroon", "#800000"},
	{"Green", "#008000"},
	{"Navy", "#000080"},
	{"Olive", "#808000"},
	{"Teal", "#008080"},
	{"Purple", "#800080"},
}

// Palette returns the colours assigned to new regions.
func Palette() []Swatch {
	out := make([]Swatch, len(palette))
	copy(out, palette)
	return out
}

// ColorFor returns the palette colour for the class at index i of the class
// list. Unclassified regions (i < 0) take the first colour.
func ColorFor(i int) string {
	if i < 0 {
		i = 0
	}
	return palette[i%len(palette)].Hex
}
