package tui

// Glyph bitmaps, MSB-first: bit 7 is column 0.
const (
	GlyphWidth  = 8
	GlyphHeight = 12
)

type glyph [GlyphHeight]uint8

var glyphs = map[rune]glyph{
	'0': {
		0b00111100,
		0b01100110,
		0b11000011,
		0b11000111,
		0b11001111,
		0b11011011,
		0b11110011,
		0b11100011,
		0b11000011,
		0b11000011,
		0b01100110,
		0b00111100,
	},
	'1': {
		0b00011000,
		0b00111000,
		0b01111000,
		0b00011000,
		0b00011000,
		0b00011000,
		0b00011000,
		0b00011000,
		0b00011000,
		0b00011000,
		0b00011000,
		0b01111110,
	},
	'2': {
		0b00111100,
		0b01100110,
		0b11000011,
		0b00000011,
		0b00000110,
		0b00001100,
		0b00011000,
		0b00110000,
		0b01100000,
		0b11000000,
		0b11000000,
		0b11111111,
	},
	'3': {
		0b01111110,
		0b11000011,
		0b00000011,
		0b00000011,
		0b00000110,
		0b00111100,
		0b00000110,
		0b00000011,
		0b00000011,
		0b11000011,
		0b11000011,
		0b01111110,
	},
	'4': {
		0b00001100,
		0b00011100,
		0b00111100,
		0b01101100,
		0b11001100,
		0b11001100,
		0b11111111,
		0b00001100,
		0b00001100,
		0b00001100,
		0b00001100,
		0b00001100,
	},
	'5': {
		0b11111111,
		0b11000000,
		0b11000000,
		0b11000000,
		0b11111100,
		0b00000110,
		0b00000011,
		0b00000011,
		0b00000011,
		0b11000011,
		0b01100110,
		0b00111100,
	},
	'6': {
		0b00111100,
		0b01100000,
		0b11000000,
		0b11000000,
		0b11111100,
		0b11100110,
		0b11000011,
		0b11000011,
		0b11000011,
		0b11000011,
		0b01100110,
		0b00111100,
	},
	'7': {
		0b11111111,
		0b00000011,
		0b00000011,
		0b00000110,
		0b00000110,
		0b00001100,
		0b00001100,
		0b00011000,
		0b00011000,
		0b00110000,
		0b00110000,
		0b00110000,
	},
	'8': {
		0b00111100,
		0b01100110,
		0b11000011,
		0b11000011,
		0b01100110,
		0b00111100,
		0b01100110,
		0b11000011,
		0b11000011,
		0b11000011,
		0b01100110,
		0b00111100,
	},
	'9': {
		0b00111100,
		0b01100110,
		0b11000011,
		0b11000011,
		0b11000011,
		0b01100111,
		0b00111111,
		0b00000011,
		0b00000011,
		0b00000110,
		0b00001100,
		0b01110000,
	},
	':': {
		0b00000000,
		0b00000000,
		0b00011000,
		0b00111100,
		0b00011000,
		0b00000000,
		0b00000000,
		0b00011000,
		0b00111100,
		0b00011000,
		0b00000000,
		0b00000000,
	},
}

// glyphFallback is drawn for characters without a bitmap.
var glyphFallback = glyph{
	0b11111111,
	0b10000001,
	0b10000001,
	0b10000001,
	0b10000001,
	0b10000001,
	0b10000001,
	0b10000001,
	0b10000001,
	0b10000001,
	0b10000001,
	0b11111111,
}

func lookupGlyph(s string) glyph {
	for _, r := range s {
		if g, ok := glyphs[r]; ok {
			return g
		}
		break
	}
	return glyphFallback
}

// set reports whether the glyph covers cell (col, row).
func (g glyph) set(col, row int) bool {
	if col < 0 || col >= GlyphWidth || row < 0 || row >= GlyphHeight {
		return false
	}
	return g[row]&(1<<(7-col)) != 0
}
