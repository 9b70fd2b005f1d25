package colors

// Named palette in sRGB gamma.
var (
	Transparent = FromSRGB(0, 0, 0, 0)
	Black       = FromSRGB(0, 0, 0, 1)
	White       = FromSRGB(1, 1, 1, 1)
	Red         = FromSRGB(1, 0, 0, 1)
	Green       = FromSRGB(0, 0.5, 0, 1)
	Lime        = FromSRGB(0, 1, 0, 1)
	Blue        = FromSRGB(0, 0, 1, 1)
	Yellow      = FromSRGB(1, 1, 0, 1)
	Cyan        = FromSRGB(0, 1, 1, 1)
	Magenta     = FromSRGB(1, 0, 1, 1)
	Grey        = FromSRGB(0.5, 0.5, 0.5, 1)
	Orange      = FromSRGB(1, 0.647, 0, 1)
	Purple      = FromSRGB(0.5, 0, 0.5, 1)
	Brown       = FromSRGB(0.647, 0.165, 0.165, 1)
	Pink        = FromSRGB(1, 0.753, 0.796, 1)
	Navy        = FromSRGB(0, 0, 0.5, 1)
	Teal        = FromSRGB(0, 0.5, 0.5, 1)
	Olive       = FromSRGB(0.5, 0.5, 0, 1)
	Silver      = FromSRGB(0.753, 0.753, 0.753, 1)
	Maroon      = FromSRGB(0.5, 0, 0, 1)
)
