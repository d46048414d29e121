package yuv

// StripeMaskGenerator builds the channel-selection masks used to unpack
// byte planes uploaded as RGBA texels.
//
// The mask for width w has w RGBA texels; texel i has channel i%4 set to
// 0xff and the others zero, so dot(mask[i], packed[i/4]) selects byte i.
// Masks are generated once per width and kept for the generator's lifetime.
type StripeMaskGenerator struct {
	masks     map[int][]byte
	generated int
}

// NewStripeMaskGenerator returns an empty generator.
func NewStripeMaskGenerator() *StripeMaskGenerator {
	return &StripeMaskGenerator{masks: make(map[int][]byte)}
}

// Mask returns the RGBA mask bytes for the width. The returned slice is
// shared between calls and must not be modified.
func (g *StripeMaskGenerator) Mask(width int) []byte {
	if m, ok := g.masks[width]; ok {
		return m
	}
	m := buildStripeMask(width)
	g.masks[width] = m
	g.generated++
	return m
}

// Generated returns how many masks have been built.
func (g *StripeMaskGenerator) Generated() int {
	return g.generated
}

func buildStripeMask(width int) []byte {
	out := make([]byte, width*4)
	for i := 0; i < width; i++ {
		out[i*4+i%4] = 0xff
	}
	return out
}
