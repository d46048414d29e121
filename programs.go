package yuv

import (
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/yuv/gpucore"
)

// ShaderCompiler compiles WGSL source to SPIR-V words.
type ShaderCompiler func(source string) ([]uint32, error)

// CompileWGSL compiles WGSL to SPIR-V with naga. It is the default
// ShaderCompiler.
func CompileWGSL(source string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return nil, err
	}

	// SPIR-V is little-endian 32-bit words.
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}

// ProgramSource is everything needed to build a program on any device.
type ProgramSource struct {
	Label      string
	Attributes []string
	Samplers   []string
	Kernel     string
	Fragment   gpucore.FragmentFunc
}

// Attribute and sampler names.
const (
	attribPosition       = "position"
	attribLumaTexCoord   = "luma_texcoord"
	attribChromaTexCoord = "chroma_texcoord"
	attribTexCoord       = "texcoord"

	samplerY      = "texture_y"
	samplerCb     = "texture_cb"
	samplerCr     = "texture_cr"
	samplerPacked = "texture_packed"
	samplerStripe = "texture_stripe"
)

// colorConversionProgram samples the three planes and converts to RGB.
var colorConversionProgram = &ProgramSource{
	Label:      "yuv_convert",
	Attributes: []string{attribPosition, attribLumaTexCoord, attribChromaTexCoord},
	Samplers:   []string{samplerY, samplerCb, samplerCr},
	Kernel:     yuvConvertKernel,
	Fragment:   convertFragment,
}

// stripeUnpackProgram expands a packed plane into a luminance texture.
var stripeUnpackProgram = &ProgramSource{
	Label:      "stripe_unpack",
	Attributes: []string{attribPosition, attribTexCoord},
	Samplers:   []string{samplerPacked, samplerStripe},
	Kernel:     stripeUnpackKernel,
	Fragment:   unpackFragment,
}

func convertFragment(v []gpucore.Vec2, s []gpucore.Sampler) gpucore.Color {
	y := s[0].Sample(v[0][0], v[0][1]).R
	cb := s[1].Sample(v[1][0], v[1][1]).R
	cr := s[2].Sample(v[1][0], v[1][1]).R
	r, g, b := ConvertBT601(y, cb, cr)
	return gpucore.Color{R: r, G: g, B: b, A: 1}
}

func unpackFragment(v []gpucore.Vec2, s []gpucore.Sampler) gpucore.Color {
	packed := s[0].Sample(v[0][0], v[0][1])
	stripe := s[1].Sample(v[0][0], v[0][1])
	l := stripe.R*packed.R + stripe.G*packed.G + stripe.B*packed.B + stripe.A*packed.A
	return gpucore.Color{R: l, G: l, B: l, A: 1}
}

// Program is a linked program with its resolved locations.
type Program struct {
	ID    gpucore.ProgramID
	Label string

	attributes map[string]int
	samplers   map[string]int
}

// Attrib returns the location of a vertex attribute, or -1.
func (p *Program) Attrib(name string) int {
	if loc, ok := p.attributes[name]; ok {
		return loc
	}
	return -1
}

// Sampler returns the location of a sampler, or -1.
func (p *Program) Sampler(name string) int {
	if loc, ok := p.samplers[name]; ok {
		return loc
	}
	return -1
}

// ProgramCache compiles and links programs on first use and keeps them
// for the life of the sink.
type ProgramCache struct {
	device   gpucore.Device
	compile  ShaderCompiler
	programs map[string]*Program
}

// NewProgramCache returns an empty cache. A nil compiler selects CompileWGSL.
func NewProgramCache(device gpucore.Device, compile ShaderCompiler) *ProgramCache {
	if compile == nil {
		compile = CompileWGSL
	}
	return &ProgramCache{
		device:   device,
		compile:  compile,
		programs: make(map[string]*Program),
	}
}

// Get returns the program for the source, building it on first request.
// Kernels are compiled only for devices that execute SPIR-V.
func (c *ProgramCache) Get(src *ProgramSource) (*Program, error) {
	if p, ok := c.programs[src.Label]; ok {
		return p, nil
	}

	desc := &gpucore.ProgramDescriptor{
		Label:      src.Label,
		Attributes: src.Attributes,
		Samplers:   src.Samplers,
		Kernel:     src.Kernel,
		Fragment:   src.Fragment,
	}
	if c.device.Capabilities().ShaderFormat == gpucore.ShaderFormatSPIRV {
		spirv, err := c.compile(src.Kernel)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrShaderCompile, src.Label, err)
		}
		desc.SPIRV = spirv
	}

	id, err := c.device.CreateProgram(desc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrProgramLink, src.Label, err)
	}
	p := &Program{
		ID:         id,
		Label:      src.Label,
		attributes: make(map[string]int, len(src.Attributes)),
		samplers:   make(map[string]int, len(src.Samplers)),
	}
	for _, name := range src.Attributes {
		loc := c.device.AttribLocation(id, name)
		if loc < 0 {
			c.device.DestroyProgram(id)
			return nil, fmt.Errorf("%w: %s: attribute %s is not active", ErrProgramLink, src.Label, name)
		}
		p.attributes[name] = loc
	}
	for _, name := range src.Samplers {
		loc := c.device.SamplerLocation(id, name)
		if loc < 0 {
			c.device.DestroyProgram(id)
			return nil, fmt.Errorf("%w: %s: sampler %s is not active", ErrProgramLink, src.Label, name)
		}
		p.samplers[name] = loc
	}

	c.programs[src.Label] = p
	Logger().Debug("yuv: program linked", "program", src.Label, "id", id)
	return p, nil
}

// Len returns the number of linked programs.
func (c *ProgramCache) Len() int {
	return len(c.programs)
}

// Destroy releases every program.
func (c *ProgramCache) Destroy() {
	for label, p := range c.programs {
		c.device.DestroyProgram(p.ID)
		delete(c.programs, label)
	}
}
