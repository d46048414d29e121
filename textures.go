package yuv

import (
	"fmt"

	"github.com/gogpu/yuv/gpucore"
)

// TextureStats counts texture cache activity.
type TextureStats struct {
	// Allocations counts storage (re)specifications.
	Allocations int

	// Updates counts uploads that reused existing storage.
	Updates int

	// Invalidations counts wholesale cache clears.
	Invalidations int
}

// cachedTexture is a texture handle and the storage it was last given.
// A zero descriptor means no storage has been specified yet.
type cachedTexture struct {
	id   gpucore.TextureID
	desc gpucore.TextureDescriptor
}

// TextureCache owns the textures and framebuffers of one frame sink, keyed
// by logical name.
//
// Handles live until Invalidate; storage is specified on first use and
// re-specified on the same handle only when its descriptor changes.
type TextureCache struct {
	device       gpucore.Device
	textures     map[string]*cachedTexture
	framebuffers map[string]gpucore.FramebufferID
	stats        TextureStats
}

// NewTextureCache returns an empty cache for the device.
func NewTextureCache(device gpucore.Device) *TextureCache {
	return &TextureCache{
		device:       device,
		textures:     make(map[string]*cachedTexture),
		framebuffers: make(map[string]gpucore.FramebufferID),
	}
}

func (c *TextureCache) entry(name string) (*cachedTexture, error) {
	if t, ok := c.textures[name]; ok {
		return t, nil
	}
	id, err := c.device.CreateTexture(name)
	if err != nil {
		return nil, fmt.Errorf("create texture %s: %w", name, err)
	}
	t := &cachedTexture{id: id}
	c.textures[name] = t
	return t, nil
}

// Upload writes data to the named texture, allocating storage if the
// texture has none with this descriptor and updating it in place otherwise.
func (c *TextureCache) Upload(name string, desc gpucore.TextureDescriptor, data []byte) (gpucore.TextureID, error) {
	t, err := c.entry(name)
	if err != nil {
		return gpucore.InvalidID, err
	}
	if t.desc == desc {
		if err := c.device.TexSubImage(t.id, data); err != nil {
			return gpucore.InvalidID, fmt.Errorf("update texture %s: %w", name, err)
		}
		c.stats.Updates++
		return t.id, nil
	}
	if err := c.specify(name, t, desc, data); err != nil {
		return gpucore.InvalidID, err
	}
	return t.id, nil
}

// UploadOnce uploads static data the first time a descriptor is seen and
// returns the existing texture afterwards.
func (c *TextureCache) UploadOnce(name string, desc gpucore.TextureDescriptor, data []byte) (gpucore.TextureID, error) {
	t, err := c.entry(name)
	if err != nil {
		return gpucore.InvalidID, err
	}
	if t.desc != desc {
		if err := c.specify(name, t, desc, data); err != nil {
			return gpucore.InvalidID, err
		}
	}
	return t.id, nil
}

// Allocate ensures the named texture has zeroed storage for the descriptor.
// It is the render target form of Upload.
func (c *TextureCache) Allocate(name string, desc gpucore.TextureDescriptor) (gpucore.TextureID, error) {
	return c.UploadOnce(name, desc, nil)
}

func (c *TextureCache) specify(name string, t *cachedTexture, desc gpucore.TextureDescriptor, data []byte) error {
	if err := c.device.TexImage(t.id, &desc, data); err != nil {
		t.desc = gpucore.TextureDescriptor{}
		return fmt.Errorf("allocate texture %s %dx%d: %w", name, desc.Width, desc.Height, err)
	}
	t.desc = desc
	c.stats.Allocations++
	Logger().Debug("yuv: texture allocated",
		"name", name, "width", desc.Width, "height", desc.Height,
		"format", desc.Format, "filter", desc.Filter)
	return nil
}

// Texture returns the named texture handle.
func (c *TextureCache) Texture(name string) (gpucore.TextureID, bool) {
	t, ok := c.textures[name]
	if !ok {
		return gpucore.InvalidID, false
	}
	return t.id, true
}

// Framebuffer returns the framebuffer rendering into the named texture,
// creating it on first use.
func (c *TextureCache) Framebuffer(name string) (gpucore.FramebufferID, error) {
	if fb, ok := c.framebuffers[name]; ok {
		return fb, nil
	}
	t, ok := c.textures[name]
	if !ok {
		return gpucore.InvalidID, fmt.Errorf("framebuffer %s: no texture", name)
	}
	fb, err := c.device.CreateFramebuffer(name, t.id)
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("create framebuffer %s: %w", name, err)
	}
	c.framebuffers[name] = fb
	return fb, nil
}

// Invalidate destroys every cached framebuffer and texture.
func (c *TextureCache) Invalidate() {
	for name, fb := range c.framebuffers {
		c.device.DestroyFramebuffer(fb)
		delete(c.framebuffers, name)
	}
	for name, t := range c.textures {
		c.device.DestroyTexture(t.id)
		delete(c.textures, name)
	}
	c.stats.Invalidations++
}

// Len returns the number of cached textures.
func (c *TextureCache) Len() int {
	return len(c.textures)
}

// Stats returns the cache counters.
func (c *TextureCache) Stats() TextureStats {
	return c.stats
}
