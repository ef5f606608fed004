package dxinterop

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/dxinterop/hal"
	"github.com/gogpu/dxinterop/internal/arena"
)

// MaxBatch is the largest number of textures LockTextures and UnlockTextures
// accept in one call.
const MaxBatch = 16

// SharedTextureFormat is the only format shared textures are allocated in.
const SharedTextureFormat = gputypes.TextureFormatRGBA8Unorm

// SharedTexture is a presentation-device texture registered with an interop
// channel so the rendering context can draw into it.
//
// Locked means the rendering side owns the texture. A new texture starts
// unlocked.
type SharedTexture struct {
	devices *Devices
	owner   arena.Ref

	id      uint32
	width   uint32
	height  uint32
	access  hal.Access
	texture hal.Texture
	view    hal.ShaderResourceView
	object  hal.InteropObject

	locked    bool
	destroyed bool
}

// RegisterSharedTexture allocates a width x height texture on dev's
// presentation device and registers it under the rendering API's texture
// name id. The rendering context must be current.
func RegisterSharedTexture(dev *InteropDevice, id, width, height uint32, access hal.Access) (*SharedTexture, error) {
	const op = "RegisterSharedTexture"

	if dev.closed {
		return nil, contractError(op, ErrStaleContext)
	}
	if width == 0 || height == 0 {
		return nil, contractError(op, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height))
	}

	tex, err := dev.device.CreateTexture2D(hal.TextureDesc{
		Width:  width,
		Height: height,
		Format: SharedTextureFormat,
		Usage:  gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageTextureBinding,
	})
	if err != nil {
		return nil, setupError(op, fmt.Errorf("create texture: %w", err))
	}
	view, err := dev.device.CreateShaderResourceView(tex)
	if err != nil {
		tex.Release()
		return nil, setupError(op, fmt.Errorf("create shader resource view: %w", err))
	}
	obj, err := dev.interop.RegisterObject(dev.channel, tex, id, hal.GLTexture2D, access)
	if err == nil && !obj.IsValid() {
		err = ErrInvalidHandle
	}
	if err != nil {
		view.Release()
		tex.Release()
		return nil, setupError(op, fmt.Errorf("register texture %d: %w", id, err))
	}
	dev.registered++

	Logger().Debug("dxinterop: shared texture registered",
		"id", id, "width", width, "height", height, "access", access)
	return &SharedTexture{
		devices: dev.devices,
		owner:   dev.ref,
		id:      id,
		width:   width,
		height:  height,
		access:  access,
		texture: tex,
		view:    view,
		object:  obj,
	}, nil
}

// ID returns the rendering API's name for the texture.
func (t *SharedTexture) ID() uint32 { return t.id }

// Size returns the texture dimensions.
func (t *SharedTexture) Size() (width, height uint32) { return t.width, t.height }

// Access returns the access hint the texture was registered with.
func (t *SharedTexture) Access() hal.Access { return t.access }

// Locked reports whether the rendering side owns the texture.
func (t *SharedTexture) Locked() bool { return t.locked }

// View returns the shader resource view of the texture.
func (t *SharedTexture) View() hal.ShaderResourceView { return t.view }

// Lock hands the texture to the rendering side.
func (t *SharedTexture) Lock() error { return LockTextures(t) }

// Unlock hands the texture to the presentation side.
func (t *SharedTexture) Unlock() error { return UnlockTextures(t) }

// LockTextures hands 1 to MaxBatch textures of one interop device to the
// rendering side in a single driver call. Either every texture changes state
// or none does.
func LockTextures(textures ...*SharedTexture) error {
	return transition("LockTextures", textures, true)
}

// UnlockTextures hands 1 to MaxBatch textures of one interop device to the
// presentation side in a single driver call. Either every texture changes
// state or none does.
func UnlockTextures(textures ...*SharedTexture) error {
	return transition("UnlockTextures", textures, false)
}

func transition(op string, textures []*SharedTexture, lock bool) error {
	if len(textures) == 0 || len(textures) > MaxBatch {
		return contractError(op, fmt.Errorf("%w: got %d", ErrBatchSize, len(textures)))
	}

	first := textures[0]
	for _, t := range textures[1:] {
		if t.devices != first.devices || t.owner != first.owner {
			return contractError(op, ErrMixedDevices)
		}
	}
	dev, ok := first.devices.lookup(first.owner)
	if !ok {
		return contractError(op, ErrStaleContext)
	}

	seen := make(map[*SharedTexture]bool, len(textures))
	handles := make([]hal.InteropObject, 0, len(textures))
	for _, t := range textures {
		if t.destroyed {
			return contractError(op, fmt.Errorf("%w: %d was destroyed", ErrTextureNotFound, t.id))
		}
		if t.locked == lock || seen[t] {
			if lock {
				return contractError(op, fmt.Errorf("%w: %d", ErrAlreadyLocked, t.id))
			}
			return contractError(op, fmt.Errorf("%w: %d", ErrAlreadyUnlocked, t.id))
		}
		seen[t] = true
		handles = append(handles, t.object)
	}

	var err error
	if lock {
		err = dev.interop.LockObjects(dev.channel, handles)
	} else {
		err = dev.interop.UnlockObjects(dev.channel, handles)
	}
	if err != nil {
		return deviceError(op, err)
	}
	for _, t := range textures {
		t.locked = lock
	}
	Logger().Debug("dxinterop: "+op, "count", len(textures), "first", first.id)
	return nil
}

// Destroy unlocks the texture if needed, unregisters it and releases its
// view and texture. Safe to call more than once.
//
// If a driver call fails the texture stays registered and keeps its
// presentation resources, so Destroy can be called again. If the owning
// device is gone the presentation resources are released and
// ErrStaleContext is returned.
func (t *SharedTexture) Destroy() error {
	const op = "SharedTexture.Destroy"
	if t.destroyed {
		return nil
	}

	dev, ok := t.devices.lookup(t.owner)
	if !ok {
		t.destroyed = true
		t.release()
		return contractError(op, ErrStaleContext)
	}

	if t.locked {
		if err := dev.interop.UnlockObjects(dev.channel, []hal.InteropObject{t.object}); err != nil {
			return deviceError(op, fmt.Errorf("unlock %d: %w", t.id, err))
		}
		t.locked = false
	}
	if err := dev.interop.UnregisterObject(dev.channel, t.object); err != nil {
		return deviceError(op, fmt.Errorf("unregister %d: %w", t.id, err))
	}
	t.destroyed = true
	dev.registered--
	t.release()
	Logger().Debug("dxinterop: shared texture destroyed", "id", t.id)
	return nil
}

func (t *SharedTexture) release() {
	if t.view != nil {
		t.view.Release()
		t.view = nil
	}
	if t.texture != nil {
		t.texture.Release()
		t.texture = nil
	}
}
