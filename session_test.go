package dxinterop

import (
	"errors"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/dxinterop/hal"
	"github.com/gogpu/dxinterop/internal/halfake"
)

func newTestSession(t *testing.T, opts ...Option) (*Session, *halfake.Platform) {
	t.Helper()
	p := halfake.New()
	w := p.NewWindow(800, 600)
	s, err := NewSession(w, append([]Option{WithPlatform(p)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, p
}

// assertReleased checks that nothing created by a session survives it.
func assertReleased(t *testing.T, p *halfake.Platform) {
	t.Helper()
	assert.Equal(t, 0, p.LiveObjects(), "presentation objects")
	assert.Equal(t, 0, p.LiveContexts(), "rendering contexts")
	assert.Equal(t, 0, p.LiveWindows(), "surface windows")
	assert.Equal(t, 0, p.OpenChannels(), "interop devices")
	assert.Equal(t, 0, p.RegisteredObjects(), "interop objects")
	assert.Empty(t, p.Violations())
}

func TestNewSession(t *testing.T) {
	s, p := newTestSession(t)

	scs := p.SwapChains()
	require.Len(t, scs, 1)
	desc, err := scs[0].Desc()
	require.NoError(t, err)
	assert.Equal(t, hal.SwapChainDesc{
		Width:       800,
		Height:      600,
		Format:      SurfaceFormat,
		BufferCount: 2,
		SwapEffect:  hal.SwapEffectFlipDiscard,
		Flags:       hal.SwapChainAllowTearing,
	}, desc)
	assert.Equal(t, hal.DeviceBGRASupport, scs[0].Device().Flags())

	assert.Equal(t, 2, p.Count("d3d.CompileShader"))
	assert.Equal(t, 1, p.Count("interop.OpenDevice"))
	assert.Equal(t, uint32(1), s.SwapInterval())
	assert.Empty(t, p.Violations())

	w, h, err := s.ClientSize()
	require.NoError(t, err)
	assert.Equal(t, 800, w)
	assert.Equal(t, 600, h)
}

func TestNewSessionOptions(t *testing.T) {
	s, p := newTestSession(t,
		WithDebugLayer(true),
		WithSwapInterval(0),
		WithMaxFrameLatency(2),
		WithContextConfig(ContextConfig{Major: 3, Minor: 3, Core: true}),
	)

	sc := p.SwapChains()[0]
	assert.Equal(t, hal.DeviceBGRASupport|hal.DeviceDebug, sc.Device().Flags())
	assert.Equal(t, uint32(2), sc.MaximumFrameLatency())
	desc, err := sc.Desc()
	require.NoError(t, err)
	assert.Equal(t, hal.SwapChainAllowTearing|hal.SwapChainFrameLatencyWaitable, desc.Flags)

	require.NoError(t, s.PresentDefault())
	assert.Equal(t, []halfake.PresentCall{{Interval: 0, Flags: hal.PresentAllowTearing}}, sc.Presents())
}

func TestNewSessionFailureReleasesEverything(t *testing.T) {
	for _, call := range []string{
		"gl.CreateSurfaceWindow",
		"gl.SetPixelFormat",
		"gl.CreateContextAttribs",
		"d3d.CreateDevice",
		"d3d.CreateSwapChain",
		"swapchain.SetMaximumFrameLatency",
		"swapchain.FrameLatencyWaitable",
		"interop.OpenDevice",
		"d3d.CompileShader",
		"device.CreatePixelShader",
		"device.CreateSamplerState",
	} {
		t.Run(call, func(t *testing.T) {
			p := halfake.New()
			p.Fail(call, nil)

			_, err := NewSession(p.NewWindow(800, 600), WithPlatform(p), WithMaxFrameLatency(1))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrSetup)
			assert.ErrorIs(t, err, halfake.ErrInjected)
			assertReleased(t, p)
		})
	}
}

func TestNewSessionWithoutInteropExtension(t *testing.T) {
	p := halfake.New()
	p.RemoveProc(hal.ProcDXOpenDevice)

	_, err := NewSession(p.NewWindow(800, 600), WithPlatform(p))
	assert.ErrorIs(t, err, ErrMissingEntryPoint)
	assert.ErrorIs(t, err, ErrSetup)
	assertReleased(t, p)
}

func TestNewSessionInvalidArguments(t *testing.T) {
	p := halfake.New()

	_, err := NewSession(0, WithPlatform(p))
	assert.ErrorIs(t, err, ErrSetup)

	_, err = NewSession(p.NewWindow(1, 1), WithPlatform(p), WithSwapInterval(MaxSwapInterval+1))
	assert.ErrorIs(t, err, ErrSwapInterval)
	assert.Empty(t, p.Calls())
}

func TestBlitShadersCompiledOncePerPlatform(t *testing.T) {
	p := halfake.New()
	for range 2 {
		s, err := NewSession(p.NewWindow(64, 64), WithPlatform(p))
		require.NoError(t, err)
		require.NoError(t, s.Close())
	}
	assert.Equal(t, 2, p.Count("d3d.CompileShader"))
	assert.Equal(t, 2, p.Count("device.CreateVertexShader"))
}

func TestCreateThenGetTexture(t *testing.T) {
	s, _ := newTestSession(t)

	created, err := s.CreateTexture(42, 256, 128)
	require.NoError(t, err)

	got, err := s.Texture(42)
	require.NoError(t, err)
	assert.Same(t, created, got)
	w, h := got.Size()
	assert.Equal(t, uint32(256), w)
	assert.Equal(t, uint32(128), h)
}

func TestCreateDuplicateTexture(t *testing.T) {
	s, p := newTestSession(t)

	_, err := s.CreateTexture(1, 16, 16)
	require.NoError(t, err)

	_, err = s.CreateTexture(1, 32, 32)
	assert.ErrorIs(t, err, ErrDuplicateTexture)
	assert.ErrorIs(t, err, ErrContract)
	assert.Equal(t, 1, p.RegisteredObjects())
	assert.NoError(t, s.Lost(), "contract errors do not lose the session")
}

func TestDeleteTexture(t *testing.T) {
	s, p := newTestSession(t)

	_, err := s.CreateTexture(5, 16, 16)
	require.NoError(t, err)
	require.NoError(t, s.DeleteTexture(5))
	assert.Equal(t, 0, p.RegisteredObjects())

	_, err = s.Texture(5)
	assert.ErrorIs(t, err, ErrTextureNotFound)
	assert.ErrorIs(t, s.DeleteTexture(5), ErrTextureNotFound)
	assert.ErrorIs(t, s.DeleteTexture(99), ErrTextureNotFound)
}

func TestTextureIDs(t *testing.T) {
	s, _ := newTestSession(t)
	for _, id := range []uint32{30, 10, 20} {
		_, err := s.CreateTexture(id, 4, 4)
		require.NoError(t, err)
	}
	assert.Equal(t, []uint32{10, 20, 30}, s.TextureIDs())
}

func TestBlitToBackBuffer(t *testing.T) {
	s, p := newTestSession(t)

	tex, err := s.CreateTexture(7, 256, 256)
	require.NoError(t, err)
	require.NoError(t, tex.Lock())
	p.ResetCalls()

	require.NoError(t, s.BlitToBackBuffer(7))
	assert.True(t, tex.Locked(), "texture is handed back to the rendering side")

	unlock := p.Index("interop.UnlockObjects")
	draw := p.Index("context.Draw")
	lock := p.LastIndex("interop.LockObjects")
	require.NotEqual(t, -1, unlock)
	assert.Less(t, unlock, draw)
	assert.Less(t, draw, lock)

	draws := p.Draws()
	require.Len(t, draws, 1)
	assert.Equal(t, uint32(3), draws[0].VertexCount)
	assert.Equal(t, hal.Viewport{Width: 800, Height: 600, MaxDepth: 1}, draws[0].Viewport)
	assert.Equal(t, uint32(800), draws[0].Target.Desc().Width)
	assert.Equal(t, uint32(256), draws[0].Source.Desc().Width)
	assert.Empty(t, p.Violations())
}

func TestBlitReusesRenderTarget(t *testing.T) {
	s, p := newTestSession(t)

	tex, err := s.CreateTexture(1, 8, 8)
	require.NoError(t, err)
	require.NoError(t, tex.Lock())

	require.NoError(t, s.BlitToBackBuffer(1))
	require.NoError(t, s.BlitToBackBuffer(1))

	draws := p.Draws()
	require.Len(t, draws, 2)
	assert.Same(t, draws[0].Target, draws[1].Target)
	assert.Equal(t, 1, p.Count("device.CreateRenderTargetView"))
}

func TestBlitRequiresRenderingSideOwnership(t *testing.T) {
	s, p := newTestSession(t)

	_, err := s.CreateTexture(1, 8, 8)
	require.NoError(t, err)

	err = s.BlitToBackBuffer(1)
	assert.ErrorIs(t, err, ErrAlreadyUnlocked)
	assert.ErrorIs(t, err, ErrContract)
	assert.Empty(t, p.Draws())

	assert.ErrorIs(t, s.BlitToBackBuffer(2), ErrTextureNotFound)
}

func TestResizeRecreatesRenderTarget(t *testing.T) {
	s, p := newTestSession(t)

	tex, err := s.CreateTexture(1, 64, 64)
	require.NoError(t, err)
	require.NoError(t, tex.Lock())
	require.NoError(t, s.BlitToBackBuffer(1))

	require.NoError(t, s.Resize(1024, 768))
	require.NoError(t, s.BlitToBackBuffer(1))

	draws := p.Draws()
	require.Len(t, draws, 2)
	assert.NotSame(t, draws[0].Target, draws[1].Target, "stale render target reused")
	assert.Equal(t, uint32(1024), draws[1].Target.Desc().Width)
	assert.Equal(t, uint32(768), draws[1].Target.Desc().Height)
	assert.Equal(t, hal.Viewport{Width: 1024, Height: 768, MaxDepth: 1}, draws[1].Viewport)
	assert.Empty(t, p.Violations(), "resize must not run with buffers referenced")
	assert.NoError(t, s.Lost())
}

func TestResizeToWindowSize(t *testing.T) {
	s, p := newTestSession(t)

	p.SetClientSize(s.Window(), 1280, 720)
	require.NoError(t, s.Resize(0, 0))

	w, h, err := s.Surface().Size()
	require.NoError(t, err)
	assert.Equal(t, uint32(1280), w)
	assert.Equal(t, uint32(720), h)
}

func TestPresentFlags(t *testing.T) {
	s, p := newTestSession(t)

	require.NoError(t, s.Present(0))
	require.NoError(t, s.Present(1))
	require.NoError(t, s.Present(4))
	assert.ErrorIs(t, s.Present(5), ErrSwapInterval)

	require.NoError(t, s.SetSwapInterval(2))
	require.NoError(t, s.PresentDefault())
	assert.ErrorIs(t, s.SetSwapInterval(5), ErrContract)
	assert.Equal(t, uint32(2), s.SwapInterval())

	assert.Equal(t, []halfake.PresentCall{
		{Interval: 0, Flags: hal.PresentAllowTearing},
		{Interval: 1},
		{Interval: 4},
		{Interval: 2},
	}, p.SwapChains()[0].Presents())
}

func TestDeviceErrorsLoseSession(t *testing.T) {
	tests := []struct {
		call string
		run  func(s *Session) error
	}{
		{"swapchain.Present", func(s *Session) error { return s.Present(1) }},
		{"swapchain.ResizeBuffers", func(s *Session) error { return s.Resize(640, 480) }},
		{"interop.UnlockObjects", func(s *Session) error { return s.BlitToBackBuffer(1) }},
		{"swapchain.Buffer", func(s *Session) error { return s.BlitToBackBuffer(1) }},
	}
	for _, tt := range tests {
		t.Run(tt.call, func(t *testing.T) {
			p := halfake.New()
			s, err := NewSession(p.NewWindow(800, 600), WithPlatform(p))
			require.NoError(t, err)
			tex, err := s.CreateTexture(1, 8, 8)
			require.NoError(t, err)
			require.NoError(t, tex.Lock())

			p.Fail(tt.call, nil)
			lost := tt.run(s)
			require.ErrorIs(t, lost, ErrDeviceLost)
			assert.Same(t, lost, s.Lost())

			_, err = s.CreateTexture(2, 8, 8)
			assert.Same(t, lost, err, "later operations report the same loss")
			assert.Same(t, lost, s.Present(1))

			p.ClearFailures()
			require.NoError(t, s.Close())
			assertReleased(t, p)
		})
	}
}

func TestCloseOrder(t *testing.T) {
	s, p := newTestSession(t)

	for id := uint32(1); id <= 3; id++ {
		_, err := s.CreateTexture(id, 16, 16)
		require.NoError(t, err)
	}
	t1, _ := s.Texture(1)
	t3, _ := s.Texture(3)
	require.NoError(t, LockTextures(t1, t3))
	require.NoError(t, s.BlitToBackBuffer(1))
	p.ResetCalls()

	require.NoError(t, s.Close())

	clear := p.Index("context.ClearState")
	unlock := p.Index("interop.UnlockObjects")
	unregister := p.Index("interop.UnregisterObject")
	closeDevice := p.Index("interop.CloseDevice")
	releaseDevice := p.Index("device.Release")
	deleteContext := p.Index("gl.DeleteContext")

	assert.Less(t, p.Index("gl.MakeCurrent"), clear)
	assert.Less(t, clear, unlock)
	assert.Less(t, unlock, unregister)
	assert.Less(t, p.LastIndex("interop.UnregisterObject"), closeDevice)
	assert.Less(t, closeDevice, releaseDevice)
	assert.Less(t, releaseDevice, deleteContext)

	assert.Equal(t, closeDevice, p.LastIndex("interop."), "no interop call after the channel is closed")
	assert.Equal(t, 1, p.Count("interop.UnlockObjects"), "locked textures are unlocked in one batch")
	assert.Equal(t, 3, p.Count("interop.UnregisterObject"))
	assertReleased(t, p)
}

func TestDeleteTextureFailureLeavesTextureForClose(t *testing.T) {
	s, p := newTestSession(t)
	tex, err := s.CreateTexture(7, 16, 16)
	require.NoError(t, err)
	require.NoError(t, tex.Lock())

	p.Fail("interop.UnlockObjects", nil)
	require.ErrorIs(t, s.DeleteTexture(7), ErrDeviceLost)
	assert.Equal(t, []uint32{7}, s.TextureIDs(), "a texture that failed to unregister stays owned by the session")

	p.ClearFailures()
	require.NoError(t, s.Close())
	assert.Less(t, p.LastIndex("interop.UnregisterObject"), p.Index("interop.CloseDevice"))
	assertReleased(t, p)
}

func TestCloseKeepsDeviceWhileChannelOpen(t *testing.T) {
	s, p := newTestSession(t)
	p.ResetCalls()

	p.Fail("interop.CloseDevice", nil)
	require.ErrorIs(t, s.Close(), ErrDeviceLost)
	assert.Zero(t, p.Count("device.Release"))
	assert.Zero(t, p.Count("context.Release"))
	assert.Equal(t, 1, p.OpenChannels())
	assert.Empty(t, p.Violations())
}

func TestCloseUnlocksInBatches(t *testing.T) {
	s, p := newTestSession(t)

	var all []*SharedTexture
	for id := uint32(1); id <= MaxBatch+4; id++ {
		tex, err := s.CreateTexture(id, 4, 4)
		require.NoError(t, err)
		all = append(all, tex)
	}
	require.NoError(t, LockTextures(all[:MaxBatch]...))
	require.NoError(t, LockTextures(all[MaxBatch:]...))
	p.ResetCalls()

	require.NoError(t, s.Close())
	assert.Equal(t, 2, p.Count("interop.UnlockObjects"))
	assertReleased(t, p)
}

func TestOperationsAfterClose(t *testing.T) {
	s, p := newTestSession(t)
	tex, err := s.CreateTexture(1, 4, 4)
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	p.ResetCalls()

	_, err = s.CreateTexture(2, 4, 4)
	assert.ErrorIs(t, err, ErrSessionClosed)
	assert.ErrorIs(t, s.Present(1), ErrSessionClosed)
	assert.ErrorIs(t, s.Resize(10, 10), ErrSessionClosed)
	assert.ErrorIs(t, s.BlitToBackBuffer(1), ErrSessionClosed)
	assert.ErrorIs(t, s.MakeCurrent(), ErrSessionClosed)
	assert.ErrorIs(t, s.WaitForFrame(0), ErrSessionClosed)
	assert.ErrorIs(t, tex.Lock(), ErrStaleContext, "textures outliving their session see a stale device")
	assert.NoError(t, tex.Destroy())
	assert.Empty(t, p.Calls())
}

func TestWaitForFrame(t *testing.T) {
	t.Run("without waitable", func(t *testing.T) {
		s, p := newTestSession(t)
		require.NoError(t, s.WaitForFrame(0))
		assert.Zero(t, p.Count("waitable.Wait"))
	})

	t.Run("with waitable", func(t *testing.T) {
		s, p := newTestSession(t, WithMaxFrameLatency(1))
		require.NoError(t, s.WaitForFrame(0))

		p.SetWaitResult(hal.WaitAbandoned)
		require.NoError(t, s.WaitForFrame(0), "abandoned waits are only logged")
		assert.Equal(t, 2, p.Count("waitable.Wait"))

		p.Fail("waitable.Wait", nil)
		assert.ErrorIs(t, s.WaitForFrame(0), ErrDeviceLost)

		p.ClearFailures()
		require.NoError(t, s.Close())
		assert.Equal(t, 1, p.Count("waitable.Close"))
		assertReleased(t, p)
	})
}

func TestEndToEndSession(t *testing.T) {
	s, p := newTestSession(t)

	tex, err := s.CreateTexture(42, 256, 256)
	require.NoError(t, err)
	require.NoError(t, tex.Lock())
	// The rendering side draws into texture 42 here.
	require.NoError(t, s.BlitToBackBuffer(42))
	require.NoError(t, s.Present(1))

	presents := p.SwapChains()[0].Presents()
	assert.Equal(t, []halfake.PresentCall{{Interval: 1}}, presents)

	require.NoError(t, s.Close())
	assertReleased(t, p)
}

func TestDeviceProvider(t *testing.T) {
	s, p := newTestSession(t)

	dp := s.DeviceProvider()
	assert.Equal(t, SurfaceFormat, dp.SurfaceFormat())
	assert.Nil(t, dp.Queue())
	assert.Nil(t, dp.Adapter())
	assert.Equal(t, gpucontext.AdapterTypeUnknown, dp.AdapterInfo().Type)

	dev, ok := dp.Device().(*PresentationDevice)
	require.True(t, ok, "Device() = %T", dp.Device())
	assert.Equal(t, s.InteropDevice().Device(), dev.Device())
	dev.Flush()
	assert.Equal(t, 1, p.Count("context.Flush"))

	require.NoError(t, s.Close())
	dev.Flush()
	assert.Nil(t, dev.Device())
	assert.Equal(t, 1, p.Count("context.Flush"))
	assert.Equal(t, 0, p.LiveObjects())
}

func TestNoPlatform(t *testing.T) {
	if defaultPlatform() != nil {
		t.Skip("native platform available")
	}
	_, err := NewSession(1)
	assert.True(t, errors.Is(err, ErrNoPlatform))
}
