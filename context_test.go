package dxinterop

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/dxinterop/hal"
	"github.com/gogpu/dxinterop/internal/halfake"
)

func TestContextAttribs(t *testing.T) {
	tests := []struct {
		name string
		cfg  ContextConfig
		want []int32
	}{
		{
			name: "default",
			cfg:  DefaultContextConfig(),
			want: []int32{
				hal.ContextMajorVersion, 4,
				hal.ContextMinorVersion, 6,
				hal.ContextProfileMask, hal.ContextCoreProfileBit,
				hal.ContextFlags, hal.ContextForwardCompatibleBit,
				0,
			},
		},
		{
			name: "compatibility",
			cfg:  ContextConfig{Major: 3, Minor: 2},
			want: []int32{
				hal.ContextMajorVersion, 3,
				hal.ContextMinorVersion, 2,
				hal.ContextProfileMask, hal.ContextCompatibilityProfileBit,
				hal.ContextFlags, 0,
				0,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.attribs())
		})
	}
}

func TestNewRenderingContext(t *testing.T) {
	p := halfake.New()

	rc, err := NewRenderingContext(p.GL(), DefaultContextConfig())
	require.NoError(t, err)

	// Only the real context survives; nothing is left bound.
	assert.Equal(t, 1, p.LiveContexts())
	assert.Equal(t, hal.GLRC(0), p.Current())
	assert.Equal(t, 1, p.LiveWindows())

	// The legacy context is deleted after the real one exists.
	assert.Less(t, p.Index("gl.CreateContextAttribs"), p.Index("gl.DeleteContext"))

	ip, err := rc.Interop()
	require.NoError(t, err)
	assert.NotNil(t, ip)

	require.NoError(t, rc.MakeCurrent())
	assert.NotEqual(t, hal.GLRC(0), p.Current())
	require.NoError(t, rc.SwapBuffers())

	rc.Destroy()
	rc.Destroy()
	assert.Equal(t, 0, p.LiveContexts())
	assert.Equal(t, 0, p.LiveWindows())
	assert.Empty(t, p.Violations())

	assert.ErrorIs(t, rc.MakeCurrent(), ErrSessionClosed)
	assert.ErrorIs(t, rc.SwapBuffers(), ErrContract)
}

func TestRenderingContextAdoptsSurface(t *testing.T) {
	p := halfake.New()
	w := p.NewWindow(320, 200)

	cfg := DefaultContextConfig()
	cfg.Surface = w
	rc, err := NewRenderingContext(p.GL(), cfg)
	require.NoError(t, err)
	assert.Equal(t, w, rc.Window())
	assert.Zero(t, p.Count("gl.CreateSurfaceWindow"))

	rc.Destroy()
	assert.Zero(t, p.Count("gl.DestroyWindow"), "adopted window must not be destroyed")
}

func TestNewRenderingContextFailures(t *testing.T) {
	for _, call := range []string{
		"gl.CreateSurfaceWindow",
		"gl.GetDC",
		"gl.SetPixelFormat",
		"gl.CreateLegacyContext",
		"gl.CreateContextAttribs",
	} {
		t.Run(call, func(t *testing.T) {
			p := halfake.New()
			p.Fail(call, nil)

			_, err := NewRenderingContext(p.GL(), DefaultContextConfig())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrSetup)
			assert.ErrorIs(t, err, halfake.ErrInjected)

			assert.Equal(t, 0, p.LiveContexts())
			assert.Equal(t, 0, p.LiveWindows())
			assert.Equal(t, hal.GLRC(0), p.Current())
			assert.Empty(t, p.Violations())
		})
	}
}

func TestMissingCreateContextAttribs(t *testing.T) {
	p := halfake.New()
	p.RemoveProc(hal.ProcCreateContextAttribs)

	_, err := NewRenderingContext(p.GL(), DefaultContextConfig())
	assert.ErrorIs(t, err, ErrMissingEntryPoint)
	assert.ErrorIs(t, err, ErrSetup)
	assert.Equal(t, 0, p.LiveContexts())
}

func TestMissingInteropEntryPoint(t *testing.T) {
	p := halfake.New()
	p.RemoveProc(hal.ProcDXUnregisterObject)

	rc, err := NewRenderingContext(p.GL(), DefaultContextConfig())
	require.NoError(t, err, "the context itself does not need the interop extension")
	defer rc.Destroy()

	_, err = rc.Interop()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingEntryPoint))
	assert.Contains(t, err.Error(), hal.ProcDXUnregisterObject)
}
