package dxinterop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/dxinterop/hal"
	"github.com/gogpu/dxinterop/internal/halfake"
)

// interopFixture is an interop device built without a Session.
type interopFixture struct {
	p    *halfake.Platform
	rc   *RenderingContext
	dev  hal.Device
	dctx hal.DeviceContext
	ip   *InteropDevice
}

func newInteropFixture(t *testing.T, devices *Devices) *interopFixture {
	t.Helper()
	p := halfake.New()

	rc, err := NewRenderingContext(p.GL(), DefaultContextConfig())
	require.NoError(t, err)
	require.NoError(t, rc.MakeCurrent())

	dev, dctx, err := p.D3D().CreateDevice(hal.DeviceBGRASupport)
	require.NoError(t, err)

	ip, err := OpenInteropDevice(devices, rc, dev, dctx)
	require.NoError(t, err)

	return &interopFixture{p: p, rc: rc, dev: dev, dctx: dctx, ip: ip}
}

func (f *interopFixture) register(t *testing.T, id uint32) *SharedTexture {
	t.Helper()
	tex, err := RegisterSharedTexture(f.ip, id, 64, 32, hal.AccessWriteDiscard)
	require.NoError(t, err)
	return tex
}

func TestRegisterSharedTexture(t *testing.T) {
	f := newInteropFixture(t, NewDevices())

	tex := f.register(t, 7)
	assert.Equal(t, uint32(7), tex.ID())
	w, h := tex.Size()
	assert.Equal(t, uint32(64), w)
	assert.Equal(t, uint32(32), h)
	assert.Equal(t, hal.AccessWriteDiscard, tex.Access())
	assert.False(t, tex.Locked(), "new textures start unlocked")
	assert.Equal(t, 1, f.p.RegisteredObjects())

	require.NoError(t, tex.Destroy())
	require.NoError(t, tex.Destroy())
	assert.Equal(t, 0, f.p.RegisteredObjects())
	assert.Equal(t, 1, f.p.Count("interop.UnregisterObject"))
	assert.Empty(t, f.p.Violations())
}

func TestRegisterSharedTextureFailures(t *testing.T) {
	tests := []struct {
		call string
		kind Kind
	}{
		{"device.CreateTexture2D", KindSetup},
		{"device.CreateShaderResourceView", KindSetup},
		{"interop.RegisterObject", KindSetup},
	}
	for _, tt := range tests {
		t.Run(tt.call, func(t *testing.T) {
			f := newInteropFixture(t, NewDevices())
			// Device and context.
			base := f.p.LiveObjects()

			f.p.Fail(tt.call, nil)
			_, err := RegisterSharedTexture(f.ip, 1, 8, 8, hal.AccessReadWrite)
			require.Error(t, err)
			assert.Equal(t, tt.kind, KindOf(err))
			assert.Equal(t, base, f.p.LiveObjects(), "partial resources must be released")
			assert.Equal(t, 0, f.p.RegisteredObjects())
			require.NoError(t, f.ip.Close(), "a failed registration must not count as registered")
		})
	}
}

func TestRegisterSharedTextureZeroSize(t *testing.T) {
	f := newInteropFixture(t, NewDevices())
	for _, size := range [][2]uint32{{0, 8}, {8, 0}, {0, 0}} {
		_, err := RegisterSharedTexture(f.ip, 1, size[0], size[1], hal.AccessReadWrite)
		assert.ErrorIs(t, err, ErrInvalidDimensions)
		assert.ErrorIs(t, err, ErrContract)
	}
	assert.Zero(t, f.p.Count("device.CreateTexture2D"))
}

func TestLockAlternatesStrictly(t *testing.T) {
	f := newInteropFixture(t, NewDevices())
	tex := f.register(t, 1)

	steps := []struct {
		lock    bool
		wantErr error
		locked  bool
	}{
		{lock: false, wantErr: ErrAlreadyUnlocked, locked: false},
		{lock: true, locked: true},
		{lock: true, wantErr: ErrAlreadyLocked, locked: true},
		{lock: false, locked: false},
		{lock: false, wantErr: ErrAlreadyUnlocked, locked: false},
		{lock: true, locked: true},
	}
	driverCalls := 0
	for i, st := range steps {
		var err error
		if st.lock {
			err = tex.Lock()
		} else {
			err = tex.Unlock()
		}
		if st.wantErr != nil {
			require.ErrorIs(t, err, st.wantErr, "step %d", i)
			require.ErrorIs(t, err, ErrContract, "step %d", i)
		} else {
			require.NoError(t, err, "step %d", i)
			driverCalls++
		}
		require.Equal(t, st.locked, tex.Locked(), "step %d", i)
	}

	got := f.p.Count("interop.LockObjects") + f.p.Count("interop.UnlockObjects")
	assert.Equal(t, driverCalls, got, "rejected transitions must not reach the driver")
	assert.Empty(t, f.p.Violations())
}

func TestBatchIsAllOrNothing(t *testing.T) {
	f := newInteropFixture(t, NewDevices())
	a, b, c := f.register(t, 1), f.register(t, 2), f.register(t, 3)

	require.NoError(t, b.Lock())
	f.p.ResetCalls()

	err := LockTextures(a, b, c)
	require.ErrorIs(t, err, ErrAlreadyLocked)
	assert.False(t, a.Locked())
	assert.False(t, c.Locked())
	assert.Empty(t, f.p.CallsWithPrefix("interop."))

	require.NoError(t, LockTextures(a, c))
	assert.True(t, a.Locked())
	assert.True(t, c.Locked())
	assert.Equal(t, 1, f.p.Count("interop.LockObjects"), "one driver call per batch")
	assert.Equal(t, 3, f.p.LockedObjects())

	f.p.Fail("interop.UnlockObjects", nil)
	err = UnlockTextures(a, b, c)
	require.ErrorIs(t, err, ErrDeviceLost)
	assert.True(t, a.Locked() && b.Locked() && c.Locked(), "flags change only on success")
	assert.Equal(t, 3, f.p.LockedObjects())
}

func TestBatchRejectsDuplicates(t *testing.T) {
	f := newInteropFixture(t, NewDevices())
	a := f.register(t, 1)

	err := LockTextures(a, a)
	require.ErrorIs(t, err, ErrAlreadyLocked)
	assert.False(t, a.Locked())
	assert.Zero(t, f.p.Count("interop.LockObjects"))
}

func TestBatchSize(t *testing.T) {
	f := newInteropFixture(t, NewDevices())

	assert.ErrorIs(t, LockTextures(), ErrBatchSize)

	textures := make([]*SharedTexture, MaxBatch+1)
	for i := range textures {
		textures[i] = f.register(t, uint32(i+1))
	}
	assert.ErrorIs(t, LockTextures(textures...), ErrBatchSize)
	assert.Zero(t, f.p.Count("interop.LockObjects"))

	require.NoError(t, LockTextures(textures[:MaxBatch]...))
	assert.Equal(t, MaxBatch, f.p.LockedObjects())
}

func TestBatchRejectsMixedDevices(t *testing.T) {
	for _, shared := range []bool{true, false} {
		devices := NewDevices()
		f1 := newInteropFixture(t, devices)
		if !shared {
			devices = NewDevices()
		}
		f2 := newInteropFixture(t, devices)

		a := f1.register(t, 1)
		b := f2.register(t, 1)

		assert.ErrorIs(t, LockTextures(a, b), ErrMixedDevices)
		assert.ErrorIs(t, UnlockTextures(b, a), ErrMixedDevices)
		assert.Empty(t, f1.p.CallsWithPrefix("interop.LockObjects"))
		assert.Empty(t, f2.p.CallsWithPrefix("interop.LockObjects"))
		assert.False(t, a.Locked())
		assert.False(t, b.Locked())
	}
}

func TestDestroyUnlocksFirst(t *testing.T) {
	f := newInteropFixture(t, NewDevices())
	tex := f.register(t, 9)
	require.NoError(t, tex.Lock())
	f.p.ResetCalls()

	require.NoError(t, tex.Destroy())
	unlock := f.p.Index("interop.UnlockObjects")
	unregister := f.p.Index("interop.UnregisterObject")
	require.NotEqual(t, -1, unlock)
	assert.Less(t, unlock, unregister)
	assert.Empty(t, f.p.Violations())

	assert.ErrorIs(t, tex.Lock(), ErrTextureNotFound)
}

func TestDestroyFailureKeepsTextureRegistered(t *testing.T) {
	f := newInteropFixture(t, NewDevices())
	tex := f.register(t, 4)
	require.NoError(t, tex.Lock())

	f.p.Fail("interop.UnlockObjects", nil)
	err := tex.Destroy()
	require.ErrorIs(t, err, ErrDeviceLost)
	assert.True(t, tex.Locked())
	assert.NotNil(t, tex.View(), "presentation resources are kept for a retry")
	assert.Equal(t, 1, f.p.RegisteredObjects())
	assert.ErrorIs(t, f.ip.Close(), ErrTexturesRegistered)

	f.p.ClearFailures()
	require.NoError(t, tex.Destroy())
	assert.Nil(t, tex.View())
	require.NoError(t, f.ip.Close())
	assert.Equal(t, 0, f.p.OpenChannels())
	assert.Empty(t, f.p.Violations())
}

func TestInteropDeviceCloseFailureIsRetryable(t *testing.T) {
	devices := NewDevices()
	f := newInteropFixture(t, devices)

	f.p.Fail("interop.CloseDevice", nil)
	require.ErrorIs(t, f.ip.Close(), ErrDeviceLost)
	assert.Equal(t, 1, devices.Len(), "the device stays reachable until the channel closes")

	f.p.ClearFailures()
	require.NoError(t, f.ip.Close())
	assert.Equal(t, 0, devices.Len())
	assert.Equal(t, 0, f.p.OpenChannels())
}

func TestInteropDeviceCloseWithTextures(t *testing.T) {
	f := newInteropFixture(t, NewDevices())
	tex := f.register(t, 1)

	err := f.ip.Close()
	require.ErrorIs(t, err, ErrTexturesRegistered)
	assert.ErrorIs(t, err, ErrContract)
	assert.Zero(t, f.p.Count("interop.CloseDevice"))

	require.NoError(t, tex.Destroy())
	require.NoError(t, f.ip.Close())
	require.NoError(t, f.ip.Close())
	assert.Equal(t, 1, f.p.Count("interop.CloseDevice"))
	assert.Equal(t, 0, f.p.OpenChannels())
}

func TestStaleTextureAfterDeviceClose(t *testing.T) {
	devices := NewDevices()
	f := newInteropFixture(t, devices)
	assert.Equal(t, 1, devices.Len())

	tex := f.register(t, 1)
	require.NoError(t, tex.Destroy())
	require.NoError(t, f.ip.Close())
	assert.Equal(t, 0, devices.Len())

	f.p.ResetCalls()
	assert.ErrorIs(t, tex.Lock(), ErrStaleContext)
	assert.ErrorIs(t, UnlockTextures(tex), ErrStaleContext)
	assert.Empty(t, f.p.CallsWithPrefix("interop."))

	_, err := RegisterSharedTexture(f.ip, 2, 8, 8, hal.AccessReadOnly)
	assert.ErrorIs(t, err, ErrStaleContext)
}
