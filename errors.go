package dxinterop

import (
	"errors"
	"fmt"
)

// Kind classifies an Error.
type Kind int

const (
	// KindSetup is a failure while creating a context, device, swap chain,
	// texture or pipeline. The object being created does not exist.
	KindSetup Kind = iota + 1

	// KindDevice is a runtime driver failure (present, resize, lock, unlock).
	// The session is lost and every later operation fails the same way.
	KindDevice

	// KindContract is a caller error: the call was rejected before any driver
	// state changed.
	KindContract
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindSetup:
		return "setup"
	case KindDevice:
		return "device"
	case KindContract:
		return "contract"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Kind sentinels. errors.Is(err, ErrContract) reports whether err is an
// *Error of KindContract, and so on.
var (
	ErrSetup      = errors.New("dxinterop: setup failed")
	ErrDeviceLost = errors.New("dxinterop: device lost")
	ErrContract   = errors.New("dxinterop: contract violation")
)

// Specific causes, wrapped inside an *Error.
var (
	ErrDuplicateTexture   = errors.New("dxinterop: texture id already in use")
	ErrTextureNotFound    = errors.New("dxinterop: texture not found")
	ErrAlreadyLocked      = errors.New("dxinterop: texture already locked")
	ErrAlreadyUnlocked    = errors.New("dxinterop: texture already unlocked")
	ErrMixedDevices       = errors.New("dxinterop: textures belong to different interop devices")
	ErrStaleContext       = errors.New("dxinterop: interop device is gone")
	ErrBatchSize          = errors.New("dxinterop: batch must hold 1 to 16 textures")
	ErrTexturesRegistered = errors.New("dxinterop: textures still registered")
	ErrInvalidDimensions  = errors.New("dxinterop: width and height must be positive")
	ErrSessionClosed      = errors.New("dxinterop: session closed")
	ErrMissingEntryPoint  = errors.New("dxinterop: missing interop entry point")
	ErrNoPlatform         = errors.New("dxinterop: no platform available")
	ErrInvalidHandle      = errors.New("dxinterop: invalid handle")
	ErrSwapInterval       = errors.New("dxinterop: swap interval must be 0 to 4")
)

// Error is the error type returned by every dxinterop operation.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the kind sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrSetup:
		return e.Kind == KindSetup
	case ErrDeviceLost:
		return e.Kind == KindDevice
	case ErrContract:
		return e.Kind == KindContract
	}
	return false
}

// KindOf returns the kind of err, or 0 if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func setupError(op string, err error) error {
	return &Error{Kind: KindSetup, Op: op, Err: err}
}

func deviceError(op string, err error) error {
	return &Error{Kind: KindDevice, Op: op, Err: err}
}

func contractError(op string, err error) error {
	return &Error{Kind: KindContract, Op: op, Err: err}
}
