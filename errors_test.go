package dxinterop

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind Kind
		is   error
		not  []error
	}{
		{"setup", setupError("op", ErrMissingEntryPoint), KindSetup, ErrSetup, []error{ErrDeviceLost, ErrContract}},
		{"device", deviceError("op", errors.New("hung")), KindDevice, ErrDeviceLost, []error{ErrSetup, ErrContract}},
		{"contract", contractError("op", ErrDuplicateTexture), KindContract, ErrContract, []error{ErrSetup, ErrDeviceLost}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.kind {
				t.Errorf("KindOf = %v, want %v", got, tt.kind)
			}
			if !errors.Is(tt.err, tt.is) {
				t.Errorf("errors.Is(%v, %v) = false", tt.err, tt.is)
			}
			for _, other := range tt.not {
				if errors.Is(tt.err, other) {
					t.Errorf("errors.Is(%v, %v) = true", tt.err, other)
				}
			}
		})
	}
}

func TestErrorWrapsCause(t *testing.T) {
	err := contractError("CreateTexture", fmt.Errorf("%w: %d", ErrDuplicateTexture, 42))
	if !errors.Is(err, ErrDuplicateTexture) {
		t.Error("cause not reachable through errors.Is")
	}
	want := "CreateTexture: dxinterop: texture id already in use: 42"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestKindOfForeignError(t *testing.T) {
	if got := KindOf(errors.New("x")); got != 0 {
		t.Errorf("KindOf(foreign) = %v, want 0", got)
	}
	if got := KindOf(nil); got != 0 {
		t.Errorf("KindOf(nil) = %v, want 0", got)
	}
	if Kind(9).String() != "Kind(9)" {
		t.Errorf("Kind(9).String() = %q", Kind(9).String())
	}
}
