//go:build unix

package mmseg

import "testing"

func TestReserveZeroFilled(t *testing.T) {
	const size = 1 << 16
	data, release, err := Reserve(size)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	defer func() {
		if releaseErr := release(); releaseErr != nil {
			t.Fatalf("release: %v", releaseErr)
		}
	}()
	if len(data) != size {
		t.Fatalf("len mismatch: got %d want %d", len(data), size)
	}
	for i := 0; i < size; i += 4096 {
		if data[i] != 0 {
			t.Fatalf("byte %d not zero-filled", i)
		}
	}
	// The segment must be writable.
	data[0] = 0x42
	data[size-1] = 0x42
}

func TestReserveInvalidSize(t *testing.T) {
	if _, _, err := Reserve(0); err == nil {
		t.Fatal("Reserve(0) should error")
	}
	if _, _, err := Reserve(-1); err == nil {
		t.Fatal("Reserve(-1) should error")
	}
}

func TestReleaseTwice(t *testing.T) {
	data, release, err := Reserve(4096)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	_ = data
	if err := release(); err != nil {
		t.Fatalf("first release: %v", err)
	}
	if err := release(); err != nil {
		t.Fatalf("second release should be a no-op: %v", err)
	}
}
