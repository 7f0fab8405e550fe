package core

import (
	"strings"
	"testing"
)

func TestLoadImageIntelHexDataRecord(t *testing.T) {
	b := NewSystemBus()
	// one data record: count=2, addr=0xC000, type=00, data=AA 55, checksum ignored
	hexFile := ":02C00000AA55FF\n:00000001FF\n"
	if err := b.LoadImage(strings.NewReader(hexFile), "intel-hex"); err != nil {
		t.Fatalf("LoadImage: %v", err)
	}
	if got := b.Read(0xC000, Byte); got != 0xAA {
		t.Fatalf("byte 0 = %#02x, want 0xaa", got)
	}
	if got := b.Read(0xC001, Byte); got != 0x55 {
		t.Fatalf("byte 1 = %#02x, want 0x55", got)
	}
}

func TestLoadImageIntelHexUnknownRecordTypeSkipped(t *testing.T) {
	b := NewSystemBus()
	hexFile := ":00000005FB\n:02C00000AA55FF\n"
	if err := b.LoadImage(strings.NewReader(hexFile), "intel-hex"); err != nil {
		t.Fatalf("LoadImage: %v", err)
	}
	if got := b.Read(0xC000, Byte); got != 0xAA {
		t.Fatalf("data record after unknown type not applied: %#02x", got)
	}
}

func TestLoadImageIntelHexRejectsMissingColon(t *testing.T) {
	b := NewSystemBus()
	if err := b.LoadImage(strings.NewReader("02C00000AA55FF\n"), "intel-hex"); err == nil {
		t.Fatal("expected an error for a line missing the ':' prefix")
	}
}

func TestLoadImageTIText(t *testing.T) {
	b := NewSystemBus()
	src := "@C000\nAA 55\nBB\nq\n"
	if err := b.LoadImage(strings.NewReader(src), "ti-text"); err != nil {
		t.Fatalf("LoadImage: %v", err)
	}
	if got := b.Read(0xC000, Byte); got != 0xAA {
		t.Fatalf("byte 0 = %#02x, want 0xaa", got)
	}
	if got := b.Read(0xC001, Byte); got != 0x55 {
		t.Fatalf("byte 1 = %#02x, want 0x55", got)
	}
	if got := b.Read(0xC002, Byte); got != 0xBB {
		t.Fatalf("byte 2 = %#02x, want 0xbb", got)
	}
}

func TestLoadImageTITextStopsAtQLine(t *testing.T) {
	b := NewSystemBus()
	src := "@C000\nAA\nq\nBB\n"
	if err := b.LoadImage(strings.NewReader(src), "ti-text"); err != nil {
		t.Fatalf("LoadImage: %v", err)
	}
	if got := b.Read(0xC001, Byte); got != 0 {
		t.Fatalf("byte after 'q' terminator was loaded: %#02x", got)
	}
}

func TestLoadImageTITextMultipleAddressDirectives(t *testing.T) {
	b := NewSystemBus()
	src := "@C000\nAA\n@D000\nBB\nq\n"
	if err := b.LoadImage(strings.NewReader(src), "ti-text"); err != nil {
		t.Fatalf("LoadImage: %v", err)
	}
	if got := b.Read(0xC000, Byte); got != 0xAA {
		t.Fatalf("first region byte = %#02x, want 0xaa", got)
	}
	if got := b.Read(0xD000, Byte); got != 0xBB {
		t.Fatalf("second region byte = %#02x, want 0xbb", got)
	}
}
