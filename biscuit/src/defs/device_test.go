package defs

import "testing"

func TestMkdevUnmkdevRoundTrip(t *testing.T) {
	d := Mkdev(D_VIRTIO0, 1)
	maj, min := Unmkdev(d)
	if maj != D_VIRTIO0 || min != 1 {
		t.Fatalf("Unmkdev(Mkdev(%d, 1)) = (%d, %d)", D_VIRTIO0, maj, min)
	}
}

func TestMkdevRejectsOversizedMinor(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on minor > 0xff")
		}
	}()
	Mkdev(D_UART, 0x100)
}
