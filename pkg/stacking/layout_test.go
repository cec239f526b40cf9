package stacking

import (
	"testing"

	"github.com/raymyers/minicc/pkg/rtl"
)

func TestAlignUp(t *testing.T) {
	tests := []struct {
		n, align, want int32
	}{
		{0, 4, 0},
		{1, 4, 4},
		{3, 4, 4},
		{4, 4, 4},
		{5, 4, 8},
		{7, 0, 7},
	}

	for _, tt := range tests {
		got := alignUp(tt.n, tt.align)
		if got != tt.want {
			t.Errorf("alignUp(%d, %d) = %d, want %d", tt.n, tt.align, got, tt.want)
		}
	}
}

func TestComputeLayout(t *testing.T) {
	tests := []struct {
		name       string
		frameSize  int32
		saved      int
		wantSave   int32
		wantTotal  int32
		wantOffset int32
	}{
		{"empty", 0, 0, 0, 4, -8},
		{"locals only", 12, 0, 0, 16, -20},
		{"saved only", 0, 3, 12, 16, -8},
		{"locals and saved", 8, 2, 8, 20, -16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn := rtl.NewFunction(tt.name)
			fn.FrameSize = tt.frameSize
			layout := ComputeLayout(fn, tt.saved)

			if layout.LocalSize != tt.frameSize {
				t.Errorf("LocalSize = %d, want %d", layout.LocalSize, tt.frameSize)
			}
			if layout.CalleeSaveSize != tt.wantSave {
				t.Errorf("CalleeSaveSize = %d, want %d", layout.CalleeSaveSize, tt.wantSave)
			}
			if layout.TotalSize != tt.wantTotal {
				t.Errorf("TotalSize = %d, want %d", layout.TotalSize, tt.wantTotal)
			}
			if layout.CalleeSaveOffset != tt.wantOffset {
				t.Errorf("CalleeSaveOffset = %d, want %d", layout.CalleeSaveOffset, tt.wantOffset)
			}
		})
	}
}

func TestSaveAreaBelowLocals(t *testing.T) {
	fn := rtl.NewFunction("f")
	fn.AllocSlot(4)
	lowest := fn.AllocSlot(8)

	layout := ComputeLayout(fn, 2)
	info := ComputeCalleeSaveInfo(layout, []rtl.Reg{rtl.T0, rtl.S0})
	for _, ofs := range info.SaveOffsets {
		if ofs+4 > lowest {
			t.Errorf("save slot %d overlaps the local at %d", ofs, lowest)
		}
		if ofs < -layout.TotalSize {
			t.Errorf("save slot %d lies below $sp (frame %d)", ofs, layout.TotalSize)
		}
	}
}
