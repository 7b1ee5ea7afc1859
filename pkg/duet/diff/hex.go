package diff

import (
	"fmt"
	"strings"
)

// BytesPerRow is the number of bytes shown on one hex row.
const BytesPerRow = 16

// HexRow is one rendered row of a hex dump.
type HexRow struct {
	// Offset is the byte offset of the first byte in the row.
	Offset int64

	// Hex holds the space-separated hex bytes, padded to a fixed width.
	Hex string

	// ASCII holds the printable rendering; non-printable bytes show as '.'.
	ASCII string

	// Differs marks rows containing at least one differing byte.
	Differs bool
}

// Region is a half-open byte range [Start, End) that differs between two
// buffers.
type Region struct {
	Start int64
	End   int64
}

// Regions returns the differing byte ranges of two buffers. Bytes past
// the shorter buffer's length are part of a trailing region.
func Regions(left, right []byte) []Region {
	var regions []Region
	shorter := len(left)
	if len(right) < shorter {
		shorter = len(right)
	}

	start := int64(-1)
	for i := 0; i < shorter; i++ {
		if left[i] != right[i] {
			if start < 0 {
				start = int64(i)
			}
		} else if start >= 0 {
			regions = append(regions, Region{Start: start, End: int64(i)})
			start = -1
		}
	}

	longer := len(left)
	if len(right) > longer {
		longer = len(right)
	}
	if longer > shorter {
		if start < 0 {
			start = int64(shorter)
		}
		regions = append(regions, Region{Start: start, End: int64(longer)})
	} else if start >= 0 {
		regions = append(regions, Region{Start: start, End: int64(shorter)})
	}

	return regions
}

// Dump renders a buffer as hex rows, marking rows that intersect any of
// the differing regions.
func Dump(data []byte, regions []Region) []HexRow {
	var rows []HexRow
	for offset := 0; offset < len(data); offset += BytesPerRow {
		end := offset + BytesPerRow
		if end > len(data) {
			end = len(data)
		}
		chunk := data[offset:end]

		var hexParts []string
		var ascii strings.Builder
		for _, b := range chunk {
			hexParts = append(hexParts, fmt.Sprintf("%02x", b))
			if b >= 0x20 && b <= 0x7e {
				ascii.WriteByte(b)
			} else {
				ascii.WriteByte('.')
			}
		}
		hexStr := strings.Join(hexParts, " ")
		// Pad so the ASCII column aligns on short final rows.
		hexStr += strings.Repeat("   ", BytesPerRow-len(chunk))

		rows = append(rows, HexRow{
			Offset:  int64(offset),
			Hex:     hexStr,
			ASCII:   ascii.String(),
			Differs: rowDiffers(int64(offset), int64(end), regions),
		})
	}
	return rows
}

func rowDiffers(start, end int64, regions []Region) bool {
	for _, r := range regions {
		if r.Start < end && r.End > start {
			return true
		}
	}
	return false
}
