// Copyright 2022 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ifd

import (
	"fmt"
	"strings"
)

const (
	maxRegionsV1 = 5
	maxRegionsV2 = 9
)

// Region slot indices. The index doubles as the bit position of the
// region in the master access fields; EC, slot 8, sits at bit 8.
const (
	RegionDescriptor = iota
	RegionBIOS
	RegionME
	RegionGbE
	RegionPlatform
	RegionReserved1
	RegionReserved2
	RegionReserved3
	RegionEC
)

var regionNames = [maxRegionsV2]struct {
	pretty string
	terse  string
}{
	{"Flash Descriptor", "fd"},
	{"BIOS", "bios"},
	{"Intel ME", "me"},
	{"GbE", "gbe"},
	{"Platform Data", "pd"},
	{"Reserved", "res1"},
	{"Reserved", "res2"},
	{"Reserved", "res3"},
	{"EC", "ec"},
}

var regionFilenames = [maxRegionsV2]string{
	"flashregion_0_flashdescriptor.bin",
	"flashregion_1_bios.bin",
	"flashregion_2_intel_me.bin",
	"flashregion_3_gbe.bin",
	"flashregion_4_platform_data.bin",
	"flashregion_5_reserved.bin",
	"flashregion_6_reserved.bin",
	"flashregion_7_reserved.bin",
	"flashregion_8_ec.bin",
}

// RegionName returns the long name of a region slot.
func RegionName(index int) string {
	if index < 0 || index >= maxRegionsV2 {
		return fmt.Sprintf("Unknown Region (%d)", index)
	}
	return regionNames[index].pretty
}

// RegionShortName returns the terse, flashrom-layout name of a region slot.
func RegionShortName(index int) string {
	if index < 0 || index >= maxRegionsV2 {
		return fmt.Sprintf("unknown%d", index)
	}
	return regionNames[index].terse
}

// RegionFilename returns the extraction file name of a region slot.
func RegionFilename(index int) string {
	if index < 0 || index >= maxRegionsV2 {
		return fmt.Sprintf("flashregion_%d_unknown.bin", index)
	}
	return regionFilenames[index]
}

// RegionNumber resolves a long or terse region name, case-insensitively,
// to its slot index within this descriptor. Returns -1 for names that
// match no slot of the detected version.
func (d *Descriptor) RegionNumber(name string) int {
	for i := 0; i < d.MaxRegions(); i++ {
		if strings.EqualFold(name, regionNames[i].pretty) ||
			strings.EqualFold(name, regionNames[i].terse) {
			return i
		}
	}
	return -1
}

// Region is a decoded FLREG entry. Base and Limit are byte addresses,
// Limit inclusive. Size is zero when Limit < Base, which marks the
// region disabled.
type Region struct {
	Base  uint32
	Limit uint32
	Size  int
}

// NewRegion builds a Region from a base and an inclusive limit, clamping
// a negative size to zero.
func NewRegion(base, limit uint32) Region {
	r := Region{Base: base, Limit: limit}
	if size := int(limit) - int(base) + 1; size > 0 {
		r.Size = size
	}
	return r
}

func (r Region) String() string {
	return fmt.Sprintf("%08x:%08x", r.Base, r.Limit)
}

// Overlaps reports whether two enabled regions share at least one byte.
// Disabled regions never overlap anything.
func (r Region) Overlaps(other Region) bool {
	if r.Size == 0 || other.Size == 0 {
		return false
	}
	return r.Base <= other.Limit && other.Base <= r.Limit
}

// The region fields are stored as 4KiB page numbers. The page field is
// 12 bits wide in v1 descriptors and 15 bits wide in v2.
func (d *Descriptor) baseMask() uint32 {
	if d.version == Version2 {
		return 0x7fff
	}
	return 0xfff
}

// FLREG returns the raw region word of the given slot.
func (d *Descriptor) FLREG(index int) uint32 {
	return d.word(d.FRBA() + 4*index)
}

// Region decodes the FLREG word of the given slot.
func (d *Descriptor) Region(index int) (Region, error) {
	if index < 0 || index >= d.MaxRegions() {
		return Region{}, fmt.Errorf("invalid region type %d", index)
	}
	mask := d.baseMask()
	reg := d.FLREG(index)
	base := (reg & mask) << 12
	limit := ((reg & (mask << 16)) >> 4) | 0xfff
	return NewRegion(base, limit), nil
}

// RegionData returns the bytes of an enabled region. A region whose
// limit lies beyond the image end is an error, not a short read: FLREG
// values are only bounded by their field width, not by the image size.
func (d *Descriptor) RegionData(index int) ([]byte, error) {
	r, err := d.Region(index)
	if err != nil {
		return nil, err
	}
	if r.Size == 0 {
		return nil, fmt.Errorf("region %s is disabled", RegionName(index))
	}
	if int(r.Limit) >= len(d.buf) {
		return nil, fmt.Errorf("region %s [%v] lies beyond the image end", RegionName(index), r)
	}
	return d.buf[r.Base : r.Limit+1], nil
}

// SetRegion encodes r into the FLREG word of the given slot. Writing is
// only implemented for slots 0-4; the v2-only upper slots have no
// writer and rejecting them keeps the reserved words untouched.
func (d *Descriptor) SetRegion(index int, r Region) error {
	if index < 0 || index > RegionPlatform {
		return fmt.Errorf("writing region %d is not supported", index)
	}
	mask := d.baseMask()
	reg := ((r.Limit>>12)&mask)<<16 | (r.Base>>12)&mask
	d.setWord(d.FRBA()+4*index, reg)
	return nil
}
