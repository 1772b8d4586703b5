// Copyright 2022 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ifd

import (
	"errors"
	"fmt"

	"github.com/linuxboot/ifdtool/pkg/log"
)

// SetSPIFrequency sets the read ID/status, write/erase and fast read
// clock fields to freq. The read clock field is hardwired per chipset
// generation and left untouched.
func (d *Descriptor) SetSPIFrequency(freq SPIFrequency) {
	flcomp := d.FLCOMP()
	// clear bits 21-29
	flcomp &^= 0x3fe00000
	flcomp |= uint32(freq) << 27
	flcomp |= uint32(freq) << 24
	flcomp |= uint32(freq) << 21
	d.setWord(d.FCBA(), flcomp)
}

// SetEM100Mode configures the component section for a Dediprog EM100
// emulator: dual output fast read off, clocks at the slowest code the
// dialect knows.
func (d *Descriptor) SetEM100Mode() {
	freq := Freq17MHz
	if d.version == Version1 {
		freq = Freq20MHz
	}
	d.setWord(d.FCBA(), d.FLCOMP()&^(1<<30))
	d.SetSPIFrequency(freq)
}

// SetChipDensity writes the density code of the selected chip: 1 or 2
// for a single chip, 0 for both. Unselected fields are preserved.
//
// Only v1 descriptors are supported; the v2 field encoding is wider and
// writing it has not been implemented.
func (d *Descriptor) SetChipDensity(chip int, density ComponentDensity) error {
	switch d.version {
	case Version1:
		if density == Density32MB || density == Density64MB || density == DensityUnused {
			return fmt.Errorf("density %s is not representable in an IFDv1 descriptor", density)
		}
	case Version2:
		return errors.New("changing the chip density of an IFDv2 descriptor is not implemented")
	}

	flcomp := d.FLCOMP()
	switch chip {
	case 1:
		flcomp &^= 0x7
	case 2:
		flcomp &^= 0x7 << 3
	default:
		flcomp &^= 0x3f
	}
	if chip == 0 || chip == 1 {
		flcomp |= uint32(density)
	}
	if chip == 0 || chip == 2 {
		flcomp |= uint32(density) << 3
	}
	d.setWord(d.FCBA(), flcomp)
	return nil
}

// InjectRegion overwrites the contents of a region with payload. The
// region must be enabled and the payload must fit. BIOS payloads smaller
// than the region are placed at its high end, with 0xff fill below, so
// the reset vector stays at the top; every other region is written from
// its base, leaving the tail untouched. The region extents themselves
// are never changed.
func (d *Descriptor) InjectRegion(index int, payload []byte) error {
	region, err := d.Region(index)
	if err != nil {
		return err
	}
	if region.Size <= 0xfff {
		return fmt.Errorf("region %s is disabled in target, not injecting", RegionName(index))
	}
	if len(payload) > region.Size {
		return fmt.Errorf("region %s is %d(%#x) bytes, file is %d(%#x) bytes, not injecting",
			RegionName(index), region.Size, region.Size, len(payload), len(payload))
	}

	offset := 0
	pad := index == RegionBIOS && len(payload) < region.Size
	if pad {
		offset = region.Size - len(payload)
	}
	if len(d.buf) < int(region.Base)+offset+len(payload) {
		return fmt.Errorf("output image is too small (%d < %d)",
			len(d.buf), int(region.Base)+offset+len(payload))
	}
	if pad {
		log.Warnf("region %s is %d(%#x) bytes, file is %d(%#x) bytes, padding before injecting",
			RegionName(index), region.Size, region.Size, len(payload), len(payload))
		for i := 0; i < offset; i++ {
			d.buf[int(region.Base)+i] = 0xff
		}
	}
	copy(d.buf[int(region.Base)+offset:], payload)
	return nil
}
