// Copyright 2022 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ifd

import (
	"fmt"
)

// SPIFrequency is a 3-bit clock frequency code from FLCOMP.
type SPIFrequency uint32

// SPI frequency code points. The 0b100 code means 50MHz on v1 parts and
// 30MHz on v2 parts.
const (
	Freq20MHz      SPIFrequency = 0
	Freq33MHz      SPIFrequency = 1
	Freq48MHz      SPIFrequency = 2
	Freq50MHz30MHz SPIFrequency = 4
	Freq17MHz      SPIFrequency = 6
)

// Describe returns the human-readable frequency under the given
// descriptor version.
func (f SPIFrequency) Describe(v Version) string {
	switch f {
	case Freq20MHz:
		return "20MHz"
	case Freq33MHz:
		return "33MHz"
	case Freq48MHz:
		return "48MHz"
	case Freq50MHz30MHz:
		if v == Version2 {
			return "30MHz"
		}
		return "50MHz"
	case Freq17MHz:
		return "17MHz"
	}
	return fmt.Sprintf("unknown<%x>MHz", uint32(f))
}

// ComponentDensity is a chip density code from FLCOMP. Only the low
// three bits are representable on v1 parts.
type ComponentDensity uint32

// Component density code points.
const (
	Density512KB  ComponentDensity = 0
	Density1MB    ComponentDensity = 1
	Density2MB    ComponentDensity = 2
	Density4MB    ComponentDensity = 3
	Density8MB    ComponentDensity = 4
	Density16MB   ComponentDensity = 5
	Density32MB   ComponentDensity = 6
	Density64MB   ComponentDensity = 7
	DensityUnused ComponentDensity = 0xf
)

func (c ComponentDensity) String() string {
	switch c {
	case Density512KB:
		return "512KB"
	case Density1MB:
		return "1MB"
	case Density2MB:
		return "2MB"
	case Density4MB:
		return "4MB"
	case Density8MB:
		return "8MB"
	case Density16MB:
		return "16MB"
	case Density32MB:
		return "32MB"
	case Density64MB:
		return "64MB"
	case DensityUnused:
		return "UNUSED"
	}
	return fmt.Sprintf("unknown<%x>MB", uint32(c))
}

// FLCOMP returns the raw component word.
func (d *Descriptor) FLCOMP() uint32 { return d.word(d.FCBA()) }

// FLILL returns the invalid instruction word.
func (d *Descriptor) FLILL() uint32 { return d.word(d.FCBA() + 4) }

// FLPB returns the flash partition boundary word.
func (d *Descriptor) FLPB() uint32 { return d.word(d.FCBA() + 8) }

// ReadClockFrequency returns the hardwired read clock, bits 17-19 of
// FLCOMP. This is the field version detection keys off.
func (d *Descriptor) ReadClockFrequency() SPIFrequency {
	return SPIFrequency((d.FLCOMP() >> 17) & 7)
}

// FastReadFrequency returns the fast read clock, bits 21-23 of FLCOMP.
func (d *Descriptor) FastReadFrequency() SPIFrequency {
	return SPIFrequency((d.FLCOMP() >> 21) & 7)
}

// WriteEraseFrequency returns the write/erase clock, bits 24-26 of FLCOMP.
func (d *Descriptor) WriteEraseFrequency() SPIFrequency {
	return SPIFrequency((d.FLCOMP() >> 24) & 7)
}

// ReadIDStatusFrequency returns the read ID/read status clock, bits
// 27-29 of FLCOMP.
func (d *Descriptor) ReadIDStatusFrequency() SPIFrequency {
	return SPIFrequency((d.FLCOMP() >> 27) & 7)
}

// FastReadSupported reports bit 20 of FLCOMP.
func (d *Descriptor) FastReadSupported() bool {
	return d.FLCOMP()&(1<<20) != 0
}

// DualOutputFastReadSupported reports bit 30 of FLCOMP.
func (d *Descriptor) DualOutputFastReadSupported() bool {
	return d.FLCOMP()&(1<<30) != 0
}

// ComponentDensity returns the density of chip 1 or chip 2. The fields
// are 3 bits wide on v1 parts and 4 bits wide on v2.
func (d *Descriptor) ComponentDensity(chip int) ComponentDensity {
	flcomp := d.FLCOMP()
	if d.version == Version2 {
		if chip == 2 {
			return ComponentDensity((flcomp >> 4) & 0xf)
		}
		return ComponentDensity(flcomp & 0xf)
	}
	if chip == 2 {
		return ComponentDensity((flcomp >> 3) & 7)
	}
	return ComponentDensity(flcomp & 7)
}
