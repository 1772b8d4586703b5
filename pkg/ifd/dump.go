// Copyright 2022 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ifd

import (
	"fmt"
	"io"
)

// Dump writes a human-readable report of every known descriptor field
// to w.
func (d *Descriptor) Dump(w io.Writer) {
	d.dumpMap(w)
	d.dumpVSCCTable(w)
	d.dumpOEM(w)
	d.dumpFRBA(w)
	d.dumpFCBA(w)
	d.dumpFPSBA(w)
	d.dumpFMBA(w)
	d.dumpFMSBA(w)
}

// DumpLayout writes one "BASE:LIMIT name" line per region, the format
// flashrom consumes.
func (d *Descriptor) DumpLayout(w io.Writer) error {
	for i := 0; i < d.MaxRegions(); i++ {
		region, err := d.Region(i)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%08x:%08x %s\n", region.Base, region.Limit, RegionShortName(i)); err != nil {
			return err
		}
	}
	return nil
}

func (d *Descriptor) dumpMap(w io.Writer) {
	fmt.Fprintf(w, "FLMAP0:    0x%08x\n", d.FLMAP0())
	fmt.Fprintf(w, "  NR:      %d\n", d.NumRegions())
	fmt.Fprintf(w, "  FRBA:    0x%x\n", d.FRBA())
	fmt.Fprintf(w, "  NC:      %d\n", d.NumComponents())
	fmt.Fprintf(w, "  FCBA:    0x%x\n", d.FCBA())

	fmt.Fprintf(w, "FLMAP1:    0x%08x\n", d.FLMAP1())
	fmt.Fprintf(w, "  ISL:     0x%02x\n", d.ISL())
	fmt.Fprintf(w, "  FPSBA:   0x%x\n", d.FPSBA())
	fmt.Fprintf(w, "  NM:      %d\n", d.NumMasters())
	fmt.Fprintf(w, "  FMBA:    0x%x\n", d.FMBA())

	fmt.Fprintf(w, "FLMAP2:    0x%08x\n", d.FLMAP2())
	fmt.Fprintf(w, "  PSL:     0x%04x\n", d.PSL())
	fmt.Fprintf(w, "  FMSBA:   0x%x\n", d.FMSBA())

	fmt.Fprintf(w, "FLUMAP1:   0x%08x\n", d.FLUMAP1())
	fmt.Fprintf(w, "  Intel ME VSCC Table Length (VTL):        %d\n", d.VTL())
	fmt.Fprintf(w, "  Intel ME VSCC Table Base Address (VTBA): 0x%06x\n\n", d.VTBA())
}

func (d *Descriptor) dumpOEM(w io.Writer) {
	oem := d.buf[oemOffset : oemOffset+oemLength]
	fmt.Fprintf(w, "OEM Section:\n")
	for i := 0; i < 4; i++ {
		fmt.Fprintf(w, "%02x:", i<<4)
		for j := 0; j < 16; j++ {
			fmt.Fprintf(w, " %02x", oem[(i<<4)+j])
		}
		fmt.Fprintf(w, "\n")
	}
	fmt.Fprintf(w, "\n")
}

func (d *Descriptor) dumpRegion(w io.Writer, index int) {
	region, err := d.Region(index)
	if err != nil {
		return
	}
	unused := ""
	if region.Size < 1 {
		unused = "(unused)"
	}
	fmt.Fprintf(w, "  Flash Region %d (%s): %08x - %08x %s\n",
		index, RegionName(index), region.Base, region.Limit, unused)
}

func (d *Descriptor) dumpFRBA(w io.Writer) {
	fmt.Fprintf(w, "Found Region Section\n")
	for i := 0; i < d.MaxRegions(); i++ {
		fmt.Fprintf(w, "FLREG%d:    0x%08x\n", i, d.FLREG(i))
		d.dumpRegion(w, i)
	}
}

func (d *Descriptor) dumpFCBA(w io.Writer) {
	supported := func(b bool) string {
		if b {
			return "supported"
		}
		return "not supported"
	}
	fmt.Fprintf(w, "\nFound Component Section\n")
	fmt.Fprintf(w, "FLCOMP     0x%08x\n", d.FLCOMP())
	fmt.Fprintf(w, "  Dual Output Fast Read Support:       %s\n", supported(d.DualOutputFastReadSupported()))
	fmt.Fprintf(w, "  Read ID/Read Status Clock Frequency: %s\n", d.ReadIDStatusFrequency().Describe(d.version))
	fmt.Fprintf(w, "  Write/Erase Clock Frequency:         %s\n", d.WriteEraseFrequency().Describe(d.version))
	fmt.Fprintf(w, "  Fast Read Clock Frequency:           %s\n", d.FastReadFrequency().Describe(d.version))
	fmt.Fprintf(w, "  Fast Read Support:                   %s\n", supported(d.FastReadSupported()))
	fmt.Fprintf(w, "  Read Clock Frequency:                %s\n", d.ReadClockFrequency().Describe(d.version))
	fmt.Fprintf(w, "  Component 2 Density:                 %s\n", d.ComponentDensity(2))
	fmt.Fprintf(w, "  Component 1 Density:                 %s\n", d.ComponentDensity(1))

	flill := d.FLILL()
	fmt.Fprintf(w, "FLILL      0x%08x\n", flill)
	fmt.Fprintf(w, "  Invalid Instruction 3: 0x%02x\n", (flill>>24)&0xff)
	fmt.Fprintf(w, "  Invalid Instruction 2: 0x%02x\n", (flill>>16)&0xff)
	fmt.Fprintf(w, "  Invalid Instruction 1: 0x%02x\n", (flill>>8)&0xff)
	fmt.Fprintf(w, "  Invalid Instruction 0: 0x%02x\n", flill&0xff)
	fmt.Fprintf(w, "FLPB       0x%08x\n", d.FLPB())
	fmt.Fprintf(w, "  Flash Partition Boundary Address: 0x%06x\n\n", (d.FLPB()&0xfff)<<12)
}

func (d *Descriptor) dumpFPSBA(w io.Writer) {
	fmt.Fprintf(w, "Found PCH Strap Section\n")
	for i := 0; i < fpsbaLength/4; i++ {
		fmt.Fprintf(w, "%-11s0x%08x\n", fmt.Sprintf("PCHSTRP%d:", i), d.word(d.FPSBA()+4*i))
	}
	fmt.Fprintf(w, "\n")
}

func (d *Descriptor) dumpFLMSTR(w io.Writer, slot int) {
	access := func(granted bool) string {
		if granted {
			return "enabled"
		}
		return "disabled"
	}
	if d.version == Version2 {
		fmt.Fprintf(w, "  EC Region Write Access:            %s\n", access(d.MasterCanWrite(slot, RegionEC)))
	}
	fmt.Fprintf(w, "  Platform Data Region Write Access: %s\n", access(d.MasterCanWrite(slot, RegionPlatform)))
	fmt.Fprintf(w, "  GbE Region Write Access:           %s\n", access(d.MasterCanWrite(slot, RegionGbE)))
	fmt.Fprintf(w, "  Intel ME Region Write Access:      %s\n", access(d.MasterCanWrite(slot, RegionME)))
	fmt.Fprintf(w, "  Host CPU/BIOS Region Write Access: %s\n", access(d.MasterCanWrite(slot, RegionBIOS)))
	fmt.Fprintf(w, "  Flash Descriptor Write Access:     %s\n", access(d.MasterCanWrite(slot, RegionDescriptor)))
	if d.version == Version2 {
		fmt.Fprintf(w, "  EC Region Read Access:             %s\n", access(d.MasterCanRead(slot, RegionEC)))
	}
	fmt.Fprintf(w, "  Platform Data Region Read Access:  %s\n", access(d.MasterCanRead(slot, RegionPlatform)))
	fmt.Fprintf(w, "  GbE Region Read Access:            %s\n", access(d.MasterCanRead(slot, RegionGbE)))
	fmt.Fprintf(w, "  Intel ME Region Read Access:       %s\n", access(d.MasterCanRead(slot, RegionME)))
	fmt.Fprintf(w, "  Host CPU/BIOS Region Read Access:  %s\n", access(d.MasterCanRead(slot, RegionBIOS)))
	fmt.Fprintf(w, "  Flash Descriptor Read Access:      %s\n", access(d.MasterCanRead(slot, RegionDescriptor)))
	if d.version == Version1 {
		fmt.Fprintf(w, "  Requester ID:                      0x%04x\n\n", d.RequesterID(slot))
	}
}

func (d *Descriptor) dumpFMBA(w io.Writer) {
	fmt.Fprintf(w, "Found Master Section\n")
	fmt.Fprintf(w, "FLMSTR1:   0x%08x (Host CPU/BIOS)\n", d.FLMSTR(flmstrHost))
	d.dumpFLMSTR(w, flmstrHost)
	fmt.Fprintf(w, "FLMSTR2:   0x%08x (Intel ME)\n", d.FLMSTR(flmstrME))
	d.dumpFLMSTR(w, flmstrME)
	fmt.Fprintf(w, "FLMSTR3:   0x%08x (GbE)\n", d.FLMSTR(flmstrGbE))
	d.dumpFLMSTR(w, flmstrGbE)
	if d.version == Version2 {
		fmt.Fprintf(w, "FLMSTR5:   0x%08x (EC)\n", d.FLMSTR(flmstrEC))
		d.dumpFLMSTR(w, flmstrEC)
	}
}

func (d *Descriptor) dumpFMSBA(w io.Writer) {
	fmt.Fprintf(w, "Found Processor Strap Section\n")
	for i := 0; i < fmsbaLength/4; i++ {
		fmt.Fprintf(w, "????:      0x%08x\n", d.word(d.FMSBA()+4*i))
	}
}
