// Copyright 2022 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The ifdtool command dumps and modifies the Intel Firmware Descriptor
// of a SPI flash image.
//
// Synopsis:
//     ifdtool [OPTIONS] IMAGE
//
// Examples:
//     # Dump every descriptor field:
//     ifdtool -d coreboot.rom
//
//     # Write a flashrom layout file:
//     ifdtool -f rom.layout coreboot.rom
//
//     # Extract all regions into the current directory:
//     ifdtool -x coreboot.rom
//
//     # Replace the ME region:
//     ifdtool -i ME:me.bin coreboot.rom
//
//     # Rearrange the regions according to a layout file:
//     ifdtool -n rom.layout coreboot.rom
//
//     # Unlock all regions for all masters:
//     ifdtool -u coreboot.rom
//
// Exactly one mode may be given per run. Modes that modify the image
// write the result to IMAGE.new and leave the input untouched.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jessevdk/go-flags"

	"github.com/linuxboot/ifdtool/pkg/ifd"
	"github.com/linuxboot/ifdtool/pkg/log"
)

const toolVersion = "1.2"

type options struct {
	Dump      bool   `short:"d" long:"dump" description:"dump intel firmware descriptor"`
	Layout    string `short:"f" long:"layout" value-name:"FILE" description:"dump regions into a flashrom layout file"`
	Extract   bool   `short:"x" long:"extract" description:"extract intel fd modules"`
	Inject    string `short:"i" long:"inject" value-name:"REGION:FILE" description:"inject file into region REGION"`
	NewLayout string `short:"n" long:"newlayout" value-name:"FILE" description:"update regions using a flashrom layout file"`
	SPIFreq   *int   `short:"s" long:"spifreq" value-name:"17|20|30|33|48|50" description:"set the SPI frequency"`
	Density   *int   `short:"D" long:"density" value-name:"512|1|2|4|8|16|32|64" description:"set chip density (512 in KByte, others in MByte, 0 to mark unused)"`
	Chip      int    `short:"C" long:"chip" value-name:"0|1|2" description:"select spi chip on which to operate: 0 - both chips (default), 1 - first chip, 2 - second chip"`
	EM100     bool   `short:"e" long:"em100" description:"set SPI frequency to 20MHz (17MHz on IFDv2) and disable dual output fast read"`
	Lock      bool   `short:"l" long:"lock" description:"lock firmware descriptor and ME region"`
	Unlock    bool   `short:"u" long:"unlock" description:"unlock firmware descriptor and ME region"`
	Version   bool   `short:"v" long:"version" description:"print the version"`
}

// Inject targets, matched case-insensitively. EC only resolves on v2
// images; ifd.Descriptor rejects the index on v1.
var injectRegions = map[string]int{
	"descriptor": ifd.RegionDescriptor,
	"bios":       ifd.RegionBIOS,
	"me":         ifd.RegionME,
	"gbe":        ifd.RegionGbE,
	"platform":   ifd.RegionPlatform,
	"ec":         ifd.RegionEC,
}

var spiFrequencies = map[int]ifd.SPIFrequency{
	17: ifd.Freq17MHz,
	20: ifd.Freq20MHz,
	30: ifd.Freq50MHz30MHz,
	33: ifd.Freq33MHz,
	48: ifd.Freq48MHz,
	50: ifd.Freq50MHz30MHz,
}

var chipDensities = map[int]ifd.ComponentDensity{
	512: ifd.Density512KB,
	1:   ifd.Density1MB,
	2:   ifd.Density2MB,
	4:   ifd.Density4MB,
	8:   ifd.Density8MB,
	16:  ifd.Density16MB,
	32:  ifd.Density32MB,
	64:  ifd.Density64MB,
	0:   ifd.DensityUnused,
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("%v", err)
	}
}

func run(args []string) error {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	parser.Usage = "[OPTIONS] IMAGE"
	rest, err := parser.ParseArgs(args)
	if err != nil {
		if flags.WroteHelp(err) {
			return nil
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("ifdtool v%s\n", toolVersion)
		return nil
	}

	modes := 0
	for _, selected := range []bool{
		opts.Dump, opts.Layout != "", opts.Extract, opts.Inject != "",
		opts.NewLayout != "", opts.SPIFreq != nil, opts.Density != nil,
		opts.EM100, opts.Lock, opts.Unlock,
	} {
		if selected {
			modes++
		}
	}
	if modes > 1 {
		return errors.New("you may not specify more than one mode")
	}
	if modes == 0 {
		return errors.New("you need to specify a mode")
	}
	if len(rest) != 1 {
		return errors.New("you need to specify exactly one image file")
	}
	if opts.Chip < 0 || opts.Chip > 2 {
		return fmt.Errorf("invalid chip selection %d", opts.Chip)
	}

	filename := rest[0]
	image, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("could not read %s: %w", filename, err)
	}
	fmt.Printf("File %s is %d bytes (%s)\n", filename, len(image), humanize.IBytes(uint64(len(image))))

	d, err := ifd.Parse(image)
	if err != nil {
		return err
	}

	switch {
	case opts.Dump:
		d.Dump(os.Stdout)
		return nil
	case opts.Layout != "":
		return dumpLayout(d, opts.Layout)
	case opts.Extract:
		return extract(d)
	case opts.Inject != "":
		return inject(d, filename, opts.Inject)
	case opts.NewLayout != "":
		return newLayout(d, filename, opts.NewLayout)
	case opts.SPIFreq != nil:
		freq, ok := spiFrequencies[*opts.SPIFreq]
		if !ok {
			return fmt.Errorf("invalid SPI frequency %d", *opts.SPIFreq)
		}
		d.SetSPIFrequency(freq)
	case opts.Density != nil:
		density, ok := chipDensities[*opts.Density]
		if !ok {
			return fmt.Errorf("unknown density %d", *opts.Density)
		}
		fmt.Printf("Setting chip density to %s\n", density)
		if err := d.SetChipDensity(opts.Chip, density); err != nil {
			return err
		}
	case opts.EM100:
		d.SetEM100Mode()
	case opts.Lock:
		d.LockMasters()
	case opts.Unlock:
		d.UnlockMasters()
	}
	return writeImage(filename, d.Buf())
}

// writeImage writes the image next to the input; the input file itself
// is never modified.
func writeImage(filename string, image []byte) error {
	out := filename + ".new"
	fmt.Printf("Writing new image to %s\n", out)
	if err := os.WriteFile(out, image, 0o644); err != nil {
		return fmt.Errorf("could not write %s: %w", out, err)
	}
	return nil
}

func dumpLayout(d *ifd.Descriptor, layoutName string) error {
	f, err := os.Create(layoutName)
	if err != nil {
		return fmt.Errorf("could not open %s: %w", layoutName, err)
	}
	defer f.Close()
	if err := d.DumpLayout(f); err != nil {
		return fmt.Errorf("could not write layout to %s: %w", layoutName, err)
	}
	fmt.Printf("Wrote layout to %s\n", layoutName)
	return nil
}

func extract(d *ifd.Descriptor) error {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"#", "Region", "Range", "Size", "File"})
	for i := 0; i < d.MaxRegions(); i++ {
		region, err := d.Region(i)
		if err != nil {
			return err
		}
		if region.Size <= 0 {
			continue
		}
		data, err := d.RegionData(i)
		if err != nil {
			return err
		}
		name := ifd.RegionFilename(i)
		if err := os.WriteFile(name, data, 0o644); err != nil {
			return fmt.Errorf("could not write %s: %w", name, err)
		}
		t.AppendRow(table.Row{
			i, ifd.RegionName(i), region.String(),
			humanize.IBytes(uint64(region.Size)), name,
		})
	}
	t.Render()
	return nil
}

func inject(d *ifd.Descriptor, filename, arg string) error {
	regionName, payloadName, found := strings.Cut(arg, ":")
	if !found {
		return fmt.Errorf("inject argument %q is not of the form REGION:FILE", arg)
	}
	index, ok := injectRegions[strings.ToLower(regionName)]
	if !ok {
		return fmt.Errorf("no such region type: %q", regionName)
	}
	payload, err := os.ReadFile(payloadName)
	if err != nil {
		return fmt.Errorf("could not read %s: %w", payloadName, err)
	}
	fmt.Printf("File %s is %d bytes (%s)\n", payloadName, len(payload), humanize.IBytes(uint64(len(payload))))
	if err := d.InjectRegion(index, payload); err != nil {
		return err
	}
	fmt.Printf("Adding %s as the %s section of %s\n", payloadName, ifd.RegionName(index), filename)
	return writeImage(filename, d.Buf())
}

func newLayout(d *ifd.Descriptor, filename, layoutName string) error {
	f, err := os.Open(layoutName)
	if err != nil {
		return fmt.Errorf("could not read layout file: %w", err)
	}
	defer f.Close()
	image, err := d.NewLayout(f)
	if err != nil {
		return err
	}
	return writeImage(filename, image)
}
