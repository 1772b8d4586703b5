// Copyright 2022 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ifd

import (
	"bytes"
	"testing"
)

func TestRegionCodecRoundTrip(t *testing.T) {
	regions := map[int]Region{
		RegionDescriptor: NewRegion(0x000000, 0x000fff),
		RegionBIOS:       NewRegion(0x200000, 0x3fffff),
		RegionME:         NewRegion(0x001000, 0x1fffff),
	}
	for _, version := range []Version{Version1, Version2} {
		t.Run(version.String(), func(t *testing.T) {
			d := mustParse(t, makeImage(0x1000, version, regions))
			snapshot := make([]byte, len(d.Buf()))
			copy(snapshot, d.Buf())
			// re-encoding every decoded region must not change a byte
			for i := 0; i < RegionPlatform+1; i++ {
				r, err := d.Region(i)
				if err != nil {
					t.Fatalf("Region(%d): %v", i, err)
				}
				if err := d.SetRegion(i, r); err != nil {
					t.Fatalf("SetRegion(%d): %v", i, err)
				}
			}
			if !bytes.Equal(snapshot, d.Buf()) {
				t.Error("get/set round trip changed the image")
			}
		})
	}
}

func TestRegionDecode(t *testing.T) {
	d := mustParse(t, makeImage(0x1000, Version2, map[int]Region{
		RegionBIOS: NewRegion(0x200000, 0x3fffff),
	}))
	r, err := d.Region(RegionBIOS)
	if err != nil {
		t.Fatal(err)
	}
	if r.Base != 0x200000 || r.Limit != 0x3fffff || r.Size != 0x200000 {
		t.Errorf("unexpected region %v size %#x", r, r.Size)
	}

	disabled, err := d.Region(RegionME)
	if err != nil {
		t.Fatal(err)
	}
	if disabled.Size != 0 {
		t.Errorf("expected a disabled region, got size %#x", disabled.Size)
	}
}

func TestRegionIndexBounds(t *testing.T) {
	d := mustParse(t, makeImage(0x1000, Version1, nil))
	if _, err := d.Region(-1); err == nil {
		t.Error("expected an error for a negative index")
	}
	// EC exists on v2 only
	if _, err := d.Region(RegionEC); err == nil {
		t.Error("expected an error for the EC slot of a v1 descriptor")
	}
	if err := d.SetRegion(RegionReserved1, Region{}); err == nil {
		t.Error("expected an error: no writer for slots above 4")
	}
}

func TestRegionData(t *testing.T) {
	me := NewRegion(0x1000, 0x1fff)
	image := makeImage(0x4000, Version2, map[int]Region{
		RegionME: me,
	})
	for i := int(me.Base); i <= int(me.Limit); i++ {
		image[i] = 0xaa
	}
	d := mustParse(t, image)

	data, err := d.RegionData(RegionME)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != me.Size {
		t.Errorf("expected %#x bytes, got %#x", me.Size, len(data))
	}
	for i, b := range data {
		if b != 0xaa {
			t.Fatalf("unexpected byte %#x at %#x", b, i)
		}
	}

	// disabled region
	if _, err := d.RegionData(RegionGbE); err == nil {
		t.Error("expected an error for a disabled region")
	}
}

func TestRegionDataOutOfBounds(t *testing.T) {
	// the region word parses fine but points past the 16KiB image
	d := mustParse(t, makeImage(0x4000, Version2, map[int]Region{
		RegionBIOS: NewRegion(0x1000, 0x3fffff),
	}))
	if _, err := d.RegionData(RegionBIOS); err == nil {
		t.Error("expected an error for a region beyond the image end")
	}
}

func TestNewRegionClampsSize(t *testing.T) {
	r := NewRegion(0x2000, 0xfff)
	if r.Size != 0 {
		t.Errorf("expected size 0 when limit < base, got %#x", r.Size)
	}
}

func TestRegionOverlaps(t *testing.T) {
	var tests = []struct {
		name string
		a, b Region
		out  bool
	}{
		{"Disjoint", NewRegion(0x0, 0xfff), NewRegion(0x1000, 0x1fff), false},
		{"Touching", NewRegion(0x0, 0x1000), NewRegion(0x1000, 0x1fff), true},
		{"Contained", NewRegion(0x0, 0xffff), NewRegion(0x1000, 0x1fff), true},
		{"EmptyNeverOverlaps", NewRegion(0x2000, 0xfff), NewRegion(0x0, 0xffff), false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := test.a.Overlaps(test.b); got != test.out {
				t.Errorf("expected %v, got %v", test.out, got)
			}
			if got := test.b.Overlaps(test.a); got != test.out {
				t.Errorf("not symmetric: expected %v, got %v", test.out, got)
			}
		})
	}
}

func TestRegionNumber(t *testing.T) {
	v1 := mustParse(t, makeImage(0x1000, Version1, nil))
	v2 := mustParse(t, makeImage(0x1000, Version2, nil))
	var tests = []struct {
		d    *Descriptor
		name string
		out  int
	}{
		{v1, "Flash Descriptor", 0},
		{v1, "fd", 0},
		{v1, "BIOS", 1},
		{v1, "bios", 1},
		{v1, "Intel ME", 2},
		{v1, "GBE", 3},
		{v1, "pd", 4},
		{v1, "ec", -1}, // no EC slot on v1
		{v2, "ec", 8},
		{v2, "res2", 6},
		{v2, "bogus", -1},
	}
	for _, test := range tests {
		if got := test.d.RegionNumber(test.name); got != test.out {
			t.Errorf("RegionNumber(%q) on %v: expected %d, got %d",
				test.name, test.d.Version(), test.out, got)
		}
	}
}

func TestRegionFilenames(t *testing.T) {
	if got := RegionFilename(RegionME); got != "flashregion_2_intel_me.bin" {
		t.Errorf("unexpected ME filename %q", got)
	}
	if got := RegionFilename(RegionEC); got != "flashregion_8_ec.bin" {
		t.Errorf("unexpected EC filename %q", got)
	}
}
