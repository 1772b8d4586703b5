// Copyright 2022 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ifd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetSPIFrequency(t *testing.T) {
	d := mustParse(t, makeImage(0x1000, Version2, nil))
	d.SetSPIFrequency(Freq48MHz)

	assert.Equal(t, Freq48MHz, d.ReadIDStatusFrequency())
	assert.Equal(t, Freq48MHz, d.WriteEraseFrequency())
	assert.Equal(t, Freq48MHz, d.FastReadFrequency())
	// the hardwired read clock must survive, or the image would no
	// longer parse as v2
	assert.Equal(t, Freq50MHz30MHz, d.ReadClockFrequency())
	_, err := Parse(d.Buf())
	assert.NoError(t, err)
}

func TestSetEM100Mode(t *testing.T) {
	var tests = []struct {
		name    string
		version Version
		freq    SPIFrequency
	}{
		{"Version1", Version1, Freq20MHz},
		{"Version2", Version2, Freq17MHz},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			d := mustParse(t, makeImage(0x1000, test.version, nil))
			d.setWord(testFCBA, d.FLCOMP()|1<<30) // dual output fast read on
			d.SetEM100Mode()

			assert.False(t, d.DualOutputFastReadSupported())
			assert.Equal(t, test.freq, d.ReadIDStatusFrequency())
			assert.Equal(t, test.freq, d.WriteEraseFrequency())
			assert.Equal(t, test.freq, d.FastReadFrequency())
		})
	}
}

func TestSetChipDensity(t *testing.T) {
	var tests = []struct {
		name    string
		chip    int
		density ComponentDensity
		chip1   ComponentDensity
		chip2   ComponentDensity
	}{
		{"BothChips", 0, Density8MB, Density8MB, Density8MB},
		{"FirstChip", 1, Density4MB, Density4MB, Density16MB},
		{"SecondChip", 2, Density2MB, Density16MB, Density2MB},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			d := mustParse(t, makeImage(0x1000, Version1, nil))
			// both fields start out as 16MB
			require.NoError(t, d.SetChipDensity(0, Density16MB))
			require.NoError(t, d.SetChipDensity(test.chip, test.density))
			assert.Equal(t, test.chip1, d.ComponentDensity(1))
			assert.Equal(t, test.chip2, d.ComponentDensity(2))
		})
	}
}

func TestSetChipDensityUnsupported(t *testing.T) {
	v1 := mustParse(t, makeImage(0x1000, Version1, nil))
	for _, density := range []ComponentDensity{Density32MB, Density64MB, DensityUnused} {
		assert.Error(t, v1.SetChipDensity(0, density), "density %s", density)
	}

	v2 := mustParse(t, makeImage(0x1000, Version2, nil))
	assert.Error(t, v2.SetChipDensity(0, Density8MB))
}

func TestLockAfterUnlockIsCanonical(t *testing.T) {
	var tests = []struct {
		name    string
		version Version
		want    [3]uint32
	}{
		{"Version1", Version1, [3]uint32{0x0a0b0000, 0x0c0d0000, 0x08080118}},
		{"Version2", Version2, [3]uint32{0x00a00b00, 0x00c00d00, 0x00800800}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			d := mustParse(t, makeImage(0x1000, test.version, nil))
			d.UnlockMasters()
			d.LockMasters()
			assert.Equal(t, test.want[0], d.FLMSTR(flmstrHost))
			assert.Equal(t, test.want[1], d.FLMSTR(flmstrME))
			assert.Equal(t, test.want[2], d.FLMSTR(flmstrGbE))
		})
	}
}

func TestLockMatrixAccess(t *testing.T) {
	d := mustParse(t, makeImage(0x1000, Version2, nil))
	d.LockMasters()

	// CPU/BIOS reads descriptor, BIOS, GbE; writes BIOS, GbE
	assert.True(t, d.MasterCanRead(flmstrHost, RegionDescriptor))
	assert.True(t, d.MasterCanRead(flmstrHost, RegionBIOS))
	assert.True(t, d.MasterCanRead(flmstrHost, RegionGbE))
	assert.False(t, d.MasterCanRead(flmstrHost, RegionME))
	assert.False(t, d.MasterCanWrite(flmstrHost, RegionDescriptor))
	assert.True(t, d.MasterCanWrite(flmstrHost, RegionBIOS))
	assert.True(t, d.MasterCanWrite(flmstrHost, RegionGbE))

	// ME reads descriptor, ME, GbE; writes ME, GbE
	assert.True(t, d.MasterCanRead(flmstrME, RegionDescriptor))
	assert.True(t, d.MasterCanRead(flmstrME, RegionME))
	assert.True(t, d.MasterCanWrite(flmstrME, RegionME))
	assert.False(t, d.MasterCanWrite(flmstrME, RegionBIOS))

	// GbE touches GbE only
	assert.True(t, d.MasterCanRead(flmstrGbE, RegionGbE))
	assert.True(t, d.MasterCanWrite(flmstrGbE, RegionGbE))
	assert.False(t, d.MasterCanRead(flmstrGbE, RegionBIOS))
}

func TestUnlockPreservesReservedBits(t *testing.T) {
	d := mustParse(t, makeImage(0x1000, Version2, nil))
	d.setFLMSTR(flmstrHost, 0xab)
	d.UnlockMasters()
	assert.Equal(t, uint32(0xffffffab), d.FLMSTR(flmstrHost))
}

func TestInjectBIOSPadsFromTheTop(t *testing.T) {
	bios := NewRegion(0x200000, 0x3fffff)
	image := makeImage(0x400000, Version2, map[int]Region{
		RegionDescriptor: NewRegion(0, 0xfff),
		RegionBIOS:       bios,
	})
	for i := int(bios.Base); i <= int(bios.Limit); i++ {
		image[i] = 0xaa
	}
	d := mustParse(t, image)

	payload := bytes.Repeat([]byte{0x5a}, 32)
	require.NoError(t, d.InjectRegion(RegionBIOS, payload))

	for i := 0x200000; i < 0x3fffe0; i++ {
		require.Equal(t, byte(0xff), d.Buf()[i], "fill byte at %#x", i)
	}
	assert.Equal(t, payload, d.Buf()[0x3fffe0:0x400000])
}

func TestInjectMEIsBottomAligned(t *testing.T) {
	me := NewRegion(0x1000, 0x100fff)
	image := makeImage(0x200000, Version2, map[int]Region{
		RegionDescriptor: NewRegion(0, 0xfff),
		RegionME:         me,
	})
	for i := int(me.Base); i <= int(me.Limit); i++ {
		image[i] = 0xaa
	}
	d := mustParse(t, image)

	payload := bytes.Repeat([]byte{0x5a}, 256)
	require.NoError(t, d.InjectRegion(RegionME, payload))

	assert.Equal(t, payload, d.Buf()[0x1000:0x1100])
	for i := 0x1100; i <= int(me.Limit); i++ {
		require.Equal(t, byte(0xaa), d.Buf()[i], "tail byte at %#x must be untouched", i)
	}
}

func TestInjectErrors(t *testing.T) {
	d := mustParse(t, makeImage(0x400000, Version2, map[int]Region{
		RegionBIOS: NewRegion(0x200000, 0x3fffff),
	}))

	// disabled region
	err := d.InjectRegion(RegionME, []byte{1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disabled")

	// payload larger than the region
	err = d.InjectRegion(RegionBIOS, make([]byte, 0x200001))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not injecting")

	// index out of range
	require.Error(t, d.InjectRegion(42, []byte{1}))
}
