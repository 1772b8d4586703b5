// Copyright 2022 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ifd

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/linuxboot/ifdtool/pkg/log"
)

// NextPow2 returns the smallest power of two strictly greater than x,
// and 0 for x == 0. A perfectly sized input still grows; callers pass
// x-1 when they want "at least x".
func NextPow2(x uint) uint {
	if x == 0 {
		return 0
	}
	y := uint(1)
	for y <= x {
		y <<= 1
	}
	return y
}

// parseLayout reads a flashrom-style layout: one region per line in the
// form "BASE:LIMIT NAME", addresses in hex. Names match the long and
// terse region names case-insensitively; lines with unknown names or
// without exactly two tokens are skipped. A recognized line whose
// address pair does not parse is an error.
func (d *Descriptor) parseLayout(r io.Reader) (map[int]Region, error) {
	regions := make(map[int]Region)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) != 2 {
			continue
		}
		num := d.RegionNumber(fields[1])
		if num < 0 {
			continue
		}
		baseStr, limitStr, found := strings.Cut(fields[0], ":")
		if !found {
			return nil, fmt.Errorf("could not parse layout line %q", scanner.Text())
		}
		base, err := strconv.ParseUint(baseStr, 16, 32)
		if err != nil {
			return nil, fmt.Errorf("could not parse layout line %q: %w", scanner.Text(), err)
		}
		limit, err := strconv.ParseUint(limitStr, 16, 32)
		if err != nil {
			return nil, fmt.Errorf("could not parse layout line %q: %w", scanner.Text(), err)
		}
		regions[num] = NewRegion(uint32(base), uint32(limit))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return regions, nil
}

// NewLayout rebuilds the image around the region layout read from
// layout. Region payloads are copied to their new positions: a grown
// region keeps its old payload at the high end, a shrunk region keeps
// the tail of the old payload. The image is reallocated to the next
// power of two above the highest region limit and filled with 0xff
// outside the regions; FLREG1 onwards are rewritten in the relocated
// descriptor, FLREG0 deliberately not. The input buffer is not modified.
func (d *Descriptor) NewLayout(layout io.Reader) ([]byte, error) {
	max := d.MaxRegions()
	current := make([]Region, max)
	newRegions := make([]Region, max)
	for i := range current {
		r, err := d.Region(i)
		if err != nil {
			return nil, err
		}
		current[i] = r
		newRegions[i] = r
	}

	parsed, err := d.parseLayout(layout)
	if err != nil {
		return nil, err
	}
	for i, r := range parsed {
		newRegions[i] = r
	}

	var overlaps *multierror.Error
	newExtent := uint(0)
	for i := 0; i < max; i++ {
		if newRegions[i].Size == 0 {
			continue
		}
		if newRegions[i].Size < current[i].Size {
			log.Warnf("region %s is shrinking; it will be truncated to fit and the image may be unusable", RegionName(i))
		}
		for j := i + 1; j < max; j++ {
			if newRegions[i].Overlaps(newRegions[j]) {
				overlaps = multierror.Append(overlaps, fmt.Errorf(
					"regions would overlap: %s [%v] and %s [%v]",
					RegionName(i), newRegions[i], RegionName(j), newRegions[j]))
			}
		}
		if newExtent < uint(newRegions[i].Limit) {
			newExtent = uint(newRegions[i].Limit)
		}
	}
	if err := overlaps.ErrorOrNil(); err != nil {
		return nil, err
	}

	if newExtent > 0 {
		newExtent = NextPow2(newExtent - 1)
	}
	if newExtent != uint(len(d.buf)) {
		log.Warnf("the image size changed from %d to %d bytes", len(d.buf), newExtent)
	}

	newImage := make([]byte, newExtent)
	for i := range newImage {
		newImage[i] = 0xff
	}
	for i := 0; i < max; i++ {
		cur, next := current[i], newRegions[i]
		if next.Size == 0 {
			continue
		}
		copySize := next.Size
		offsetCurrent, offsetNew := 0, 0
		if next.Size > cur.Size {
			// keep the old payload at the high end of the grown region
			copySize = cur.Size
			offsetNew = next.Size - cur.Size
		}
		if next.Size < cur.Size {
			// keep the tail of the old payload
			offsetCurrent = cur.Size - next.Size
		}
		if int(cur.Base)+offsetCurrent+copySize > len(d.buf) {
			return nil, fmt.Errorf("region %s [%v] lies beyond the image end", RegionName(i), cur)
		}
		if int(next.Limit) >= len(newImage) {
			return nil, fmt.Errorf("region %s [%v] lies beyond the resized image end", RegionName(i), next)
		}
		fmt.Printf("Copy Descriptor %d (%s) (%d bytes)\n", i, RegionName(i), copySize)
		fmt.Printf("   from %08x+%08x:%08x (%10d)\n", cur.Base, offsetCurrent, cur.Limit, cur.Size)
		fmt.Printf("     to %08x+%08x:%08x (%10d)\n", next.Base, offsetNew, next.Limit, next.Size)
		copy(newImage[int(next.Base)+offsetNew:],
			d.buf[int(cur.Base)+offsetCurrent:int(cur.Base)+offsetCurrent+copySize])
	}

	// The descriptor moved along with region 0; find it again and point
	// its region words at the new layout. FLREG0 keeps whatever boundary
	// the source descriptor had.
	relocated, err := Parse(newImage)
	if err != nil {
		return nil, err
	}
	for i := 1; i < max; i++ {
		if err := relocated.SetRegion(i, newRegions[i]); err != nil {
			return nil, err
		}
	}
	return newImage, nil
}
