// Copyright 2022 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ifd

// Bus masters and their FLMSTR slots. FLMSTR4 exists on flash but no
// known platform assigns it, so it is left alone.
const (
	flmstrHost = 1
	flmstrME   = 2
	flmstrGbE  = 3
	flmstrEC   = 5
)

// Per-version bit positions of the read and write grant fields within a
// FLMSTR word. On v1 the low 16 bits carry the requester ID; on v2 the
// low 8 bits are master-reserved.
func (d *Descriptor) masterShifts() (rdShift, wrShift uint) {
	if d.version == Version2 {
		return 8, 20
	}
	return 16, 24
}

// FLMSTR returns the raw master word of the given slot (1-based).
func (d *Descriptor) FLMSTR(slot int) uint32 {
	return d.word(d.FMBA() + 4*(slot-1))
}

func (d *Descriptor) setFLMSTR(slot int, v uint32) {
	d.setWord(d.FMBA()+4*(slot-1), v)
}

// MasterCanRead reports whether the master in the given FLMSTR slot may
// read the region. Region bits follow the region index (EC is bit 8).
func (d *Descriptor) MasterCanRead(slot, region int) bool {
	rd, _ := d.masterShifts()
	return d.FLMSTR(slot)&(1<<(rd+uint(region))) != 0
}

// MasterCanWrite reports whether the master in the given FLMSTR slot may
// write the region.
func (d *Descriptor) MasterCanWrite(slot, region int) bool {
	_, wr := d.masterShifts()
	return d.FLMSTR(slot)&(1<<(wr+uint(region))) != 0
}

// RequesterID returns the low 16 bits of a v1 FLMSTR word.
func (d *Descriptor) RequesterID(slot int) uint16 {
	return uint16(d.FLMSTR(slot) & 0xffff)
}

// LockMasters resets FLMSTR1-3 to the canonical locked matrix:
//
//	Host CPU/BIOS: read descriptor, BIOS and GbE; write BIOS and GbE.
//	ME:            read descriptor, ME and GbE;   write ME and GbE.
//	GbE:           read GbE;                      write GbE.
//
// On v2 the reserved low byte of each word is preserved. On v1 the GbE
// master keeps its canonical requester ID 0x118.
func (d *Descriptor) LockMasters() {
	rd, wr := d.masterShifts()

	var flmstr1, flmstr2, flmstr3 uint32
	if d.version == Version2 {
		flmstr1 = d.FLMSTR(flmstrHost) & 0xff
		flmstr2 = d.FLMSTR(flmstrME) & 0xff
		flmstr3 = d.FLMSTR(flmstrGbE) & 0xff
	} else {
		flmstr3 = 0x118
	}

	flmstr1 |= 0xb << rd
	flmstr1 |= 0xa << wr
	flmstr2 |= 0xd << rd
	flmstr2 |= 0xc << wr
	flmstr3 |= 0x8 << rd
	flmstr3 |= 0x8 << wr

	d.setFLMSTR(flmstrHost, flmstr1)
	d.setFLMSTR(flmstrME, flmstr2)
	d.setFLMSTR(flmstrGbE, flmstr3)
}

// UnlockMasters sets every region access bit of FLMSTR1-3 on v2, where
// the reserved low byte of each word is preserved. On v1 the words are
// rewritten whole: the host and ME masters get access to every region,
// and the GbE master is reset to GbE-only access with requester ID 0x118.
func (d *Descriptor) UnlockMasters() {
	if d.version == Version2 {
		d.setFLMSTR(flmstrHost, 0xffffff00|(d.FLMSTR(flmstrHost)&0xff))
		d.setFLMSTR(flmstrME, 0xffffff00|(d.FLMSTR(flmstrME)&0xff))
		d.setFLMSTR(flmstrGbE, 0xffffff00|(d.FLMSTR(flmstrGbE)&0xff))
		return
	}
	d.setFLMSTR(flmstrHost, 0xffff0000)
	d.setFLMSTR(flmstrME, 0xffff0000)
	d.setFLMSTR(flmstrGbE, 0x08080118)
}
