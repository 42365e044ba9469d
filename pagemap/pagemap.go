// Package pagemap reads per-page present/dirty bits out of a process's
// /proc/pid/pagemap, the same bit layout the monitor's userfaultfd-backed
// dirty tracking relies on to answer the memory-dirty HTTP route (out of
// scope here; this package only supplies the primitive read). Positional
// reads go through golang.org/x/sys/unix.Pread rather than lseek+read or
// unsafe pointer tricks, following the pattern kata-containers' runtime
// uses for its own /proc and ioctl access (see cli/console.go,
// netmon/netmon.go).
package pagemap

import (
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// entrySize is the width in bytes of one /proc/pid/pagemap entry.
const entrySize = 8

// PageSize is the host page size this package assumes; every offset and
// length Reader accepts is in pages of this size.
const PageSize = 4096

// presentBit and uffdWPBit are bit positions within a pagemap entry,
// per Documentation/admin-guide/mm/pagemap.rst: bit 63 marks the page
// present in RAM, bit 57 marks it write-protected through userfaultfd.
const (
	presentBit = 63
	uffdWPBit  = 57
)

// ErrClosed is returned by any read after Close.
var ErrClosed = errors.New("pagemap: reader closed")

// Reader reads present/dirty bits for a single process's address space. It
// owns one *os.File for its lifetime; reads are positional (pread) so
// concurrent callers sharing a Reader are safe even though nothing in this
// package requires concurrency.
type Reader struct {
	f *os.File
}

// Open opens /proc/<pid>/pagemap for reading. pid may be "self" to target
// the caller's own process.
func Open(pid string) (*Reader, error) {
	f, err := os.OpenFile("/proc/"+pid+"/pagemap", os.O_RDONLY, 0)
	if err != nil {
		return nil, errors.Wrap(err, "pagemap: open")
	}

	return &Reader{f: f}, nil
}

// Close releases the underlying file descriptor. Satisfies io.Closer.
func (r *Reader) Close() error {
	if r.f == nil {
		return nil
	}

	err := r.f.Close()
	r.f = nil

	return err
}

func (r *Reader) readEntry(pageNum uint64) (uint64, error) {
	if r.f == nil {
		return 0, ErrClosed
	}

	var buf [entrySize]byte

	n, err := unix.Pread(int(r.f.Fd()), buf[:], int64(pageNum*entrySize))
	if err != nil {
		return 0, errors.Wrapf(err, "pagemap: pread page %d", pageNum)
	}

	if n != entrySize {
		return 0, errors.Errorf("pagemap: short read for page %d: got %d bytes", pageNum, n)
	}

	var v uint64
	for i := entrySize - 1; i >= 0; i-- {
		v = v<<8 | uint64(buf[i])
	}

	return v, nil
}

// Present reports whether the page containing virtual address addr is
// currently resident in RAM (pagemap bit 63).
func (r *Reader) Present(addr uint64) (bool, error) {
	entry, err := r.readEntry(addr / PageSize)
	if err != nil {
		return false, err
	}

	return entry&(1<<presentBit) != 0, nil
}

// Dirty reports whether the page containing virtual address addr is dirty
// under userfaultfd write-protect tracking: present in RAM (pagemap bit 63)
// and no longer write-protected (bit 57 clear). Re-arming write protection
// is the monitor's responsibility; this package only reads.
func (r *Reader) Dirty(addr uint64) (bool, error) {
	entry, err := r.readEntry(addr / PageSize)
	if err != nil {
		return false, err
	}

	return entry&(1<<presentBit) != 0 && entry&(1<<uffdWPBit) == 0, nil
}

// ScanRange walks [base, base+size) in page-sized steps and returns the
// set of page-aligned addresses that are present and the set that are
// empty (not present), matching the shape of pipeline.MemoryResponse.
func (r *Reader) ScanRange(base, size uint64) (resident, empty []uint64, err error) {
	for off := uint64(0); off < size; off += PageSize {
		addr := base + off

		present, err := r.Present(addr)
		if err != nil {
			return nil, nil, err
		}

		if present {
			resident = append(resident, addr)
		} else {
			empty = append(empty, addr)
		}
	}

	return resident, empty, nil
}

// DirtyBitmap walks [base, base+size) in page-sized steps and packs the
// Dirty result of each page into a little-endian uint64 bitmap, one bit
// per page in range order, matching the wire shape of
// pipeline.MemoryDirty.
func (r *Reader) DirtyBitmap(base, size uint64) ([]uint64, error) {
	pages := (size + PageSize - 1) / PageSize
	words := (pages + 63) / 64
	bitmap := make([]uint64, words)

	for i := uint64(0); i < pages; i++ {
		dirty, err := r.Dirty(base + i*PageSize)
		if err != nil {
			return nil, err
		}

		if dirty {
			bitmap[i/64] |= 1 << (i % 64)
		}
	}

	return bitmap, nil
}
