//go:build linux

package platform

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/pawelgaczynski/giouring"

	"github.com/ehrlich-behrlich/diskbench/internal/constants"
	"github.com/ehrlich-behrlich/diskbench/internal/logging"
)

// blkGetSize64 is the ioctl number for BLKGETSIZE64 (query block device size
// in bytes), per linux/fs.h: _IOR(0x12, 114, size_t).
const blkGetSize64 = 0x80081272

func newHostAdapter() Adapter {
	return &linuxAdapter{
		pageSize: os.Getpagesize(),
	}
}

type linuxAdapter struct {
	pageSize int
}

func (a *linuxAdapter) PageSize() int  { return a.pageSize }
func (a *linuxAdapter) MinIOSize() int { return constants.DefaultSectorSize }

// AllocateIOBuffer mmaps an anonymous, page-aligned region. Anonymous mmap is
// used instead of make([]byte, n) because direct I/O requires the buffer's
// starting address (not just its contained data) to be page-aligned, which a
// Go-managed slice does not guarantee.
func (a *linuxAdapter) AllocateIOBuffer(size int) ([]byte, error) {
	rounded := roundUp(size, a.pageSize)
	buf, err := unix.Mmap(-1, 0, rounded, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("allocate io buffer: %w", err)
	}
	return buf[:size:rounded], nil
}

func roundUp(n, align int) int {
	if rem := n % align; rem != 0 {
		return n + (align - rem)
	}
	return n
}

type linuxHandle struct {
	fd int
}

// Open implements the sizing rules of spec.md §6 / linux_file_open.
func (a *linuxAdapter) Open(path string, requestedSize uint64, freespaceFraction float64) (OpenResult, error) {
	logger := logging.Default()

	fd, err := unix.Open(path, unix.O_RDWR, 0o600)
	if err != nil {
		fd, err = unix.Open(path, unix.O_RDWR|unix.O_CREAT, 0o600)
		if err != nil {
			return OpenResult{}, fmt.Errorf("open %s: %w", path, err)
		}
	}

	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		unix.Close(fd)
		return OpenResult{}, fmt.Errorf("fstat %s: %w", path, err)
	}

	isBlock := st.Mode&unix.S_IFMT == unix.S_IFBLK

	var length uint64
	var truncated bool

	if isBlock {
		length, err = blockDeviceSize(fd)
		if err != nil {
			unix.Close(fd)
			return OpenResult{}, fmt.Errorf("query block device size: %w", err)
		}
		truncated = false
	} else {
		currentLength, err := unix.Seek(fd, 0, unix.SEEK_END)
		if err != nil {
			unix.Close(fd)
			return OpenResult{}, fmt.Errorf("seek %s: %w", path, err)
		}

		var statfs unix.Statfs_t
		if err := unix.Fstatfs(fd, &statfs); err != nil {
			unix.Close(fd)
			return OpenResult{}, fmt.Errorf("statfs %s: %w", path, err)
		}
		freeBytes := uint64(statfs.Bsize) * statfs.Bavail
		current := uint64(currentLength)

		length = requestedSize
		if length > freeBytes+current {
			length = uint64(float64(freeBytes+current) * freespaceFraction)
			length -= length % uint64(a.pageSize)
		}
		if current >= constants.ReuseExistingFileThreshold {
			length = current
		}
		if length == 0 {
			length = uint64(float64(freeBytes+current) * freespaceFraction)
			length -= length % constants.RegularFileSizeRoundTo
		}
		truncated = length != current

		if truncated {
			if err := unix.Ftruncate(fd, int64(length)); err != nil {
				unix.Close(fd)
				return OpenResult{}, fmt.Errorf("truncate %s: %w", path, err)
			}
			_ = unix.Fallocate(fd, 0, 0, int64(length))
		}
	}

	unix.Close(fd)

	fd, err = unix.Open(path, unix.O_RDWR|unix.O_DIRECT, 0o600)
	if err != nil {
		return OpenResult{}, fmt.Errorf("reopen %s O_DIRECT: %w", path, err)
	}

	logger.Debugf("opened %s: length=%d truncated=%v block=%v", path, length, truncated, isBlock)

	return OpenResult{
		Handle:    &linuxHandle{fd: fd},
		Length:    length,
		Truncated: truncated,
		IsBlock:   isBlock,
	}, nil
}

func blockDeviceSize(fd int) (uint64, error) {
	var size uint64
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uintptr(blkGetSize64), uintptr(unsafe.Pointer(&size)))
	if errno != 0 {
		return 0, errno
	}
	return size, nil
}

func (a *linuxAdapter) Truncate(h Handle, length uint64) error {
	return unix.Ftruncate(h.(*linuxHandle).fd, int64(length))
}

func (a *linuxAdapter) Close(h Handle) error {
	return unix.Close(h.(*linuxHandle).fd)
}

func (a *linuxAdapter) Flush(h Handle) error {
	return unix.Fsync(h.(*linuxHandle).fd)
}

// ioUringQueue submits plain read/write SQEs against a direct-mode file
// descriptor and reaps their CQEs, using the slot index as user data so the
// async queue can recover the originating slot without pointer arithmetic.
type ioUringQueue struct {
	ring *giouring.Ring
	fd   int32
}

func (a *linuxAdapter) QueueCreate(h Handle, depth int) (Queue, error) {
	handle := h.(*linuxHandle)

	ring, err := giouring.CreateRing(uint32(depth))
	if err != nil {
		return nil, fmt.Errorf("create io_uring: %w", err)
	}

	return &ioUringQueue{ring: ring, fd: int32(handle.fd)}, nil
}

func (q *ioUringQueue) SubmitRead(slotIndex int, buf []byte, offset int64) error {
	sqe := q.ring.GetSQE()
	if sqe == nil {
		return fmt.Errorf("submission queue full")
	}
	sqe.PrepareRead(q.fd, uintptr(unsafe.Pointer(&buf[0])), uint32(len(buf)), uint64(offset))
	sqe.UserData = uint64(slotIndex)
	_, err := q.ring.Submit()
	return err
}

func (q *ioUringQueue) SubmitWrite(slotIndex int, buf []byte, offset int64) error {
	sqe := q.ring.GetSQE()
	if sqe == nil {
		return fmt.Errorf("submission queue full")
	}
	sqe.PrepareWrite(q.fd, uintptr(unsafe.Pointer(&buf[0])), uint32(len(buf)), uint64(offset))
	sqe.UserData = uint64(slotIndex)
	_, err := q.ring.Submit()
	return err
}

func (q *ioUringQueue) Reap(blocking bool) ([]Completion, error) {
	var completions []Completion

	if blocking {
		cqe, err := q.ring.WaitCQE()
		if err != nil {
			return nil, fmt.Errorf("wait cqe: %w", err)
		}
		completions = append(completions, toCompletion(cqe))
		q.ring.CQESeen(cqe)
	}

	for {
		cqe, err := q.ring.PeekCQE()
		if err != nil {
			break
		}
		completions = append(completions, toCompletion(cqe))
		q.ring.CQESeen(cqe)
	}

	return completions, nil
}

func toCompletion(cqe *giouring.CompletionQueueEvent) Completion {
	c := Completion{
		SlotIndex: int(cqe.UserData),
		Result:    cqe.Res,
	}
	if cqe.Res < 0 {
		c.Err = fmt.Errorf("io_uring completion error: %d", cqe.Res)
	}
	return c
}

func (q *ioUringQueue) Destroy() error {
	q.ring.QueueExit()
	return nil
}
