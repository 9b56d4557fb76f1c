package pool

import (
	"io"
	"os"
	"sync"

	"github.com/edsrzf/mmap-go"

	"github.com/diskio/fileviewpool/pkg/openmode"
)

// MapFile is the default Mapper: it opens path with the OS and memory-maps
// it via github.com/edsrzf/mmap-go, growing the file to size first if the
// request carries the Write bit. This is the concrete FileMapping factory
// the pool treats as an external collaborator it never implements itself.
func MapFile(path string, size int64, mode openmode.Mode, unmapLock sync.Locker) (FileMapping, error) {
	flags := os.O_RDONLY
	prot := mmap.RDONLY
	if mode.Has(openmode.Write) {
		flags = os.O_RDWR | os.O_CREATE
		prot = mmap.RDWR
	}

	unmapLock.Lock()
	file, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		unmapLock.Unlock()
		return nil, err
	}

	if mode.Has(openmode.Write) {
		if stat, statErr := file.Stat(); statErr == nil && stat.Size() < size {
			if truncErr := file.Truncate(size); truncErr != nil {
				file.Close()
				unmapLock.Unlock()
				return nil, truncErr
			}
		}
	}

	data, err := mmap.MapRegion(file, int(size), prot, 0, 0)
	unmapLock.Unlock()
	if err != nil {
		file.Close()
		return nil, err
	}

	return &mmapFileMapping{file: file, data: data}, nil
}

// mmapFileMapping is the default FileMapping implementation, backed by an
// anonymous-free (file-backed) mmap region.
type mmapFileMapping struct {
	file *os.File
	data mmap.MMap
}

func (m *mmapFileMapping) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (m *mmapFileMapping) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 || off+int64(len(p)) > int64(len(m.data)) {
		return 0, io.ErrShortWrite
	}
	return copy(m.data[off:], p), nil
}

func (m *mmapFileMapping) Len() int64 {
	return int64(len(m.data))
}

// Flush synchronizes dirty pages in [offset, offset+length) back to disk.
// edsrzf/mmap-go only exposes a whole-mapping flush; offset/length are
// accepted to satisfy the FileMapping contract, but FlushNextFile always
// requests the entire mapped range anyway.
func (m *mmapFileMapping) Flush(offset, length int64) error {
	return m.data.Flush()
}

func (m *mmapFileMapping) Close() error {
	if err := m.data.Unmap(); err != nil {
		m.file.Close()
		return err
	}
	return m.file.Close()
}
