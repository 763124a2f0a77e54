package livefs

import (
	"encoding/binary"
	"syscall"
)

// Size of the fixed part of a kernel fuse_dirent record: ino, off, namelen
// and type. The name follows and the record is padded to 8 bytes.
const direntHeaderSize = 24

type dirent struct {
	Ino  uint64
	Off  uint64
	Type uint32
	Name string
}

// Mode bits as they travel in fuse_dirent.type
func (d dirent) Mode() uint32 { return d.Type << 12 }

func direntSize(name string) int {
	return (direntHeaderSize + len(name) + 7) &^ 7
}

// encodeDirent writes one record into dst and returns the record size. With
// a nil dst nothing is written and only the size is returned, which is how
// the listing buffer is measured before it is allocated.
func encodeDirent(dst []byte, name string, ino uint64, mode uint32, off uint64) int {
	size := direntSize(name)
	if dst == nil {
		return size
	}
	binary.NativeEndian.PutUint64(dst[0:], ino)
	binary.NativeEndian.PutUint64(dst[8:], off)
	binary.NativeEndian.PutUint32(dst[16:], uint32(len(name)))
	binary.NativeEndian.PutUint32(dst[20:], (mode&syscall.S_IFMT)>>12)
	copy(dst[direntHeaderSize:], name)
	clear(dst[direntHeaderSize+len(name) : size])
	return size
}

// decodeDirents parses the whole records in buf. A truncated trailing
// record is dropped.
func decodeDirents(buf []byte) []dirent {
	var out []dirent
	for len(buf) >= direntHeaderSize {
		nameLen := int(binary.NativeEndian.Uint32(buf[16:]))
		size := (direntHeaderSize + nameLen + 7) &^ 7
		if size > len(buf) {
			break
		}
		out = append(out, dirent{
			Ino:  binary.NativeEndian.Uint64(buf[0:]),
			Off:  binary.NativeEndian.Uint64(buf[8:]),
			Type: binary.NativeEndian.Uint32(buf[20:]),
			Name: string(buf[direntHeaderSize : direntHeaderSize+nameLen]),
		})
		buf = buf[size:]
	}
	return out
}
