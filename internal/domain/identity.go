package domain

import (
	"fmt"
	"strings"
)

// Identity is an opaque, stable key for "the same file" across renames.
// On POSIX filesystems it is derived from the device and inode numbers;
// where those are unavailable it falls back to the filename.
type Identity string

// DeviceInodeIdentity builds an identity from a device/inode pair.
func DeviceInodeIdentity(dev, ino uint64) Identity {
	return Identity(fmt.Sprintf("dev:%d-ino:%d", dev, ino))
}

// NameIdentity builds a name-keyed fallback identity. It will not survive
// a rename, so records carrying it are flagged non-portable.
func NameIdentity(name string) Identity {
	return Identity("name:" + name)
}

// Portable reports whether the identity survives renames.
func (id Identity) Portable() bool {
	return !strings.HasPrefix(string(id), "name:")
}
