package filesystem

import (
	"os"
	"syscall"
	"time"

	"chronodocs/internal/domain"
)

// FileStat is a resolved filesystem entry: its stable identity plus the
// size and mtime observed in the same stat call.
type FileStat struct {
	Identity domain.Identity
	Portable bool
	Size     int64
	ModTime  time.Time
}

// Resolve derives the stable identity for a path. The second return is
// false when the file does not exist — deletion is a normal transition
// for callers, not an error.
func Resolve(path string) (FileStat, bool, error) {
	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileStat{}, false, nil
		}
		return FileStat{}, false, err
	}
	return resolveInfo(info), true, nil
}

func resolveInfo(info os.FileInfo) FileStat {
	fs := FileStat{
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		fs.Identity = domain.DeviceInodeIdentity(uint64(st.Dev), uint64(st.Ino))
		fs.Portable = true
		return fs
	}
	// No device/inode available on this platform or filesystem; fall
	// back to a name key the caller knows won't survive a rename.
	fs.Identity = domain.NameIdentity(info.Name())
	fs.Portable = false
	return fs
}
