package notes

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// maxDisambiguators bounds the _HHMMSS-N search for a free name.
const maxDisambiguators = 1000

// CreateExclusive creates <dir>/<base>.md without ever replacing an existing
// file. When the name is taken it tries <base>_<HHMMSS>.md, then
// <base>_<HHMMSS>-2.md, -3 and so on. It returns the open file, its name and
// whether a collision was resolved.
func CreateExclusive(dir, base string, now time.Time) (*os.File, string, bool, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, "", false, fmt.Errorf("creating %s: %w", dir, err)
	}

	stamp := now.Format("150405")
	for i := 0; i < maxDisambiguators; i++ {
		var name string
		switch i {
		case 0:
			name = base + ".md"
		case 1:
			name = fmt.Sprintf("%s_%s.md", base, stamp)
		default:
			name = fmt.Sprintf("%s_%s-%d.md", base, stamp, i)
		}

		f, err := os.OpenFile(filepath.Join(dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return nil, "", false, fmt.Errorf("creating %s: %w", name, err)
		}
		return f, name, i > 0, nil
	}
	return nil, "", false, fmt.Errorf("no free name for %s in %s", base, dir)
}

// WriteExclusive creates a collision-safe file and writes data to it. A
// failed write removes the partial file.
func WriteExclusive(dir, base string, now time.Time, data []byte) (string, bool, error) {
	f, name, collided, err := CreateExclusive(dir, base, now)
	if err != nil {
		return "", false, err
	}
	path := filepath.Join(dir, name)
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return "", false, fmt.Errorf("writing %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", false, fmt.Errorf("closing %s: %w", name, err)
	}
	return name, collided, nil
}
