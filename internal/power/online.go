package power

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

var ErrDecode = errors.New("power: malformed online attribute")

// maxOnlineSize bounds the read so an unexpected attribute cannot be mistaken
// for a valid one by truncation.
const maxOnlineSize = 5

type ACState int

const (
	Unknown ACState = iota
	Online
	Offline
)

func (s ACState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s ACState) String() string {
	switch s {
	case Unknown:
		return "unknown"
	case Online:
		return "online"
	case Offline:
		return "offline"
	}
	return fmt.Sprintf("ACState(%d)", int(s))
}

// Connected treats an unknown state as mains power.
func (s ACState) Connected() bool {
	return s != Offline
}

func FromOnline(online bool) ACState {
	if online {
		return Online
	}
	return Offline
}

// DecodeOnline accepts exactly "1\n" or "0\n".
func DecodeOnline(b []byte) (bool, error) {
	switch string(b) {
	case "1\n":
		return true, nil
	case "0\n":
		return false, nil
	}
	return false, fmt.Errorf("%w: %q", ErrDecode, b)
}

// ReadOnline reads the online attribute of the supply at path.
func ReadOnline(path string) (bool, error) {
	f, err := os.Open(filepath.Join(path, "online"))
	if err != nil {
		return false, err
	}
	defer f.Close()

	b, err := io.ReadAll(io.LimitReader(f, maxOnlineSize))
	if err != nil {
		return false, fmt.Errorf("failed to read %q: %w", f.Name(), err)
	}
	return DecodeOnline(b)
}
