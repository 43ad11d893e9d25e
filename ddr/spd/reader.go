// Package spd reads and decodes the Serial Presence Detect EEPROMs of DIMMs.
package spd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNoSPD is returned when a reader has nothing for a slot.
var ErrNoSPD = errors.New("no SPD for slot")

// A Reader fetches the raw SPD bytes of the DIMM in one slot of one
// controller.
type Reader interface {
	Read(ctrl, slot int) ([]byte, error)
}

type slotKey struct {
	ctrl, slot int
}

// StaticReader serves SPD bytes that are already in memory.
type StaticReader struct {
	spds map[slotKey][]byte
}

// NewStaticReader creates an empty StaticReader.
func NewStaticReader() *StaticReader {
	return &StaticReader{spds: make(map[slotKey][]byte)}
}

// Set registers the SPD bytes of a slot.
func (r *StaticReader) Set(ctrl, slot int, raw []byte) {
	r.spds[slotKey{ctrl, slot}] = raw
}

// Read returns the registered SPD bytes of a slot.
func (r *StaticReader) Read(ctrl, slot int) ([]byte, error) {
	raw, ok := r.spds[slotKey{ctrl, slot}]
	if !ok {
		return nil, fmt.Errorf("memctl=%d dimm=%d: %w", ctrl, slot, ErrNoSPD)
	}

	return raw, nil
}

// FileReader reads SPD dumps from files. A slot without a file is treated as
// empty.
type FileReader struct {
	files map[slotKey]string
}

// NewFileReader creates a FileReader without files.
func NewFileReader() *FileReader {
	return &FileReader{files: make(map[slotKey]string)}
}

// Set registers the dump file of a slot.
func (r *FileReader) Set(ctrl, slot int, path string) {
	r.files[slotKey{ctrl, slot}] = path
}

// Read returns the content of the dump file of a slot.
func (r *FileReader) Read(ctrl, slot int) ([]byte, error) {
	path, ok := r.files[slotKey{ctrl, slot}]
	if !ok {
		return nil, fmt.Errorf("memctl=%d dimm=%d: %w", ctrl, slot, ErrNoSPD)
	}

	return os.ReadFile(path)
}

// SysfsReader reads SPD EEPROMs through the Linux at24/ee1004 drivers. The
// DIMM in slot s of controller c sits at address BaseAddr + c*SlotsPerCtrl + s
// on the bus.
type SysfsReader struct {
	Root         string
	Bus          int
	BaseAddr     int
	SlotsPerCtrl int
}

// NewSysfsReader creates a reader for the SPDs on an I2C bus.
func NewSysfsReader(bus, slotsPerCtrl int) *SysfsReader {
	return &SysfsReader{
		Root:         "/sys/bus/i2c/devices",
		Bus:          bus,
		BaseAddr:     0x50,
		SlotsPerCtrl: slotsPerCtrl,
	}
}

// Path returns the sysfs file of a slot.
func (r *SysfsReader) Path(ctrl, slot int) string {
	addr := r.BaseAddr + ctrl*r.SlotsPerCtrl + slot
	return filepath.Join(r.Root, fmt.Sprintf("%d-%04x", r.Bus, addr), "eeprom")
}

// Read returns the EEPROM content of a slot.
func (r *SysfsReader) Read(ctrl, slot int) ([]byte, error) {
	raw, err := os.ReadFile(r.Path(ctrl, slot))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("memctl=%d dimm=%d: %w", ctrl, slot, ErrNoSPD)
	}

	return raw, err
}
