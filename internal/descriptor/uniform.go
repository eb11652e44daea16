package descriptor

import (
	"fmt"
)

// UniformField describes one named field inside a managed uniform block, as
// extracted by the shader reflection pipeline (§4.2) and consumed here
// without either package importing the other (the caller builds this slice
// from its own reflection data).
type UniformField struct {
	Name   string
	Offset uint32
	Size   uint32
}

// UniformHandle identifies one allocated uniform block instance, backed by a
// CPU-side byte slice (not a mapped GPU buffer; Bytes hands the contents to
// the caller for upload), and exposes it through the field-proxy pattern described in
// §4.1 ("uniform[\"field_name\"] = value"): Set writes raw bytes at the
// field's reflected offset, re-validated for width on every call since Go
// has no operator-overload equivalent of the original's templated setter.
type UniformHandle struct {
	mgr    *Manager
	buf    []byte
	fields map[string]UniformField
}

// CreateUniform implements §4.1 create_uniform: allocates size bytes of
// CPU-side backing storage for the reflected block and returns a handle
// addressable by field name. No GPU buffer is created and no per-frame
// slots are reserved.
func (m *Manager) CreateUniform(size uint32, fields []UniformField) UniformHandle {
	byName := make(map[string]UniformField, len(fields))
	for _, f := range fields {
		byName[f.Name] = f
	}
	return UniformHandle{mgr: m, buf: make([]byte, size), fields: byName}
}

// Set writes value's raw bytes at field's reflected offset. Set returns an
// error rather than panicking on unknown field or width mismatch: missing a
// uniform write is Recoverable-per-frame (§7), not fatal.
func (u UniformHandle) Set(field string, value []byte) error {
	f, ok := u.fields[field]
	if !ok {
		return fmt.Errorf("descriptor: unknown uniform field %q", field)
	}
	if uint32(len(value)) != f.Size {
		return fmt.Errorf("descriptor: uniform field %q expects %d bytes, got %d", field, f.Size, len(value))
	}
	copy(u.buf[f.Offset:f.Offset+f.Size], value)
	return nil
}

// Bytes returns the backing storage for upload into the buffer bound at
// this uniform's descriptor binding.
func (u UniformHandle) Bytes() []byte { return u.buf }
