package surface

// Rotation is a display rotation in degrees, one of 0, 90, 180 or 270.
type Rotation int

const (
	Rotate0   Rotation = 0
	Rotate90  Rotation = 90
	Rotate180 Rotation = 180
	Rotate270 Rotation = 270
)

// Valid reports whether r is one of the four supported rotations
func (r Rotation) Valid() bool {
	switch r {
	case Rotate0, Rotate90, Rotate180, Rotate270:
		return true
	}
	return false
}

// Swapped reports whether width and height are exchanged relative to the
// panel's native orientation.
func (r Rotation) Swapped() bool {
	return r == Rotate90 || r == Rotate270
}

// OrientationTable maps a backend's native orientation codes to rotations.
type OrientationTable map[uint32]Rotation

// Lookup returns the rotation for a native orientation code. Codes missing
// from the table map to Rotate0. That default is a policy choice and says
// nothing about the panel's real physical rotation.
func (t OrientationTable) Lookup(code uint32) Rotation {
	if r, ok := t[code]; ok && r.Valid() {
		return r
	}
	return Rotate0
}
