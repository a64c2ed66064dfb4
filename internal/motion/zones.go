package motion

// MaxZones is the maximum number of zones a detector holds.
const MaxZones = 8

// Zone restricts motion detection to a rectangle of frame space.
//
// Coordinates and sizes are percentages of the frame, [0, 100). Containment
// is half-open: a cell exactly at (X, Y) is inside, a cell at (X+Width, Y)
// is outside. Zones have union semantics; a changed cell inside any enabled
// zone counts as in-zone motion.
type Zone struct {
	X           int  `json:"x"`
	Y           int  `json:"y"`
	Width       int  `json:"width"`
	Height      int  `json:"height"`
	Enabled     bool `json:"enabled"`
	Sensitivity int  `json:"sensitivity"`
}

// AddZone appends a zone. Returns false when the zone limit is reached;
// this is a capacity policy, not an error.
func (d *Detector) AddZone(z Zone) bool {
	if len(d.zones) >= MaxZones {
		return false
	}
	d.zones = append(d.zones, z)
	return true
}

// RemoveZone deletes the zone at index, preserving the order of the rest.
// Returns false for an out-of-range index.
func (d *Detector) RemoveZone(index int) bool {
	if index < 0 || index >= len(d.zones) {
		return false
	}
	d.zones = append(d.zones[:index], d.zones[index+1:]...)
	return true
}

// UpdateZone replaces the zone at index. Returns false for an out-of-range
// index.
func (d *Detector) UpdateZone(index int, z Zone) bool {
	if index < 0 || index >= len(d.zones) {
		return false
	}
	d.zones[index] = z
	return true
}

// Zone returns the zone at index.
func (d *Detector) Zone(index int) (Zone, bool) {
	if index < 0 || index >= len(d.zones) {
		return Zone{}, false
	}
	return d.zones[index], true
}

// ZoneCount returns the number of configured zones.
func (d *Detector) ZoneCount() int { return len(d.zones) }

// ClearZones removes all zones; detection then covers the whole frame.
func (d *Detector) ClearZones() { d.zones = d.zones[:0] }

// SetZones replaces the full zone list, truncating at the zone limit.
// Returns false if the list was truncated.
func (d *Detector) SetZones(zones []Zone) bool {
	complete := true
	if len(zones) > MaxZones {
		zones = zones[:MaxZones]
		complete = false
	}
	d.zones = append(d.zones[:0], zones...)
	return complete
}
