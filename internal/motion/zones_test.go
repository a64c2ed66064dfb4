package motion

import "testing"

func newZoneDetector(t *testing.T) *Detector {
	t.Helper()
	d, err := New(Config{GridWidth: 4, GridHeight: 4})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return d
}

func TestAddZone_CapacityLimit(t *testing.T) {
	d := newZoneDetector(t)

	for i := 0; i < MaxZones; i++ {
		if !d.AddZone(Zone{X: i, Width: 10, Height: 10, Enabled: true}) {
			t.Fatalf("AddZone() = false at %d, want capacity %d", i, MaxZones)
		}
	}

	if d.AddZone(Zone{X: 99}) {
		t.Error("AddZone() = true beyond capacity")
	}
	if got := d.ZoneCount(); got != MaxZones {
		t.Errorf("ZoneCount() = %d, want %d", got, MaxZones)
	}
}

func TestRemoveZone_IndexValidation(t *testing.T) {
	d := newZoneDetector(t)
	d.AddZone(Zone{X: 1})
	d.AddZone(Zone{X: 2})

	if d.RemoveZone(5) {
		t.Error("RemoveZone(5) = true for out-of-range index")
	}
	if d.RemoveZone(-1) {
		t.Error("RemoveZone(-1) = true for negative index")
	}

	if !d.RemoveZone(0) {
		t.Error("RemoveZone(0) = false")
	}
	z, ok := d.Zone(0)
	if !ok || z.X != 2 {
		t.Errorf("Zone(0) = %+v, %v; want remaining zone with X=2", z, ok)
	}
}

func TestUpdateZone(t *testing.T) {
	d := newZoneDetector(t)
	d.AddZone(Zone{X: 1})

	if d.UpdateZone(1, Zone{X: 9}) {
		t.Error("UpdateZone(1) = true for out-of-range index")
	}
	if !d.UpdateZone(0, Zone{X: 9, Enabled: true}) {
		t.Error("UpdateZone(0) = false")
	}

	z, _ := d.Zone(0)
	if z.X != 9 || !z.Enabled {
		t.Errorf("Zone(0) = %+v after update", z)
	}
}

func TestClearZones(t *testing.T) {
	d := newZoneDetector(t)
	d.AddZone(Zone{})
	d.AddZone(Zone{})

	d.ClearZones()
	if d.ZoneCount() != 0 {
		t.Errorf("ZoneCount() = %d after ClearZones", d.ZoneCount())
	}
}

func TestSetZones_Truncates(t *testing.T) {
	d := newZoneDetector(t)

	zones := make([]Zone, MaxZones+3)
	if d.SetZones(zones) {
		t.Error("SetZones() = true when truncating")
	}
	if d.ZoneCount() != MaxZones {
		t.Errorf("ZoneCount() = %d, want %d", d.ZoneCount(), MaxZones)
	}

	if !d.SetZones(zones[:2]) {
		t.Error("SetZones() = false for an in-capacity list")
	}
	if d.ZoneCount() != 2 {
		t.Errorf("ZoneCount() = %d, want 2", d.ZoneCount())
	}
}
