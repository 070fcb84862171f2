package model

import (
	"testing"
	"time"
)

func TestDomainIsVCC(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"VCC", true},
		{"vcc", true},
		{"VccScope", true},
		{"ICC1", false},
		{"icc_utility", false},
		{"", false},
		{"SVCC", false},
	}
	for _, tt := range tests {
		d := Domain{Name: tt.name}
		if got := d.IsVCC(); got != tt.want {
			t.Errorf("Domain(%q).IsVCC() = %t, want %t", tt.name, got, tt.want)
		}
	}
	if (Domain{Name: "ICC1"}).Type() != "ICC" {
		t.Error("Type() != ICC for ICC1")
	}
	if (Domain{Name: "vcc"}).Type() != "VCC" {
		t.Error("Type() != VCC for vcc")
	}
}

func TestConditionsRoundTrip(t *testing.T) {
	for raw := 0; raw < 32; raw++ {
		if got := ConditionsFromRaw(uint8(raw)).Raw(); got != uint8(raw) {
			t.Errorf("ConditionsFromRaw(%d).Raw() = %d", raw, got)
		}
	}
	// Bits above the mask drop out.
	if got := ConditionsFromRaw(0xFF).Raw(); got != 31 {
		t.Errorf("ConditionsFromRaw(0xFF).Raw() = %d, want 31", got)
	}
}

func TestConditionsString(t *testing.T) {
	c := ConditionInterval | ConditionChange
	if got := c.String(); got != "INTERVAL+CHANGE" {
		t.Errorf("String() = %q", got)
	}
	if got := Conditions(0).String(); got != "NONE" {
		t.Errorf("String() = %q, want NONE", got)
	}
}

func TestPointValueFloat(t *testing.T) {
	tests := []struct {
		value  any
		want   float64
		wantOK bool
	}{
		{230.5, 230.5, true},
		{int64(7), 7, true},
		{uint64(8), 8, true},
		{true, 1, true},
		{false, 0, true},
		{"text", 0, false},
		{nil, 0, false},
	}
	for _, tt := range tests {
		p := PointValue{Value: tt.value}
		got, ok := p.Float()
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("Float() on %v = %g, %t; want %g, %t", tt.value, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestPointTypeCapabilities(t *testing.T) {
	if PointTypeReal.HasQuality() {
		t.Error("REAL reports quality")
	}
	if !PointTypeRealQ.HasQuality() || PointTypeRealQ.HasTimestamp() {
		t.Error("REAL_Q capabilities wrong")
	}
	if !PointTypeRealQTimeTag.HasTimestamp() || PointTypeRealQTimeTag.HasCOV() {
		t.Error("REAL_Q_TIMETAG capabilities wrong")
	}
	if !PointTypeRealExtended.HasCOV() {
		t.Error("REAL_EXTENDED missing COV")
	}
	if PointTypeSingleProtectionEvent.HasQuality() {
		t.Error("protection event reports quality")
	}
}

func TestSupportedFeaturesBlocks(t *testing.T) {
	// Blocks 1, 2 and 5: bits 0, 1 and 4 of the first octet.
	blocks := SupportedFeaturesBlocks([]byte{0xC8}, 8)
	want := []ConformanceBlock{BlockBasic, BlockRBE, BlockControl}
	if len(blocks) != len(want) {
		t.Fatalf("blocks = %v, want %v", blocks, want)
	}
	for i := range want {
		if blocks[i] != want[i] {
			t.Fatalf("blocks = %v, want %v", blocks, want)
		}
	}

	// Block 9 lives at bit 8 (second octet MSB).
	blocks = SupportedFeaturesBlocks([]byte{0x80, 0x80}, 16)
	if len(blocks) != 2 || blocks[0] != BlockBasic || blocks[1] != BlockTimeSeries {
		t.Fatalf("blocks = %v, want [BASIC TIME_SERIES]", blocks)
	}

	if got := SupportedFeaturesBlocks(nil, 0); len(got) != 0 {
		t.Errorf("empty bit string yielded %v", got)
	}
}

func TestProtectionEventFlags(t *testing.T) {
	ev := ProtectionEvent{
		EventFlags:    ProtectionGeneral | ProtectionPhaseB | ProtectionEarth,
		OperatingTime: 42,
		EventValid:    true,
	}
	if !ev.GeneralFault() || !ev.PhaseBFault() || !ev.EarthFault() {
		t.Error("set fault bits not reported")
	}
	if ev.PhaseAFault() || ev.PhaseCFault() || ev.ReverseFault() {
		t.Error("clear fault bits reported")
	}
	if got := ev.EventFlags.String(); got != "GENERAL+PHASE_B+EARTH" {
		t.Errorf("EventFlags.String() = %q", got)
	}
	if got := ProtectionFlags(0).String(); got != "NONE" {
		t.Errorf("zero flags String() = %q", got)
	}
}

func TestBilateralTableBlocks(t *testing.T) {
	blt := BilateralTable{
		TableID:         "BLT-EAST-4",
		Version:         3,
		TASE2Version:    "2000-08",
		SupportedBlocks: []ConformanceBlock{BlockBasic, BlockRBE, BlockControl},
	}
	if !blt.SupportsBlock(BlockRBE) {
		t.Error("RBE not reported as supported")
	}
	if blt.SupportsBlock(BlockInfoMessages) {
		t.Error("INFO_MSG reported as supported")
	}
	names := blt.SupportedBlockNames()
	want := []string{"BASIC", "RBE", "CONTROL"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names = %v, want %v", names, want)
		}
	}
}

func TestStatisticsUptime(t *testing.T) {
	var s Statistics
	if s.Uptime() != 0 {
		t.Error("never-connected uptime != 0")
	}

	s.ConnectedAt = time.Now().Add(-time.Minute)
	s.DisconnectedAt = s.ConnectedAt.Add(30 * time.Second)
	if got := s.Uptime(); got != 30*time.Second {
		t.Errorf("closed-session uptime = %v, want 30s", got)
	}

	s.DisconnectedAt = time.Time{}
	if got := s.Uptime(); got < 59*time.Second {
		t.Errorf("live uptime = %v, want about 1m", got)
	}
}

func TestTagValueString(t *testing.T) {
	if TagNone.String() != "NO_TAG" || TagOpenAndCloseInhibit.String() != "OPEN_AND_CLOSE_INHIBIT" {
		t.Error("tag names wrong")
	}
	if TagValue(9).String() != "UNKNOWN" {
		t.Error("unknown tag name wrong")
	}
}
