package ovs

import (
	"reflect"
	"testing"
)

func TestCreateMirrorCommand_Dynamic(t *testing.T) {
	got, err := CreateMirrorCommand("vmbr0", "span1", MirrorModeDynamic, nil, "tap101i0")
	if err != nil {
		t.Fatalf("CreateMirrorCommand: %v", err)
	}
	want := "ovs-vsctl -- --id=@p get Port tap101i0" +
		" -- --id=@m create Mirror name=span1 select-all=true output-port=@p" +
		" -- add Bridge vmbr0 mirrors @m"
	if got != want {
		t.Errorf("command =\n  %s\nwant\n  %s", got, want)
	}
}

func TestCreateMirrorCommand_ManualSingle(t *testing.T) {
	got, err := CreateMirrorCommand("vmbr0", "span1", MirrorModeManual, []string{"tap102i0"}, "tap101i0")
	if err != nil {
		t.Fatalf("CreateMirrorCommand: %v", err)
	}
	want := "ovs-vsctl -- --id=@src get Port tap102i0" +
		" -- --id=@out get Port tap101i0" +
		" -- --id=@m create Mirror name=span1 select-src-port=@src select-dst-port=@src output-port=@out" +
		" -- add Bridge vmbr0 mirrors @m"
	if got != want {
		t.Errorf("command =\n  %s\nwant\n  %s", got, want)
	}
}

func TestCreateMirrorCommand_ManualMultiple(t *testing.T) {
	got, err := CreateMirrorCommand("vmbr0", "span1", MirrorModeManual, []string{"tap102i0", "tap103i0"}, "tap101i0")
	if err != nil {
		t.Fatalf("CreateMirrorCommand: %v", err)
	}
	want := "ovs-vsctl -- --id=@src0 get Port tap102i0 -- --id=@src1 get Port tap103i0" +
		" -- --id=@out get Port tap101i0" +
		" -- --id=@m create Mirror name=span1 select-src-port={@src0 @src1} select-dst-port={@src0 @src1} output-port=@out" +
		" -- add Bridge vmbr0 mirrors @m"
	if got != want {
		t.Errorf("command =\n  %s\nwant\n  %s", got, want)
	}
}

func TestCreateMirrorCommand_Errors(t *testing.T) {
	if _, err := CreateMirrorCommand("vmbr0", "m", MirrorModeManual, nil, "tap101i0"); err == nil {
		t.Error("manual mode with no source ports accepted")
	}
	if _, err := CreateMirrorCommand("vmbr0", "m", MirrorModeDynamic, nil, ""); err == nil {
		t.Error("missing output port accepted")
	}
	if _, err := CreateMirrorCommand("vmbr0", "m", "weird", nil, "tap101i0"); err == nil {
		t.Error("unknown mode accepted")
	}
}

func TestParseMirrorStatistics(t *testing.T) {
	got := ParseMirrorStatistics("{tx_bytes=1024, tx_packets=8}")
	want := map[string]int64{"tx_bytes": 1024, "tx_packets": 8}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseMirrorStatistics = %v, want %v", got, want)
	}
	if got := ParseMirrorStatistics("not a map"); len(got) != 0 {
		t.Errorf("non-map input produced %v", got)
	}
}

func TestMirrorUUIDs(t *testing.T) {
	// Only UUIDs in the mirrors column count; the record's own _uuid and
	// port references must not satisfy the membership check.
	text := `_uuid               : 11111111-1111-1111-1111-111111111111
name                : vmbr0
ports               : [33333333-3333-3333-3333-333333333333]
mirrors             : [aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeffff, bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb]
`
	got := MirrorUUIDs(text)
	want := []string{"aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeffff", "bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MirrorUUIDs = %v, want %v", got, want)
	}
}
