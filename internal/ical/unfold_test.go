package ical

import "testing"

func TestUnfoldLines(t *testing.T) {
	raw := "SUMMARY:Weekly\r\n  sync\r\nDESCRIPTION:line\r\n\tfolded with tab\r\nUID:abc"
	lines := UnfoldLines(raw)
	if len(lines) != 3 {
		t.Fatalf("expected 3 logical lines, got %d: %v", len(lines), lines)
	}
	if lines[0] != "SUMMARY:Weekly sync" {
		t.Errorf("unexpected unfolded summary: %q", lines[0])
	}
	if lines[1] != "DESCRIPTION:linefolded with tab" {
		t.Errorf("unexpected unfolded description: %q", lines[1])
	}
	if lines[2] != "UID:abc" {
		t.Errorf("unexpected last line: %q", lines[2])
	}
}

func TestUnfoldHandlesBareCR(t *testing.T) {
	lines := UnfoldLines("A:1\rB:2")
	if len(lines) != 2 || lines[0] != "A:1" || lines[1] != "B:2" {
		t.Fatalf("bare CR not treated as line break: %v", lines)
	}
}

func TestScrubControl(t *testing.T) {
	raw := "SUMMARY:bad\x00value\x08here\nNEXT:\tok\x7f"
	got := ScrubControl(raw)
	want := "SUMMARY:badvaluehere\nNEXT:\tok"
	if got != want {
		t.Errorf("ScrubControl = %q, want %q", got, want)
	}
}
