package web

import (
	"testing"
	"time"
)

func TestLimiterSet_EvictsIdleCallers(t *testing.T) {
	clock := time.Date(2025, 9, 8, 9, 0, 0, 0, time.UTC)
	s := newLimiterSet(1, 1, 10*time.Minute)
	s.now = func() time.Time { return clock }

	if !s.allow("u_a") {
		t.Fatal("first request for u_a rejected")
	}
	if s.allow("u_a") {
		t.Fatal("second immediate request for u_a allowed past burst 1")
	}
	s.allow("u_b")
	if n := s.size(); n != 2 {
		t.Fatalf("size = %d, want 2", n)
	}

	clock = clock.Add(5 * time.Minute)
	s.allow("u_b")

	clock = clock.Add(6 * time.Minute)
	s.allow("u_c")
	if n := s.size(); n != 2 {
		t.Errorf("size after sweep = %d, want 2 (u_a evicted, u_b and u_c kept)", n)
	}
	if _, ok := s.entries["u_a"]; ok {
		t.Errorf("idle caller u_a still tracked")
	}

	clock = clock.Add(11 * time.Minute)
	s.allow("u_d")
	if n := s.size(); n != 1 {
		t.Errorf("size after second sweep = %d, want 1", n)
	}
}
