package clock

import (
	"testing"
	"time"
)

func TestRealClock_Now(t *testing.T) {
	clk := RealClock{}

	before := time.Now()
	now := clk.Now()
	after := time.Now()

	if now.Before(before) {
		t.Errorf("Clock time %v is before measurement time %v", now, before)
	}
	if now.After(after) {
		t.Errorf("Clock time %v is after measurement time %v", now, after)
	}
}

func TestMockClock_Now(t *testing.T) {
	fixed := time.Date(2025, 12, 20, 12, 0, 0, 0, time.UTC)
	clk := NewMockClock(fixed)

	if got := clk.Now(); !got.Equal(fixed) {
		t.Errorf("Expected %v, got %v", fixed, got)
	}
	if first, second := clk.Now(), clk.Now(); !first.Equal(second) {
		t.Errorf("Mock clock should be stable: first=%v, second=%v", first, second)
	}
}

func TestMockClock_Advance(t *testing.T) {
	fixed := time.Date(2025, 12, 20, 12, 0, 0, 0, time.UTC)
	clk := NewMockClock(fixed)

	clk.Advance(90 * time.Second)

	want := fixed.Add(90 * time.Second)
	if got := clk.Now(); !got.Equal(want) {
		t.Errorf("Expected %v after advance, got %v", want, got)
	}
}

func TestMockClock_ZeroValue(t *testing.T) {
	var clk MockClock
	if !clk.Now().IsZero() {
		t.Errorf("zero MockClock should report the zero time")
	}
}
