//go:build linux && !tinygo

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"freqgen/core"
)

type fakeReleaser struct{ released []core.GPIOPin }

func (f *fakeReleaser) Release(pin core.GPIOPin) error {
	f.released = append(f.released, pin)
	return nil
}

func makeChannel(t *testing.T) (base, chanPath string) {
	t.Helper()
	base = t.TempDir()
	chanPath = filepath.Join(base, "pwmchip0", "pwm0")
	if err := os.MkdirAll(chanPath, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	for _, name := range []string{"enable", "period", "duty_cycle"} {
		if err := os.WriteFile(filepath.Join(chanPath, name), nil, 0o644); err != nil {
			t.Fatalf("WriteFile %s: %v", name, err)
		}
	}
	old := pwmSysfsBase
	pwmSysfsBase = base
	t.Cleanup(func() { pwmSysfsBase = old })
	return base, chanPath
}

func readAttr(t *testing.T, dir, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("ReadFile %s: %v", name, err)
	}
	return strings.TrimSpace(string(b))
}

func TestSysfsPWMSquareWave(t *testing.T) {
	_, ch := makeChannel(t)
	rel := &fakeReleaser{}
	d := newSysfsPWM(0, rel)

	if err := d.Attach(0, 18); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if len(rel.released) != 1 || rel.released[0] != 18 {
		t.Fatalf("released=%v want [18]", rel.released)
	}

	actual, err := d.Configure(0, 1000, 2)
	if err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if actual != 1000 {
		t.Fatalf("actual=%v want 1000", actual)
	}
	if got := readAttr(t, ch, "period"); got != "1000000" {
		t.Fatalf("period=%q want 1000000", got)
	}

	if err := d.SetDuty(0, 2); err != nil {
		t.Fatalf("SetDuty: %v", err)
	}
	if got := readAttr(t, ch, "duty_cycle"); got != "500000" {
		t.Fatalf("duty_cycle=%q want 500000", got)
	}
	if got := readAttr(t, ch, "enable"); got != "1" {
		t.Fatalf("enable=%q want 1", got)
	}

	if err := d.Detach(18); err != nil {
		t.Fatalf("Detach: %v", err)
	}
	if got := readAttr(t, ch, "enable"); got != "0" {
		t.Fatalf("enable=%q want 0 after detach", got)
	}
}

func TestSysfsPWMRequiresAttach(t *testing.T) {
	makeChannel(t)
	d := newSysfsPWM(0, nil)

	if _, err := d.Configure(0, 1000, 2); err != ErrPWMNotAttached {
		t.Fatalf("Configure err=%v want ErrPWMNotAttached", err)
	}
	if err := d.SetDuty(0, 2); err != ErrPWMNotAttached {
		t.Fatalf("SetDuty err=%v want ErrPWMNotAttached", err)
	}
}

func TestSysfsPWMRejectsZeroFrequency(t *testing.T) {
	makeChannel(t)
	d := newSysfsPWM(0, nil)
	if err := d.Attach(0, 18); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if _, err := d.Configure(0, 0, 2); err != ErrPWMFrequency {
		t.Fatalf("Configure err=%v want ErrPWMFrequency", err)
	}
}
