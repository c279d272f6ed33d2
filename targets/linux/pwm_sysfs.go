//go:build linux && !tinygo

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"freqgen/core"
)

var (
	ErrPWMNotAttached = errors.New("pwm: channel not attached")
	ErrPWMFrequency   = errors.New("pwm: frequency out of range")
)

var pwmSysfsBase = "/sys/class/pwm"

// pinReleaser hands a GPIO line over to the PWM function
type pinReleaser interface {
	Release(pin core.GPIOPin) error
}

// sysfsPWM drives hardware PWM channels via /sys/class/pwm/pwmchipN.
//
// On Raspberry Pi the pin to channel routing is fixed by the device tree
// overlay (e.g. dtoverlay=pwm,pin=18,func=2 routes GPIO18 to pwm0), so
// Attach only exports the channel and takes the pin from the GPIO driver.
type sysfsPWM struct {
	chipPath string
	gpio     pinReleaser

	channels map[core.PWMChannel]*pwmChannel
}

type pwmChannel struct {
	path     string
	pin      core.GPIOPin
	periodNS uint64
	bits     uint8
	enabled  bool
}

func newSysfsPWM(chip int, gpio pinReleaser) *sysfsPWM {
	return &sysfsPWM{
		chipPath: filepath.Join(pwmSysfsBase, "pwmchip"+strconv.Itoa(chip)),
		gpio:     gpio,
		channels: make(map[core.PWMChannel]*pwmChannel),
	}
}

// Attach exports the channel
func (d *sysfsPWM) Attach(ch core.PWMChannel, pin core.GPIOPin) error {
	if d.gpio != nil {
		if err := d.gpio.Release(pin); err != nil {
			return err
		}
	}
	c, ok := d.channels[ch]
	if !ok {
		c = &pwmChannel{path: filepath.Join(d.chipPath, fmt.Sprintf("pwm%d", ch))}
		if err := d.ensureExported(ch, c.path); err != nil {
			return err
		}
		d.channels[ch] = c
	}
	c.pin = pin
	return nil
}

func (d *sysfsPWM) ensureExported(ch core.PWMChannel, path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := writeSysfs(filepath.Join(d.chipPath, "export"), strconv.Itoa(int(ch))); err != nil {
		// If already exported by someone else, ignore.
		if _, statErr := os.Stat(path); statErr == nil {
			return nil
		}
		return fmt.Errorf("pwm: export %s: %w", path, err)
	}

	// Wait briefly for sysfs node to appear.
	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); err == nil {
			return nil
		}
		time.Sleep(10 * time.Millisecond)
	}
	return fmt.Errorf("pwm: %s not created after export", path)
}

// Configure sets the period. The kernel takes whole nanoseconds, so the
// returned frequency is the one that period gives.
func (d *sysfsPWM) Configure(ch core.PWMChannel, hz float64, bits uint8) (float64, error) {
	c, ok := d.channels[ch]
	if !ok {
		return 0, ErrPWMNotAttached
	}
	if hz <= 0 {
		return 0, ErrPWMFrequency
	}
	periodNS := uint64(1e9/hz + 0.5)
	if periodNS == 0 {
		return 0, ErrPWMFrequency
	}

	// Disable and zero the duty before changing the period (common sysfs
	// requirement: duty_cycle may never exceed period).
	_ = c.writeBool("enable", false)
	c.enabled = false
	_ = c.writeUint("duty_cycle", 0)

	if err := c.writeUint("period", periodNS); err != nil {
		return 0, err
	}
	c.periodNS = periodNS
	c.bits = bits
	return 1e9 / float64(periodNS), nil
}

// SetDuty sets the duty level out of 2^bits and enables the output
func (d *sysfsPWM) SetDuty(ch core.PWMChannel, level uint32) error {
	c, ok := d.channels[ch]
	if !ok || c.periodNS == 0 {
		return ErrPWMNotAttached
	}
	duty := c.periodNS * uint64(level) >> c.bits
	if duty > c.periodNS {
		duty = c.periodNS
	}
	if err := c.writeUint("duty_cycle", duty); err != nil {
		return err
	}
	if !c.enabled {
		if err := c.writeBool("enable", true); err != nil {
			return err
		}
		c.enabled = true
	}
	return nil
}

// Detach disables every channel routed to pin
func (d *sysfsPWM) Detach(pin core.GPIOPin) error {
	var err error
	for _, c := range d.channels {
		if c.pin != pin || !c.enabled {
			continue
		}
		err = errors.Join(err, c.writeBool("enable", false))
		c.enabled = false
	}
	return err
}

// Close disables all channels
func (d *sysfsPWM) Close() error {
	var err error
	for _, c := range d.channels {
		err = errors.Join(err, c.writeBool("enable", false))
	}
	return err
}

func (c *pwmChannel) writeUint(name string, v uint64) error {
	return writeSysfs(filepath.Join(c.path, name), strconv.FormatUint(v, 10))
}

func (c *pwmChannel) writeBool(name string, v bool) error {
	val := "0"
	if v {
		val = "1"
	}
	return writeSysfs(filepath.Join(c.path, name), val)
}

func writeSysfs(path string, value string) error {
	// Use O_WRONLY without O_TRUNC/O_CREATE.
	// Some sysfs attributes reject truncation flags even when mode bits
	// allow writes. Right after an export udev may still be fixing
	// permissions, so EACCES/ENOENT are retried for a short while.
	deadline := time.Now().Add(2 * time.Second)
	for {
		f, err := os.OpenFile(path, os.O_WRONLY, 0)
		if err == nil {
			_, werr := f.WriteString(value)
			err = errors.Join(werr, f.Close())
			if err == nil {
				return nil
			}
		}
		if time.Now().Before(deadline) && isRetryableSysfsErr(err) {
			time.Sleep(25 * time.Millisecond)
			continue
		}
		return err
	}
}

func isRetryableSysfsErr(err error) bool {
	return os.IsPermission(err) || os.IsNotExist(err) || errors.Is(err, syscall.EACCES) || errors.Is(err, syscall.EPERM) || errors.Is(err, syscall.ENOENT)
}
