//go:build rp2040 || rp2350

package main

import (
	"image/color"
	"machine"
	"strings"

	"tinygo.org/x/drivers/ssd1306"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
)

const (
	oledWidth   = 128
	oledHeight  = 64
	oledAddress = 0x3C
	lineHeight  = 12

	// a full refresh is ~25 ms of I2C traffic; bit-banged output
	// glitches while it runs, so keep it rare
	oledMinIntervalUs = 500000
)

var white = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// oledMirror shows the two status strings on an SSD1306 on I2C0
// (SDA=GP4, SCL=GP5)
type oledMirror struct {
	dev  *ssd1306.Device
	font tinyfont.Fonter

	output, input string
	lastDraw      uint64
	drawn         bool
}

func newOLEDMirror() (*oledMirror, error) {
	bus := machine.I2C0
	if err := bus.Configure(machine.I2CConfig{
		Frequency: 400 * machine.KHz,
		SDA:       machine.GP4,
		SCL:       machine.GP5,
	}); err != nil {
		return nil, err
	}

	dev := ssd1306.NewI2C(bus)
	dev.Configure(ssd1306.Config{
		Width:    oledWidth,
		Height:   oledHeight,
		Address:  oledAddress,
		VccState: ssd1306.SWITCHCAPVCC,
	})
	dev.ClearDisplay()
	return &oledMirror{dev: dev, font: &proggy.TinySZ8pt7b}, nil
}

// Due reports whether the last refresh is old enough for another one
func (m *oledMirror) Due(now uint64) bool {
	return !m.drawn || now-m.lastDraw >= oledMinIntervalUs
}

// Update redraws when either string changed
func (m *oledMirror) Update(output, input string, now uint64) {
	if m.drawn && output == m.output && input == m.input {
		return
	}
	m.output, m.input = output, input
	m.lastDraw = now
	m.drawn = true

	m.dev.ClearBuffer()
	y := int16(lineHeight - 2)
	for _, text := range [2]string{output, input} {
		for _, line := range wrap(m.font, text, oledWidth) {
			tinyfont.WriteLine(m.dev, m.font, 0, y, line, white)
			y += lineHeight
		}
	}
	m.dev.Display()
}

// wrap breaks text at spaces so each line fits width pixels
func wrap(font tinyfont.Fonter, text string, width int) []string {
	var lines []string
	line := ""
	for _, word := range strings.Fields(text) {
		next := word
		if line != "" {
			next = line + " " + word
		}
		if w, _ := tinyfont.LineWidth(font, next); int(w) > width && line != "" {
			lines = append(lines, line)
			next = word
		}
		line = next
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}
