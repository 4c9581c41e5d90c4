//go:build rp2040

package main

import "machine"

const (
	// Generator output, PWM slice 0 channel A
	PIN_PWM = machine.GPIO0

	// Joystick: X selects frequency, Y selects duty
	PIN_JOY_X = machine.GPIO27 // ADC1
	PIN_JOY_Y = machine.GPIO26 // ADC0

	// Buttons, active low with pull-ups
	PIN_BUTTON_A = machine.GPIO10 // +duty
	PIN_BUTTON_B = machine.GPIO5  // -duty

	// Probe input, measured on both edges
	PIN_PROBE = machine.GPIO16

	// OLED on I2C1
	PIN_OLED_SDA = machine.GPIO14
	PIN_OLED_SCL = machine.GPIO15
	OLED_ADDRESS = 0x3C

	// Watchdog resets the board when the loop stalls for this long
	WATCHDOG_TIMEOUT_MS = 3000
)
