package c

import "ports"

func scanCode() uint8 {
	return ports.Inb(0x60) // want "hardware input read"
}

func ack() {
	ports.Outb(0x20, 0x20)
}

func status() bool {
	// Status is written in Go, so its reads are reported in ports.
	return ports.Status()&1 != 0
}
