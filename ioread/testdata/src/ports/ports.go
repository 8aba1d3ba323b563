// Package ports exposes x86 port I/O to other packages.
package ports

// Implemented in ports.s.
func Inb(port uint16) uint8 // want Inb:"reads hardware input"
func Outb(port uint16, v uint8)
func inw(port uint16) uint16

func Status() uint8 {
	return uint8(inw(0x64)) // want "hardware input read"
}
