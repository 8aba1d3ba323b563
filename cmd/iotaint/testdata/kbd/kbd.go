// Package kbd drives a PS/2 keyboard controller.
package kbd

// Implemented in ports.s.
func inb(port uint16) uint8
func outb(port uint16, v uint8)

const (
	dataPort   = 0x60
	statusPort = 0x64
)

type Controller struct {
	last uint8
}

func status() uint8 {
	return inb(statusPort)
}

func ready() bool {
	return status()&1 != 0
}

// Poll stores the next scan code, if any.
func (c *Controller) Poll() {
	if !ready() {
		return
	}
	c.last = inb(dataPort)
}

func (c *Controller) Last() uint8 {
	return c.last
}

func Reset() {
	outb(statusPort, 0xfe)
}
