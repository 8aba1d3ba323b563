package rtc

// Implemented in ports.s.
func inb(port uint16) uint8
func outb(port uint16, v uint8)

const (
	cmosAddr = 0x70
	cmosData = 0x71
)

func readReg(reg uint8) uint8 {
	outb(cmosAddr, reg)
	return inb(cmosData)
}

func Seconds() int {
	v := readReg(0x00)
	return int(v&0x0f) + int(v>>4)*10
}
