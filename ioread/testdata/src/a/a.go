package a

// Implemented in ports.s.
func inb(port uint16) uint8
func outb(port uint16, v uint8)
func rdtsc() uint64

func readCMOS(reg uint8) uint8 {
	outb(0x70, reg)
	return inb(0x71) // want "hardware input read"
}

func seconds() int {
	v := readCMOS(0)
	return int(v&0x0f) + int(v>>4)*10
}

func keyboardReady() bool {
	status := inb(0x64) // want "hardware input read"
	return status&1 != 0
}

func ignored() {
	_ = inb(0x60)
}

func cycles() uint64 {
	return rdtsc()
}
