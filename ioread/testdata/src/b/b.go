package b

import "os"

func read() []byte {
	b, _ := os.ReadFile("/dev/port")
	return b
}

func sum() int {
	var n int
	for _, c := range read() {
		n += int(c)
	}
	return n
}
