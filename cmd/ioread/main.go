package main

import (
	"golang.org/x/tools/go/analysis/singlechecker"

	"github.com/picatz/iotaint/ioread"
)

func main() {
	singlechecker.Main(ioread.Analyzer)
}
