package iotaint

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// WriteCSV writes the seeds' traces to w in CSV format, one row per
// event, so they can be loaded into other tools.
func WriteCSV(w io.Writer, seeds []Seed) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{
		"seed",
		"pattern",
		"kind",
		"depth",
		"func",
		"instr",
		"dir",
		"file",
		"line",
	}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, s := range seeds {
		for _, e := range s.Trace {
			var dir, file, line string
			if e.HasLocation {
				dir = e.Location.Dir
				file = e.Location.File
				line = strconv.Itoa(e.Location.Line)
			}

			if err := cw.Write([]string{
				strconv.Itoa(i),
				s.Pattern,
				e.Kind.String(),
				strconv.Itoa(e.Depth),
				functionName(e.Function),
				instructionText(e.Instruction),
				dir,
				file,
				line,
			}); err != nil {
				return fmt.Errorf("failed to write event: %w", err)
			}
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV trace: %w", err)
	}
	return nil
}
