package output

import (
	"fmt"
	"time"

	"github.com/fatih/color"

	"github.com/rogersrj/cycle-analyzer/pkg/model"
)

// PrintRunReport prints a colorized summary of a completed search run.
func PrintRunReport(s model.RunSummary) {
	bold := color.New(color.Bold)
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	bold.Println("Cycle Analyzer - Run Report")
	bold.Println("===========================")
	fmt.Printf("Input: %s\n", s.Input)
	fmt.Printf("Output: %s\n", s.Output)
	fmt.Printf("Graph: %d vertices, %d edges\n", s.Vertices, s.Edges)

	if s.LimitLen >= 0 {
		if s.LimitType != "" {
			cyan.Printf("Limit: at most %d %q vertices per cycle\n", s.LimitLen, s.LimitType)
		} else {
			cyan.Printf("Limit: at most %d vertices per cycle\n", s.LimitLen)
		}
	}
	fmt.Println()

	if s.CycleCount == 0 {
		green.Println("No cycles found.")
	} else {
		yellow.Printf("Found %d cycle(s)\n", s.CycleCount)
		if s.LongestCycle > 0 {
			fmt.Printf("Longest cycle: %d vertices\n", s.LongestCycle)
		}
		red.Printf("Cyclic dependency chains written to %s\n", s.Output)
	}

	fmt.Printf("Elapsed: %s\n", s.Elapsed.Round(time.Millisecond))
}
