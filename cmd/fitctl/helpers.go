package main

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"

	"fitagent/bulk"
)

var (
	flagNotes    string
	flagCardio   bool
	flagFrom     string
	flagTo       string
	flagMonth    string
	flagReps     int
	flagWeight   float64
	flagDuration int
	flagDone     bool
	flagServings float64
)

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", s, err)
	}
	return id, nil
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		id, err := parseID(a)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func printBulkResult(result bulk.Result) {
	fmt.Println(color.New(color.FgGreen, color.Bold).Sprint(result.Summary()))
	for _, f := range result.Failed {
		fmt.Printf("  • %d: %s\n", f.ID, f.Reason)
	}
}
