// Command replaycheck verifies archived game summaries by re-running
// their action logs from the recorded seed.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"trickster/game"
	"trickster/replay"
)

func main() {
	tape := flag.Bool("tape", false, "print the replay tape as JSON")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: replaycheck [-tape] summary.json [...]\n  use - to read stdin\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	failed := 0
	for _, path := range flag.Args() {
		if err := check(path, *tape, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			failed++
			continue
		}
		if !*tape {
			fmt.Printf("%s: ok\n", path)
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func check(path string, printTape bool, w io.Writer) error {
	raw, err := readInput(path)
	if err != nil {
		return err
	}
	var sum game.GameSummary
	if err := json.Unmarshal(raw, &sum); err != nil {
		return fmt.Errorf("decode summary: %w", err)
	}
	if !printTape {
		return replay.Verify(sum)
	}
	t, err := replay.GenerateTape(sum)
	if err != nil {
		var replayErr *replay.ReplayError
		if errors.As(err, &replayErr) && replayErr.Expected != nil {
			return fmt.Errorf("%w (expected %s on turn %d)", err, replayErr.Expected.OnTurn, replayErr.Expected.Turn)
		}
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(t)
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
