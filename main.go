// Package main is the entry point for the pokerstats CLI, which replays
// PokerNow hand histories and reports per-player statistics.
package main

import "github.com/pable/go-poker-stats/cmd"

func main() {
	cmd.Execute()
}
