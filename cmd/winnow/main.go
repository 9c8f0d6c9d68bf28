// Command winnow is the CLI driver for the content curation engine.
//
// Acquisition and delivery stay outside: curate reads normalized article
// records as JSON and emits an ordered selection as JSON; once the external
// delivery succeeds, confirm marks the selected articles as sent.
package main

import (
	"fmt"
	"os"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

const usage = `winnow — content scoring & curation engine

Usage:
  winnow <command> [flags]

Commands:
  curate      Score candidate articles and assemble a selection (read-only)
  confirm     Mark a delivered selection's articles as sent
  feedback    Nudge a topic's base score toward a corrected value
  set-score   Set a topic's base score directly
  blacklist   Set a topic's base score to 0
  keywords    Replace a topic's keyword lists
  topics      List topic profiles
  init        Create the database and seed topic profiles
  status      Show store statistics
  purge       Remove fingerprint and audit records past retention
  version     Print version

Run 'winnow <command> -h' for command-specific flags.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(0)
	}

	cmd := os.Args[1]
	// Strip the program name + subcommand so flag sets see only their flags
	os.Args = os.Args[1:]

	switch cmd {
	case "curate":
		runCurate()
	case "confirm":
		runConfirm()
	case "feedback":
		runFeedback()
	case "set-score":
		runSetScore()
	case "blacklist":
		runBlacklist()
	case "keywords":
		runKeywords()
	case "topics":
		runTopics()
	case "init":
		runInit()
	case "status":
		runStatus()
	case "purge":
		runPurge()
	case "version", "-version", "--version":
		fmt.Printf("winnow %s (built %s)\n", version, buildTime)
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "winnow: unknown command %q\n\n", cmd)
		fmt.Print(usage)
		os.Exit(1)
	}
}
