package main

import (
	"fmt"
	"os"
	"strings"

	"blogapi/keygen"
	"blogapi/service"
)

// CliVersion is overridden at build time with -ldflags "-X main.CliVersion=...".
var CliVersion = "dev"

var exit = os.Exit

func main() {
	RealMain()
}

// RealMain dispatches os.Args to the matching subcommand.
func RealMain() {
	if len(os.Args) < 2 {
		printHelp()
		exit(1)
		return
	}

	cmd := strings.ToLower(os.Args[1])
	switch cmd {
	case "help", "-h", "--help":
		printHelp()
	case "version", "--version":
		fmt.Printf("blogapi version %s\n", CliVersion)
	case "keygen":
		if code := keygen.RunKeygen(os.Args[2:]); code != 0 {
			exit(code)
		}
	case "serve", "init", "clean", "backup", "restore":
		if code := service.HandleCommand(append([]string{cmd}, os.Args[2:]...)); code != 0 {
			exit(code)
		}
	default:
		fmt.Printf("Unknown command: %s\n\n", os.Args[1])
		printHelp()
		exit(1)
	}
}

func printHelp() {
	service.PrintHelp()
}
