package service

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"blogapi/app/config"
	"blogapi/app/repositories"

	"github.com/spf13/pflag"
)

var osExit = os.Exit

// dbPath is the badger comment store the maintenance commands act on when
// neither --db nor --config names one.
var dbPath = "data/comments"

// HandleCommand dispatches a subcommand and returns its exit code.
func HandleCommand(args []string) int {
	if len(args) < 1 {
		PrintHelp()
		osExit(1)
		return 1
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "serve":
		return RunAppServer(rest)
	case "init", "clean", "backup", "restore":
		return runStoreCommand(cmd, rest)
	case "help":
		PrintHelp()
		return 0
	default:
		fmt.Printf("Unknown command: %s\n\n", cmd)
		PrintHelp()
		osExit(1)
		return 1
	}
}

// PrintHelp prints the command line usage.
func PrintHelp() {
	helpText := `Usage: blogapi <command> [options]

Commands:
  serve [--config file] [--env-file file] [--addr host:port]
                                   Run the blog API server
  init [--db dir]                  Initialize a new empty comment database
  clean [--db dir] [--yes]         Delete the comment database
  backup [--db dir] [--output dir] Write a backup of the comment database
  restore <file> [--db dir] [--yes]
                                   Restore the comment database from a backup
  keygen [--prefix p] [--save file]
                                   Generate an API key
  version                          Show version information
  help                             Display this help message

The init, clean, backup and restore commands act on the badger comment store.
They also accept --config and --env-file and then use storage.badger.path,
unless --db is given.`
	fmt.Println(helpText)
}

func runStoreCommand(cmd string, args []string) int {
	flags := pflag.NewFlagSet(cmd, pflag.ContinueOnError)
	db := flags.String("db", dbPath, "badger comment database directory")
	yes := flags.BoolP("yes", "y", false, "do not ask for confirmation")
	output := flags.StringP("output", "o", "data/backups", "backup directory")
	configPath := flags.StringP("config", "c", os.Getenv("BLOGAPI_CONFIG"), "take the database directory from this config file")
	envFile := flags.String("env-file", "", "load environment variables from this file first")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Printf("Error: %v\n", err)
		return 2
	}

	if !flags.Changed("db") && (*configPath != "" || *envFile != "") {
		path, err := storePath(*configPath, *envFile)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return 1
		}
		*db = path
	}

	switch cmd {
	case "init":
		return initDb(*db)
	case "clean":
		return clean(*db, *yes)
	case "backup":
		_, code := backup(*db, *output)
		return code
	default:
		if flags.NArg() < 1 {
			fmt.Println("Error: backup file path required for restore")
			osExit(1)
			return 1
		}
		return restore(*db, flags.Arg(0), *yes)
	}
}

// storePath returns the badger directory the server would open with the
// given config.
func storePath(configPath, envFile string) (string, error) {
	var envFiles []string
	if envFile != "" {
		envFiles = append(envFiles, envFile)
	}
	cfg, err := config.Load(configPath, envFiles...)
	if err != nil {
		return "", err
	}
	badger := cfg.Storage.Badger
	switch {
	case cfg.Storage.Driver != "badger":
		return "", fmt.Errorf("config uses storage driver %q, these commands need badger", cfg.Storage.Driver)
	case badger.InMemory:
		return "", errors.New("config uses an in-memory badger store, there is nothing on disk")
	}
	return badger.Path, nil
}

func confirm(prompt string) bool {
	fmt.Print(prompt + " [y/N] ")
	var response string
	fmt.Scanln(&response)
	return response == "y" || response == "Y"
}

// initDb creates an empty comment database.
func initDb(path string) int {
	if _, err := os.Stat(path); err == nil {
		fmt.Println("Database already exists. Use 'clean' first if you want to reinitialize.")
		return 1
	}

	db, err := repositories.OpenBadger(repositories.BadgerOptions{Path: path})
	if err != nil {
		fmt.Printf("Failed to initialize database: %v\n", err)
		return 1
	}
	defer db.Close()

	fmt.Println("Database initialized successfully")
	return 0
}

// clean removes the comment database.
func clean(path string, yes bool) int {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Println("Database is already clean (does not exist)")
		return 0
	}

	if !yes && !confirm("Are you sure you want to clean the database? This cannot be undone.") {
		fmt.Println("Operation cancelled")
		return 1
	}

	if err := os.RemoveAll(path); err != nil {
		fmt.Printf("Failed to clean database: %v\n", err)
		return 1
	}
	fmt.Println("Database cleaned successfully")
	return 0
}

// backup writes a full backup of the comment database into dir and returns
// the backup file path.
func backup(path, dir string) (string, int) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Println("No database exists to backup")
		return "", 1
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		fmt.Printf("Failed to create backup directory: %v\n", err)
		return "", 1
	}

	db, err := repositories.OpenBadger(repositories.BadgerOptions{Path: path})
	if err != nil {
		fmt.Printf("Failed to open database: %v\n", err)
		return "", 1
	}
	defer db.Close()

	backupFile := filepath.Join(dir, fmt.Sprintf("comments_%s.bak", time.Now().UTC().Format("20060102T150405.000000000")))
	f, err := os.Create(backupFile)
	if err != nil {
		fmt.Printf("Failed to create backup file: %v\n", err)
		return "", 1
	}
	defer f.Close()

	if _, err := db.Backup(f, 0); err != nil {
		fmt.Printf("Failed to backup database: %v\n", err)
		return "", 1
	}
	if err := f.Sync(); err != nil {
		fmt.Printf("Failed to flush backup file: %v\n", err)
		return "", 1
	}

	fmt.Printf("Database backed up successfully to %s\n", backupFile)
	return backupFile, 0
}

// restore replaces the comment database with the contents of backupFile.
func restore(path, backupFile string, yes bool) int {
	fi, err := os.Stat(backupFile)
	if os.IsNotExist(err) {
		fmt.Printf("Backup file does not exist: %s\n", backupFile)
		return 1
	}
	if err != nil {
		fmt.Printf("Failed to stat backup file: %v\n", err)
		return 1
	}
	if fi.Size() == 0 {
		fmt.Printf("Backup file is empty: %s\n", backupFile)
		return 1
	}

	if _, err := os.Stat(path); err == nil {
		if !yes && !confirm("Existing database found. Do you want to replace it?") {
			fmt.Println("Operation cancelled")
			return 1
		}
		if err := os.RemoveAll(path); err != nil {
			fmt.Printf("Failed to remove existing database: %v\n", err)
			return 1
		}
	}

	db, err := repositories.OpenBadger(repositories.BadgerOptions{Path: path})
	if err != nil {
		fmt.Printf("Failed to open database: %v\n", err)
		return 1
	}
	defer db.Close()

	f, err := os.Open(backupFile)
	if err != nil {
		fmt.Printf("Failed to open backup file: %v\n", err)
		return 1
	}
	defer f.Close()

	if err := db.Load(f, 256); err != nil {
		fmt.Printf("Failed to restore database: %v\n", err)
		return 1
	}

	fmt.Println("Database restored successfully")
	return 0
}
