// Package keygen mints shared API keys, optionally with a readable prefix.
package keygen

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync/atomic"

	"github.com/spf13/pflag"
	"golang.org/x/crypto/sha3"
)

const (
	keyBytes        = 20
	maxPrefixLength = 4
	alphabet        = "abcdefghijklmnopqrstuvwxyz234567"
)

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// Options control key generation.
type Options struct {
	// Prefix the key must start with, drawn from a-z and 2-7.
	Prefix  string
	Workers int
}

// Result is a generated key and the number of candidates drawn to find it.
type Result struct {
	Key      string
	Attempts uint64
}

// Fingerprint identifies a key in logs without revealing it.
func Fingerprint(key string) string {
	sum := sha3.Sum256([]byte(key))
	return hex.EncodeToString(sum[:8])
}

// Generate draws random keys on opts.Workers goroutines until one carries the
// requested prefix.
func Generate(ctx context.Context, opts Options) (Result, error) {
	prefix := strings.ToLower(opts.Prefix)
	if len(prefix) > maxPrefixLength {
		return Result{}, fmt.Errorf("prefix may be at most %d characters", maxPrefixLength)
	}
	if strings.Trim(prefix, alphabet) != "" {
		return Result{}, errors.New("prefix may only contain a-z and 2-7")
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var attempts atomic.Uint64
	found := make(chan string, 1)
	failed := make(chan error, 1)

	worker := func() {
		buf := make([]byte, keyBytes)
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			if _, err := rand.Read(buf); err != nil {
				select {
				case failed <- err:
				default:
				}
				return
			}
			attempts.Add(1)
			key := strings.ToLower(encoding.EncodeToString(buf))
			if strings.HasPrefix(key, prefix) {
				select {
				case found <- key:
				default:
				}
				return
			}
		}
	}

	for i := 0; i < workers; i++ {
		go worker()
	}

	select {
	case key := <-found:
		return Result{Key: key, Attempts: attempts.Load()}, nil
	case err := <-failed:
		return Result{}, fmt.Errorf("failed to read random bytes: %w", err)
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// RunKeygen implements the keygen subcommand and returns its exit code.
func RunKeygen(args []string) int {
	flags := pflag.NewFlagSet("keygen", pflag.ContinueOnError)
	prefix := flags.String("prefix", "", "key prefix (a-z, 2-7, up to 4 characters)")
	workers := flags.Int("workers", runtime.NumCPU(), "number of parallel workers")
	save := flags.String("save", "", "append API_KEY=<key> to this env file")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Printf("Error: %v\n", err)
		return 2
	}

	res, err := Generate(context.Background(), Options{Prefix: *prefix, Workers: *workers})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return 1
	}

	if *save != "" {
		f, err := os.OpenFile(*save, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			fmt.Printf("Failed to open env file: %v\n", err)
			return 1
		}
		defer f.Close()
		if _, err := fmt.Fprintf(f, "API_KEY=%s\n", res.Key); err != nil {
			fmt.Printf("Failed to write env file: %v\n", err)
			return 1
		}
		fmt.Printf("API key saved to: %s\n", *save)
	} else {
		fmt.Printf("API key: %s\n", res.Key)
	}
	fmt.Printf("Fingerprint: %s\n", Fingerprint(res.Key))
	fmt.Printf("Attempts: %d\n", res.Attempts)
	return 0
}
