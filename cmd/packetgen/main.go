package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/packetgen/packetgen/internal/safety"
)

var (
	cfgFile string
	verbose bool
	version = "dev"
)

var rootCmd = &cobra.Command{
	Use:     "packetgen",
	Short:   "Controlled private-network load generator",
	Long:    `packetgen builds and emits link/network/transport frames at a controlled rate against a private-network target, for authorized load and resilience testing.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./packetgen.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(systemCmd)
}

// exitErr pins an explicit process exit code to an error, per spec.md §6's
// exit code table (0 success, 1 configuration/validation, 2 runtime,
// 3 permission/capability, 130 SIGINT).
type exitErr struct {
	code int
	err  error
}

func (e *exitErr) Error() string { return e.err.Error() }
func (e *exitErr) Unwrap() error { return e.err }

func exitValidation(err error) error { return &exitErr{code: 1, err: err} }
func exitRuntime(err error) error    { return &exitErr{code: 2, err: err} }
func exitCapability(err error) error { return &exitErr{code: 3, err: err} }
func exitSignal(err error) error     { return &exitErr{code: 130, err: err} }

// exitCode classifies an error into the process exit code it should
// produce. A *safety.ValidationError surfaces as 1 even when it reaches
// main unwrapped (e.g. straight from the Safety Gate via the Driver),
// since it's always a configuration problem regardless of which layer
// raised it.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *exitErr
	if errors.As(err, &ee) {
		return ee.code
	}
	var ve *safety.ValidationError
	if errors.As(err, &ve) {
		return 1
	}
	return 2
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitCode(err))
	}
}
