// Command psetctl inspects PSET text and exchanges PSETs with psetd.
//
// Text commands read one PSET in base64 form from a file or stdin. Leading
// and trailing whitespace around the text is dropped before parsing.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"xdao.co/pset/pset"
	"xdao.co/pset/psettext"
)

// exitError carries a process exit code through cobra.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func usageError(format string, args ...any) error {
	return &exitError{code: 2, err: fmt.Errorf(format, args...)}
}

// usageArgs reports argument count and shape failures as usage errors.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return &exitError{code: 2, err: err}
		}
		return nil
	}
}

type options struct {
	servers     []string
	storeDir    string
	writePolicy string
	dialTimeout time.Duration
	timeout     time.Duration
	maxMsgBytes int
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, in io.Reader, out io.Writer, errOut io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(errOut, err)
		var ee *exitError
		if errors.As(err, &ee) {
			return ee.code
		}
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:               "psetctl",
		Short:             "Inspect PSET text and exchange PSETs",
		Long:              `psetctl decodes, normalizes and identifies base64 PSETs, and moves them between stores`,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
		SilenceErrors:     true,
		SilenceUsage:      true,
	}

	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &exitError{code: 2, err: err}
	})

	pf := root.PersistentFlags()
	pf.StringArrayVar(&opts.servers, "server", nil, "psetd address host:port (repeatable)")
	pf.StringVar(&opts.storeDir, "store-dir", "", "local store directory")
	pf.StringVar(&opts.writePolicy, "write-policy", "first", "with several stores: first|all")
	pf.DurationVar(&opts.dialTimeout, "dial-timeout", 5*time.Second, "gRPC dial timeout")
	pf.DurationVar(&opts.timeout, "timeout", 10*time.Second, "per-RPC timeout")
	pf.IntVar(&opts.maxMsgBytes, "max-msg-bytes", 0, "max gRPC message size in bytes (send+recv); 0 uses grpc defaults")

	root.AddCommand(
		newDecodeCmd(),
		newNormalizeCmd(),
		newCIDCmd(),
		newPutCmd(opts),
		newGetCmd(opts),
		newHasCmd(opts),
		newExportCmd(opts),
		newImportCmd(opts),
	)
	return root
}

// readText returns the trimmed PSET text named by args: a file path, or
// stdin when args is empty or "-".
func readText(cmd *cobra.Command, args []string) (name, text string, err error) {
	var b []byte
	if len(args) == 0 || args[0] == "-" {
		name = "<stdin>"
		b, err = io.ReadAll(cmd.InOrStdin())
	} else {
		name = args[0]
		b, err = os.ReadFile(args[0])
	}
	if err != nil {
		return name, "", fmt.Errorf("read %s: %w", name, err)
	}
	return name, strings.TrimSpace(string(b)), nil
}

// parseText reads and parses one PSET. The error names the failing layer and
// keeps its diagnostic.
func parseText(cmd *cobra.Command, args []string) (*pset.Pset, error) {
	name, text, err := readText(cmd, args)
	if err != nil {
		return nil, err
	}
	p, err := psettext.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%s: %s", name, psettext.Detail(err))
	}
	return p, nil
}
