// Command yamlscan is a debug driver for the yamlscan lexer: it prints
// the decoded event stream for a YAML file with ANSI highlighting,
// grounded on goccy-go-yaml's cmd/ycat.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/go-playground/validator/v10"
	"github.com/mattn/go-colorable"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/waldemarsson/yamlscan"
	"github.com/waldemarsson/yamlscan/internal/lexer"
	"github.com/waldemarsson/yamlscan/internal/token"
)

var validate = validator.New()

// fileFlags mirrors a subcommand's lone file argument so it can be
// checked before anything is read off disk.
type fileFlags struct {
	File string `validate:"required,file"`
}

// eventsFlags mirrors the events subcommand's arguments and flags so they
// can be checked together before anything is read off disk.
type eventsFlags struct {
	File      string `validate:"required,file"`
	MaxErrors int    `validate:"gte=0"`
}

const escape = "\x1b"

func sgr(attr color.Attribute) string {
	return fmt.Sprintf("%s[%dm", escape, attr)
}

var reset = sgr(color.Reset)

func kindColor(k yamlscan.EventKind) string {
	switch k {
	case yamlscan.EvDocStart, yamlscan.EvDocEnd:
		return sgr(color.FgHiWhite)
	case yamlscan.EvSeqStart, yamlscan.EvSeqEnd:
		return sgr(color.FgHiBlue)
	case yamlscan.EvMapStart, yamlscan.EvMapEnd:
		return sgr(color.FgHiCyan)
	case yamlscan.EvScalar:
		return sgr(color.FgHiGreen)
	case yamlscan.EvAlias:
		return sgr(color.FgHiYellow)
	case yamlscan.EvDirective:
		return sgr(color.FgHiMagenta)
	case yamlscan.EvError:
		return sgr(color.FgHiRed)
	}
	return ""
}

func runEvents(cmd *cobra.Command, args []string) error {
	strict, _ := cmd.Flags().GetBool("strict")
	maxErrors, _ := cmd.Flags().GetInt("max-errors")

	flags := eventsFlags{File: args[0], MaxErrors: maxErrors}
	if err := validate.Struct(flags); err != nil {
		return fmt.Errorf("yamlscan: %w", err)
	}

	src, err := os.ReadFile(flags.File)
	if err != nil {
		return err
	}
	out := colorable.NewColorableStdout()

	it := yamlscan.New(src)
	it.Strict(strict)

	errCount := 0
	for {
		ev, ok := it.Next()
		if !ok {
			break
		}
		printEvent(out, ev)
		if ev.Kind == yamlscan.EvError {
			errCount++
			if flags.MaxErrors > 0 && errCount >= flags.MaxErrors {
				break
			}
		}
	}
	if errCount > 0 {
		return fmt.Errorf("yamlscan: %d error(s) found while scanning %s", errCount, flags.File)
	}
	return nil
}

// runTokens prints the raw packed sentinel sequence the lexer produces,
// one sentinel per line, below the event-decoding level runEvents works
// at. Useful for debugging the lexer itself independent of the event
// iterator's fold/unescape/tag-resolution layer.
func runTokens(cmd *cobra.Command, args []string) error {
	flags := fileFlags{File: args[0]}
	if err := validate.Struct(flags); err != nil {
		return fmt.Errorf("yamlscan: %w", err)
	}

	src, err := os.ReadFile(flags.File)
	if err != nil {
		return err
	}
	out := colorable.NewColorableStdout()

	q, errs := lexer.Tokenize(src)
	cur := token.NewCursor(q)
	for {
		s, ok := cur.NextSentinel()
		if !ok {
			break
		}
		printToken(out, s, cur, errs)
	}
	if len(errs) > 0 {
		return fmt.Errorf("yamlscan: %d error(s) found while scanning %s", len(errs), flags.File)
	}
	return nil
}

func printToken(out io.Writer, s token.Sentinel, cur *token.Cursor, errs []lexer.LexError) {
	if s == token.ErrorToken {
		code, ok := cur.NextError()
		fmt.Fprint(out, sgr(color.FgHiRed))
		if ok && int(code) < len(errs) {
			fmt.Fprintf(out, "%-24s %v", s, errs[code])
		} else {
			fmt.Fprintf(out, "%-24s <invalid error code>", s)
		}
		fmt.Fprintln(out, reset)
		return
	}
	fmt.Fprintf(out, "%s%-24s", sgr(color.FgHiGreen), s)
	if token.IsScalarStart(s) {
		fmt.Fprint(out, reset)
		for {
			sub, ok := cur.PeekSentinel()
			if !ok {
				fmt.Fprintf(out, " %d:%d", cur.NextOffset(), cur.NextOffset())
				continue
			}
			cur.NextSentinel()
			if sub == token.NewlineMarker {
				fmt.Fprintf(out, " fold(%d)", cur.NextOffset())
				continue
			}
			break // ScalarEnd
		}
		fmt.Fprintln(out)
		return
	}
	for i := 0; i < token.Arity(s); i++ {
		fmt.Fprintf(out, " %d", cur.NextOffset())
	}
	fmt.Fprintln(out, reset)
}

func printEvent(out io.Writer, ev yamlscan.Event) {
	c := kindColor(ev.Kind)
	fmt.Fprintf(out, "%s%-12s%s %d:%d", c, ev.Kind, reset, ev.Start.Line, ev.Start.Column)
	if ev.Implicit {
		fmt.Fprint(out, " implicit")
	}
	if !ev.Tag.Empty() {
		if ev.Tag.Resolved != "" {
			fmt.Fprintf(out, " tag=%s%s%s", sgr(color.FgHiMagenta), ev.Tag.Resolved, reset)
		} else {
			fmt.Fprintf(out, " tag=%s%s!%s%s (unresolved)", sgr(color.FgHiRed), ev.Tag.Handle, ev.Tag.Suffix, reset)
		}
	}
	if len(ev.Anchor) > 0 {
		fmt.Fprintf(out, " anchor=%s&%s%s", sgr(color.FgHiYellow), ev.Anchor, reset)
	}
	switch ev.Kind {
	case yamlscan.EvScalar:
		fmt.Fprintf(out, " [%s] %q", ev.Flavor, ev.Value)
	case yamlscan.EvAlias:
		fmt.Fprintf(out, " *%s", ev.Value)
	case yamlscan.EvDirective:
		fmt.Fprintf(out, " %q", ev.Value)
	case yamlscan.EvError:
		fmt.Fprintf(out, " %v", ev.Err)
	}
	fmt.Fprintln(out)
}

// normalizeFlagName lets "--maxerrors" be typed as an alias for
// "--max-errors", the way cobra-based CLIs commonly relax dash-separated
// flag names for muscle-memory compatibility.
func normalizeFlagName(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	if name == "maxerrors" {
		name = "max-errors"
	}
	return pflag.NormalizedName(name)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "yamlscan",
		Short:         "Inspect the yamlscan lexer's token and event streams for a YAML file",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	events := &cobra.Command{
		Use:   "events <file>",
		Short: "Decode and print events, one per line",
		Args:  cobra.ExactArgs(1),
		RunE:  runEvents,
	}
	events.Flags().Bool("strict", false, "stop decoding at the first error event")
	events.Flags().Int("max-errors", 0, "stop after N error events (0 = unlimited)")
	events.Flags().SetNormalizeFunc(normalizeFlagName)
	root.AddCommand(events)

	tokens := &cobra.Command{
		Use:   "tokens <file>",
		Short: "Print the raw packed sentinel stream, one sentinel per line",
		Args:  cobra.ExactArgs(1),
		RunE:  runTokens,
	}
	root.AddCommand(tokens)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error: %v", err))
		os.Exit(1)
	}
}
