// Package cli implements taskctl, a terminal front end for the task API.
package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"studytodo/internal/controller"
	"studytodo/internal/listview"
)

const (
	ExitSuccess = 0
	ExitFailure = 1
	ExitUsage   = 2
)

const usage = `usage: taskctl <command> [flags] [args]

commands:
  list  [-filter all|assignments|exams|soon]   show tasks
  add   [-course C] [-type Assignment|Exam] [-due YYYY-MM-DD] <title...>
  done  <id>                                   mark a task done
  rm    [-y] <id>                              delete a task
  clear [-y]                                   delete all completed tasks
`

// Run executes one taskctl command against api and returns the exit code.
// args excludes the program name.
func Run(ctx context.Context, api controller.API, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return ExitUsage
	}

	t := &terminal{in: bufio.NewReader(stdin), out: stdout, errOut: stderr}
	ctl := controller.New(api, t)

	cmd, rest := args[0], args[1:]
	var err error
	switch cmd {
	case "list", "ls":
		err = runList(ctx, ctl, rest, t)
	case "add":
		err = runAdd(ctx, ctl, rest, t)
	case "done":
		err = runDone(ctx, ctl, rest, t)
	case "rm", "delete":
		err = runDelete(ctx, ctl, rest, t)
	case "clear":
		err = runClear(ctx, ctl, rest, t)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return ExitSuccess
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", cmd, usage)
		return ExitUsage
	}

	var ue usageError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &ue):
		fmt.Fprintf(stderr, "%s\n\n%s", ue.msg, usage)
		return ExitUsage
	case errors.Is(err, flag.ErrHelp):
		return ExitUsage
	case errors.Is(err, controller.ErrCanceled):
		fmt.Fprintln(stdout, "Canceled.")
		return ExitSuccess
	}
	return ExitFailure
}

type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func newFlagSet(name string, t *terminal) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(t.errOut)
	return fs
}

func runList(ctx context.Context, ctl *controller.Controller, args []string, t *terminal) error {
	fs := newFlagSet("list", t)
	filter := fs.String("filter", string(listview.FilterAll), "all, assignments, exams or soon")
	if err := fs.Parse(args); err != nil {
		return err
	}
	f, err := listview.ParseFilter(*filter)
	if err != nil {
		return usageError{err.Error()}
	}
	ctl.SetFilter(f)
	if err := ctl.Refresh(ctx); err != nil {
		return err
	}
	return printView(t.out, ctl.View())
}

func runAdd(ctx context.Context, ctl *controller.Controller, args []string, t *terminal) error {
	fs := newFlagSet("add", t)
	course := fs.String("course", "", "course name")
	typ := fs.String("type", "", "Assignment or Exam")
	due := fs.String("due", "", "due date, YYYY-MM-DD")
	if err := fs.Parse(args); err != nil {
		return err
	}
	title := strings.Join(fs.Args(), " ")
	if err := ctl.Create(ctx, title, *course, *typ, *due); err != nil {
		return err
	}
	return printView(t.out, ctl.View())
}

func runDone(ctx context.Context, ctl *controller.Controller, args []string, t *terminal) error {
	if len(args) != 1 {
		return usageError{"done takes exactly one task id"}
	}
	if err := ctl.MarkDone(ctx, args[0]); err != nil {
		return err
	}
	return printView(t.out, ctl.View())
}

func runDelete(ctx context.Context, ctl *controller.Controller, args []string, t *terminal) error {
	fs := newFlagSet("rm", t)
	fs.BoolVar(&t.assumeYes, "y", false, "do not ask for confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usageError{"rm takes exactly one task id"}
	}
	if err := ctl.Delete(ctx, fs.Arg(0)); err != nil {
		return err
	}
	return printView(t.out, ctl.View())
}

func runClear(ctx context.Context, ctl *controller.Controller, args []string, t *terminal) error {
	fs := newFlagSet("clear", t)
	fs.BoolVar(&t.assumeYes, "y", false, "do not ask for confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 0 {
		return usageError{"clear takes no arguments"}
	}
	if _, err := ctl.ClearCompleted(ctx); err != nil {
		return err
	}
	return printView(t.out, ctl.View())
}

func printView(w io.Writer, v listview.View) error {
	if v.Empty() {
		_, err := fmt.Fprintln(w, "No tasks yet.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCOURSE\tTYPE\tDUE\tSTATUS")
	for _, r := range v.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Task.ID, r.Task.Title, r.Task.Course, r.Task.Type, r.DueText, status(r))
	}
	return tw.Flush()
}

func status(r listview.Row) string {
	switch {
	case r.Task.Done:
		return "done"
	case r.Overdue:
		return "overdue"
	case r.Soon:
		return "soon"
	}
	return ""
}

// terminal is the controller's Notifier on a text stream.
type terminal struct {
	in        *bufio.Reader
	out       io.Writer
	errOut    io.Writer
	assumeYes bool
}

func (t *terminal) Success(msg string) { fmt.Fprintln(t.out, msg) }

func (t *terminal) Error(msg string) { fmt.Fprintln(t.errOut, "error: "+msg) }

func (t *terminal) Confirm(prompt string) bool {
	if t.assumeYes {
		return true
	}
	fmt.Fprintf(t.out, "%s [y/N] ", prompt)
	line, err := t.in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
