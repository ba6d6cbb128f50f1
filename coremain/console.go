package coremain

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/pmkol/strqueue/pkg/pool"
	"github.com/pmkol/strqueue/pkg/queue"
)

const maxSourceDepth = 8

var errTooManyErrors = errors.New("error limit reached")

type command struct {
	args string
	help string
	f    func(c *Console, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"new":     {"", "Create new queue", (*Console).cmdNew},
		"free":    {"", "Delete queue", (*Console).cmdFree},
		"ih":      {"str [n]", "Insert string str at head of queue n times (default: n == 1)", (*Console).cmdInsertHead},
		"it":      {"str [n]", "Insert string str at tail of queue n times (default: n == 1)", (*Console).cmdInsertTail},
		"rh":      {"[str]", "Remove from head of queue. Optionally compare to expected value str", (*Console).cmdRemoveHead},
		"rhq":     {"", "Remove from head of queue without reporting value", (*Console).cmdRemoveHeadQuiet},
		"size":    {"[n]", "Compute queue size n times (default: n == 1)", (*Console).cmdSize},
		"reverse": {"", "Reverse queue", (*Console).cmdReverse},
		"sort":    {"", "Sort queue in ascending order", (*Console).cmdSort},
		"show":    {"", "Show queue contents", (*Console).cmdShow},
		"option":  {"[name [val]]", "Display or set options (fail, length, error, echo)", (*Console).cmdOption},
		"source":  {"file", "Read commands from source file", (*Console).cmdSource},
		"help":    {"", "Show documentation", (*Console).cmdHelp},
		"quit":    {"", "Exit program", (*Console).cmdQuit},
	}
}

// Console runs queue commands line by line and checks the queue after
// every step. It counts every failed check as an error.
type Console struct {
	cfg   HarnessConfig
	lg    *zap.Logger
	out   io.Writer
	alloc *pool.Allocator
	q     *queue.Queue

	errs  int
	quit  bool
	depth int
}

func NewConsole(cfg HarnessConfig, lg *zap.Logger, out io.Writer) *Console {
	setDefaults(&cfg)
	return &Console{
		cfg:   cfg,
		lg:    lg,
		out:   out,
		alloc: pool.NewAllocator(cfg.FailPercent, cfg.Seed),
	}
}

// Errors returns the number of errors reported so far.
func (c *Console) Errors() int {
	return c.errs
}

// Run executes commands from r until EOF, quit or the error limit.
func (c *Console) Run(r io.Reader) error {
	s := bufio.NewScanner(r)
	for s.Scan() && !c.quit {
		line := strings.TrimSpace(s.Text())
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		if c.cfg.Echo {
			c.printf("cmd> %s\n", line)
		}
		if err := c.exec(strings.Fields(line)); err != nil {
			return err
		}
	}
	if err := s.Err(); err != nil {
		return fmt.Errorf("failed to read commands, %w", err)
	}
	return nil
}

func (c *Console) exec(args []string) error {
	name := args[0]
	cmd, ok := commands[name]
	if !ok {
		c.report(name, fmt.Errorf("unknown command '%s'", name))
	} else if err := cmd.f(c, args[1:]); err != nil {
		if errors.Is(err, errTooManyErrors) {
			return err
		}
		c.report(name, err)
	}

	if c.cfg.ErrorLimit > 0 && c.errs >= c.cfg.ErrorLimit {
		return fmt.Errorf("%w, %d errors", errTooManyErrors, c.errs)
	}
	return nil
}

func (c *Console) report(cmd string, err error) {
	c.errs++
	c.printf("ERROR: %v\n", err)
	c.lg.Error("command failed", zap.String("cmd", cmd), zap.Error(err))
}

func (c *Console) printf(format string, a ...any) {
	fmt.Fprintf(c.out, format, a...)
}

// Close frees the current queue and reports leaked allocations.
func (c *Console) Close() error {
	c.freeQueue()
	if n := c.alloc.Live(); n > 0 {
		c.report("quit", fmt.Errorf("%d blocks still allocated", n))
		return fmt.Errorf("%d blocks leaked", n)
	}
	c.printf("Freeing queue\n")
	return nil
}

func (c *Console) freeQueue() {
	if c.q != nil {
		c.q.Free()
		c.q = nil
	}
}

// allocFailed reports whether a refused allocation is expected.
func (c *Console) allocFailed(op string) error {
	if c.alloc.FailPercent() > 0 {
		c.lg.Debug("allocation refused", zap.String("op", op))
		c.printf("Allocation refused during %s\n", op)
		return nil
	}
	return fmt.Errorf("%s failed", op)
}

func (c *Console) check() error {
	return c.q.Check()
}

func (c *Console) show() {
	c.printf("q = %s\n", c.q)
}

func parseRepeat(args []string, i int) (int, error) {
	if len(args) <= i {
		return 1, nil
	}
	n, err := strconv.Atoi(args[i])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid number '%s'", args[i])
	}
	return n, nil
}

func (c *Console) cmdNew(args []string) error {
	c.freeQueue()
	if n := c.alloc.Live(); n > 0 {
		return fmt.Errorf("%d blocks still allocated after free", n)
	}
	c.q = queue.NewWithAllocator(c.alloc)
	if c.q == nil {
		return c.allocFailed("new")
	}
	c.show()
	return nil
}

func (c *Console) cmdFree(args []string) error {
	if c.q == nil {
		c.printf("Warning: Calling free on null queue\n")
	}
	c.freeQueue()
	c.show()
	if n := c.alloc.Live(); n > 0 {
		return fmt.Errorf("%d blocks still allocated after free", n)
	}
	return nil
}

func (c *Console) insert(name string, args []string, f func(*queue.Queue, string) bool) error {
	if len(args) == 0 {
		return fmt.Errorf("%s needs a string argument", name)
	}
	n, err := parseRepeat(args, 1)
	if err != nil {
		return err
	}
	if c.q == nil {
		c.printf("Warning: Calling %s on null queue\n", name)
	}

	for i := 0; i < n; i++ {
		before := c.q.Size()
		ok := f(c.q, args[0])
		switch {
		case c.q == nil:
			if ok {
				return fmt.Errorf("%s succeeded on null queue", name)
			}
		case !ok:
			if c.q.Size() != before {
				return fmt.Errorf("failed %s changed size from %d to %d", name, before, c.q.Size())
			}
			if err := c.allocFailed(name); err != nil {
				return err
			}
		case c.q.Size() != before+1:
			return fmt.Errorf("%s changed size from %d to %d", name, before, c.q.Size())
		}
		if err := c.check(); err != nil {
			return err
		}
	}
	c.show()
	return nil
}

func (c *Console) cmdInsertHead(args []string) error {
	return c.insert("ih", args, (*queue.Queue).InsertHead)
}

func (c *Console) cmdInsertTail(args []string) error {
	return c.insert("it", args, (*queue.Queue).InsertTail)
}

func (c *Console) remove(buf []byte) (bool, error) {
	if c.q == nil {
		c.printf("Warning: Calling remove head on null queue\n")
	}
	before := c.q.Size()
	ok := c.q.RemoveHead(buf)
	switch {
	case !ok && before > 0:
		return false, errors.New("removal from non-empty queue failed")
	case !ok:
		c.printf("Removal from empty queue\n")
	case c.q.Size() != before-1:
		return false, fmt.Errorf("removal changed size from %d to %d", before, c.q.Size())
	}
	return ok, c.check()
}

func (c *Console) cmdRemoveHead(args []string) error {
	buf := make([]byte, c.cfg.StringLength+1)
	ok, err := c.remove(buf)
	if err != nil || !ok {
		return err
	}

	got := buf
	if i := slices.Index(buf, 0); i >= 0 {
		got = buf[:i]
	}
	c.printf("Removed %s from queue\n", got)
	if len(args) > 0 {
		want := args[0]
		if len(want) > c.cfg.StringLength {
			want = want[:c.cfg.StringLength]
		}
		if string(got) != want {
			return fmt.Errorf("removed value %s does not match expected value %s", got, want)
		}
	}
	c.show()
	return nil
}

func (c *Console) cmdRemoveHeadQuiet(args []string) error {
	ok, err := c.remove(nil)
	if err != nil {
		return err
	}
	if ok {
		c.show()
	}
	return nil
}

func (c *Console) cmdSize(args []string) error {
	n, err := parseRepeat(args, 0)
	if err != nil {
		return err
	}
	if c.q == nil {
		c.printf("Warning: Calling size on null queue\n")
	}

	walked := 0
	for range c.q.All() {
		walked++
	}
	var size int
	for i := 0; i < n; i++ {
		size = c.q.Size()
	}
	if size != walked {
		return fmt.Errorf("computed queue size as %d, but correct value is %d", size, walked)
	}
	c.printf("Queue size = %d\n", size)
	return nil
}

func (c *Console) cmdReverse(args []string) error {
	if c.q == nil {
		c.printf("Warning: Calling reverse on null queue\n")
	}
	want := slices.Collect(c.q.All())
	slices.Reverse(want)

	c.q.Reverse()
	if err := c.check(); err != nil {
		return err
	}
	if got := slices.Collect(c.q.All()); !slices.Equal(got, want) {
		return fmt.Errorf("reversed queue is %v, want %v", got, want)
	}
	c.show()
	return nil
}

func (c *Console) cmdSort(args []string) error {
	if c.q == nil {
		c.printf("Warning: Calling sort on null queue\n")
	}
	want := slices.Collect(c.q.All())
	slices.Sort(want)

	c.q.Sort()
	if err := c.check(); err != nil {
		return err
	}
	if got := slices.Collect(c.q.All()); !slices.Equal(got, want) {
		return fmt.Errorf("queue not sorted in ascending order: %v", got)
	}
	c.show()
	return nil
}

func (c *Console) cmdShow(args []string) error {
	c.show()
	return nil
}

func (c *Console) cmdOption(args []string) error {
	if len(args) == 0 {
		c.printf("fail\t%d\tPercentage of allocations that fail\n", c.alloc.FailPercent())
		c.printf("length\t%d\tMaximum length of removed strings\n", c.cfg.StringLength)
		c.printf("error\t%d\tNumber of errors until exit\n", c.cfg.ErrorLimit)
		c.printf("echo\t%t\tEcho commands\n", c.cfg.Echo)
		return nil
	}
	if len(args) != 2 {
		return errors.New("option needs a name and a value")
	}

	name, val := args[0], args[1]
	if name == "echo" {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid value '%s' for option echo", val)
		}
		c.cfg.Echo = b
		return nil
	}

	v, err := strconv.Atoi(val)
	if err != nil {
		return fmt.Errorf("invalid value '%s' for option %s", val, name)
	}
	switch name {
	case "fail":
		c.alloc.SetFailPercent(v)
	case "length":
		if v < 1 {
			return fmt.Errorf("invalid value '%s' for option length", val)
		}
		c.cfg.StringLength = v
	case "error":
		c.cfg.ErrorLimit = max(v, 0)
	default:
		return fmt.Errorf("unknown option '%s'", name)
	}
	return nil
}

func (c *Console) cmdSource(args []string) error {
	if len(args) != 1 {
		return errors.New("source needs a file name")
	}
	if c.depth >= maxSourceDepth {
		return fmt.Errorf("maximum source depth reached at %s", args[0])
	}
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open source file, %w", err)
	}
	defer f.Close()

	c.lg.Info("reading source file", zap.String("file", args[0]))
	c.depth++
	defer func() { c.depth-- }()
	return c.Run(f)
}

func (c *Console) cmdHelp(args []string) error {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		cmd := commands[name]
		c.printf("\t%s\t%s\t| %s\n", name, cmd.args, cmd.help)
	}
	return nil
}

func (c *Console) cmdQuit(args []string) error {
	c.quit = true
	return nil
}
