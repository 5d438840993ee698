// Package repl is an interactive prompt for submitting tickets from a terminal.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/steveyegge/triage/internal/types"
)

const (
	namePrompt   = "Nombre del empleado: "
	ticketPrompt = "ticket> "
)

// errExit signals the loop to stop
var errExit = errors.New("exit")

// TicketProcessor submits tickets and lists destinations
type TicketProcessor interface {
	Process(ctx context.Context, ticket, requester string) (types.Result, error)
	Departments() *types.DepartmentTable
}

// lineReader is the part of *readline.Instance the loop uses
type lineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
}

// REPL represents the interactive shell
type REPL struct {
	processor TicketProcessor
	rl        lineReader
	ctx       context.Context
	requester string
	out       io.Writer
	commands  map[string]CommandHandler
}

// CommandHandler handles a specific command
type CommandHandler func(args []string) error

// Config holds REPL configuration
type Config struct {
	Processor TicketProcessor
	Requester string    // Asked for on start when empty
	Out       io.Writer // Default: os.Stdout
}

// New creates a new REPL instance
func New(cfg *Config) (*REPL, error) {
	if cfg == nil || cfg.Processor == nil {
		return nil, fmt.Errorf("processor is required")
	}

	out := cfg.Out
	if out == nil {
		out = os.Stdout
	}

	r := &REPL{
		processor: cfg.Processor,
		requester: strings.TrimSpace(cfg.Requester),
		out:       out,
		ctx:       context.Background(),
		commands:  make(map[string]CommandHandler),
	}

	// Register built-in commands
	r.registerCommands()

	return r, nil
}

// Run starts the REPL loop
func (r *REPL) Run(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            ticketPrompt,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
		Stdout:            r.out,
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	return r.run(ctx, rl)
}

// run drives the loop over rl until exit, EOF or ctx is done
func (r *REPL) run(ctx context.Context, rl lineReader) error {
	r.ctx = ctx
	r.rl = rl

	r.printWelcome()

	if r.requester == "" {
		name, err := r.askName()
		if err == io.EOF {
			// Ctrl+D at the name prompt
			fmt.Fprintln(r.out, "\nHasta luego!")
			return nil
		}
		if err != nil {
			return err
		}
		r.requester = name
	}
	r.updatePrompt()

	// Main loop
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				// Ctrl+C - just show prompt again
				continue
			} else if err == io.EOF {
				// Ctrl+D - exit
				fmt.Fprintln(r.out, "\nHasta luego!")
				return nil
			}
			return err
		}

		if err := r.processInput(line); err != nil {
			if errors.Is(err, errExit) {
				return nil
			}
			red := color.New(color.FgRed).SprintFunc()
			fmt.Fprintf(r.out, "%s %v\n", red("Error:"), err)
		}
	}
}

// askName reads lines until a usable requester name is entered
func (r *REPL) askName() (string, error) {
	r.rl.SetPrompt(namePrompt)
	for {
		line, err := r.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			if err == io.EOF {
				return "", io.EOF
			}
			return "", err
		}
		name, err := validateName(line)
		if err != nil {
			yellow := color.New(color.FgYellow).SprintFunc()
			fmt.Fprintf(r.out, "%s %v\n", yellow("Note:"), err)
			continue
		}
		return name, nil
	}
}

func (r *REPL) updatePrompt() {
	if r.rl == nil {
		return
	}
	cyan := color.New(color.FgCyan).SprintFunc()
	r.rl.SetPrompt(cyan(r.requester + " " + ticketPrompt))
}

// processInput runs a command or submits the line as a ticket
func (r *REPL) processInput(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	if strings.HasPrefix(line, "/") || line == "exit" || line == "quit" {
		parts := strings.Fields(strings.TrimPrefix(line, "/"))
		if len(parts) == 0 {
			return nil
		}
		if handler, ok := r.commands[parts[0]]; ok {
			return handler(parts[1:])
		}
		return fmt.Errorf("unknown command %q (type /help)", parts[0])
	}

	return r.submit(line)
}

// submit sends one ticket and prints the outcome
func (r *REPL) submit(ticket string) error {
	if r.requester == "" {
		return fmt.Errorf("set your name first with /name <nombre>")
	}

	result, err := r.processor.Process(r.ctx, ticket, r.requester)
	if err != nil {
		return err
	}

	green := color.New(color.FgGreen).SprintFunc()
	if result.Duplicate {
		green = color.New(color.FgYellow).SprintFunc()
	}
	fmt.Fprintf(r.out, "\n%s %s\n", green("✓ Resultado:"), result.Message)
	fmt.Fprintf(r.out, "Departamento: %s\n\n", result.Department)
	return nil
}

// registerCommands registers all built-in commands
func (r *REPL) registerCommands() {
	r.commands["help"] = r.cmdHelp
	r.commands["?"] = r.cmdHelp
	r.commands["name"] = r.cmdName
	r.commands["departments"] = r.cmdDepartments
	r.commands["exit"] = r.cmdExit
	r.commands["quit"] = r.cmdExit
}

// printWelcome prints the welcome message
func (r *REPL) printWelcome() {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	fmt.Fprintf(r.out, "\n%s\n", cyan("Tickets internos"))
	fmt.Fprintln(r.out, "Each line you type is submitted as a ticket.")
	fmt.Fprintln(r.out, "Type '/help' for available commands, 'exit' to quit")
	fmt.Fprintln(r.out)
}

// cmdHelp shows help information
func (r *REPL) cmdHelp(args []string) error {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	fmt.Fprintf(r.out, "\n%s\n\n", cyan("Available Commands:"))

	commands := []struct {
		name string
		desc string
	}{
		{"/help, /?", "Show this help message"},
		{"/name <nombre>", "Change the requester name"},
		{"/departments", "List departments tickets are routed to"},
		{"exit, quit", "Exit the REPL"},
	}
	for _, cmd := range commands {
		fmt.Fprintf(r.out, "  %s  %s\n", green(cmd.name), cmd.desc)
	}
	fmt.Fprintln(r.out)
	return nil
}

// cmdName changes the requester for following tickets
func (r *REPL) cmdName(args []string) error {
	name, err := validateName(strings.Join(args, " "))
	if err != nil {
		return err
	}
	r.requester = name
	r.updatePrompt()
	fmt.Fprintf(r.out, "Requester set to %s\n", name)
	return nil
}

// cmdDepartments lists the routing table
func (r *REPL) cmdDepartments(args []string) error {
	for _, dept := range r.processor.Departments().Departments() {
		fmt.Fprintf(r.out, "  %-18s %s\n", dept.Label, dept.File)
	}
	return nil
}

// cmdExit exits the REPL
func (r *REPL) cmdExit(args []string) error {
	green := color.New(color.FgGreen).SprintFunc()
	fmt.Fprintf(r.out, "\n%s Hasta luego!\n", green("✓"))
	return errExit
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("name cannot be empty")
	}
	if strings.ContainsAny(name, ",[]") {
		return "", fmt.Errorf("name cannot contain commas or brackets")
	}
	return name, nil
}
