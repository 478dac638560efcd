package prompt

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/pkg/errors"
)

// EndOfText is the line terminating a multi-line answer.
const EndOfText = ":END"

var ErrInputClosed = errors.New("input closed")

var (
	labelColor  = color.New(color.FgHiCyan, color.Bold)
	noticeColor = color.New(color.FgYellow)
	errorColor  = color.New(color.FgHiRed, color.Bold)
)

// Prompter asks questions on a line oriented console.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		in:  bufio.NewReader(in),
		out: out,
	}
}

func (p *Prompter) Printf(format string, args ...any) {
	fmt.Fprintf(p.out, format, args...)
}

func (p *Prompter) Notice(format string, args ...any) {
	noticeColor.Fprintf(p.out, format+"\n", args...)
}

func (p *Prompter) Error(format string, args ...any) {
	errorColor.Fprintf(p.out, format+"\n", args...)
}

func (p *Prompter) label(label string, def string) {
	if def != "" {
		labelColor.Fprintf(p.out, "%s [%s]: ", label, def)
		return
	}

	labelColor.Fprintf(p.out, "%s: ", label)
}

// readLine returns the next line without its line terminator.
// A last line without terminator is returned as is, ErrInputClosed is
// returned once the input is exhausted.
func (p *Prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			if line == "" {
				return "", errors.WithStack(ErrInputClosed)
			}
		} else {
			return "", errors.WithStack(err)
		}
	}

	return strings.TrimRight(line, "\r\n"), nil
}

// Ask returns the trimmed answer, or def when the answer is blank.
func (p *Prompter) Ask(label string, def string) (string, error) {
	p.label(label, def)

	answer, err := p.readLine()
	if err != nil {
		return "", err
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return def, nil
	}

	return answer, nil
}

// AskRequired asks again until a non blank answer is given.
func (p *Prompter) AskRequired(label string) (string, error) {
	for {
		answer, err := p.Ask(label, "")
		if err != nil {
			return "", err
		}

		if answer != "" {
			return answer, nil
		}

		p.Error("This input is required")
	}
}

// AskMultiline reads lines until EndOfText or the end of the input.
func (p *Prompter) AskMultiline(label string) (string, error) {
	labelColor.Fprintf(p.out, "%s (end with a line containing only %s):\n", label, EndOfText)

	lines := make([]string, 0)

	for {
		line, err := p.readLine()
		if err != nil {
			if errors.Is(err, ErrInputClosed) {
				break
			}

			return "", err
		}

		if strings.TrimSpace(line) == EndOfText {
			break
		}

		lines = append(lines, line)
	}

	return strings.Join(lines, "\n"), nil
}

// Confirm asks a yes/no question. A blank answer selects def.
func (p *Prompter) Confirm(label string, def bool) (bool, error) {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}

	for {
		labelColor.Fprintf(p.out, "%s (%s): ", label, hint)

		answer, err := p.readLine()
		if err != nil {
			return false, err
		}

		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "":
			return def, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}

		p.Error("Please answer y or n")
	}
}

// Choose prints a numbered menu and returns the index of the selected
// choice. A blank answer selects def.
func (p *Prompter) Choose(label string, choices []string, def int) (int, error) {
	for i, choice := range choices {
		p.Printf("  %d. %s\n", i+1, choice)
	}

	for {
		answer, err := p.Ask(label, strconv.Itoa(def+1))
		if err != nil {
			return 0, err
		}

		index, err := strconv.Atoi(answer)
		if err == nil && index >= 1 && index <= len(choices) {
			return index - 1, nil
		}

		p.Error("Please enter a number between 1 and %d", len(choices))
	}
}

// AskFloat falls back to def, with a notice, when the answer is not a
// number within [min, max].
func (p *Prompter) AskFloat(label string, def, min, max float64) (float64, error) {
	answer, err := p.Ask(label, strconv.FormatFloat(def, 'f', -1, 64))
	if err != nil {
		return 0, err
	}

	value, err := strconv.ParseFloat(answer, 64)
	if err != nil || value < min || value > max {
		p.Notice("Invalid value '%s', using default %v", answer, def)
		return def, nil
	}

	return value, nil
}

// AskInt falls back to def, with a notice, when the answer is not an
// integer greater or equal to min.
func (p *Prompter) AskInt(label string, def, min int) (int, error) {
	answer, err := p.Ask(label, strconv.Itoa(def))
	if err != nil {
		return 0, err
	}

	value, err := strconv.Atoi(answer)
	if err != nil || value < min {
		p.Notice("Invalid value '%s', using default %d", answer, def)
		return def, nil
	}

	return value, nil
}

// AskIDs reads a comma separated list of positive ids. A blank answer
// returns nil, an invalid list is asked again.
func (p *Prompter) AskIDs(label string) ([]int, error) {
	for {
		answer, err := p.Ask(label+" (comma separated ids, blank to skip)", "")
		if err != nil {
			return nil, err
		}

		if answer == "" {
			return nil, nil
		}

		ids, err := ParseIDs(answer)
		if err == nil {
			return ids, nil
		}

		p.Error("%s", err.Error())
	}
}

// ParseIDs parses a comma separated list of positive ids.
// Empty items are ignored.
func ParseIDs(raw string) ([]int, error) {
	ids := make([]int, 0)

	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}

		id, err := strconv.Atoi(item)
		if err != nil || id <= 0 {
			return nil, errors.Errorf("invalid id '%s'", item)
		}

		ids = append(ids, id)
	}

	if len(ids) == 0 {
		return nil, nil
	}

	return ids, nil
}
