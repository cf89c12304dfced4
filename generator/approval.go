package generator

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
)

// TitleState is the position of a proposed title in the approval loop.
type TitleState int

const (
	TitleProposed TitleState = iota
	TitleApproved
	TitleRejected
)

func (s TitleState) String() string {
	switch s {
	case TitleProposed:
		return "proposed"
	case TitleApproved:
		return "approved"
	case TitleRejected:
		return "rejected"
	default:
		return fmt.Sprintf("TitleState(%d)", int(s))
	}
}

// Approver decides on a proposed title. It returns TitleApproved or TitleRejected.
type Approver interface {
	Review(ctx context.Context, title string) (TitleState, error)
}

// ApproverFunc adapts a plain function to Approver.
type ApproverFunc func(ctx context.Context, title string) (TitleState, error)

func (f ApproverFunc) Review(ctx context.Context, title string) (TitleState, error) {
	return f(ctx, title)
}

// ConsoleApprover asks an operator on a terminal. Only a literal "1" approves and a
// literal "2" rejects; anything else re-prompts.
type ConsoleApprover struct {
	In     *bufio.Reader
	Out    io.Writer
	Logger *log.Logger
}

func NewConsoleApprover(in *bufio.Reader, out io.Writer, logger *log.Logger) *ConsoleApprover {
	if logger == nil {
		logger = log.Default()
	}
	return &ConsoleApprover{In: in, Out: out, Logger: logger}
}

func (c *ConsoleApprover) Review(ctx context.Context, title string) (TitleState, error) {
	for {
		if err := ctx.Err(); err != nil {
			return TitleProposed, err
		}
		fmt.Fprintf(c.Out, "\n ### INPUT REQUIRED: ### \n\n\tProposed blog title: %s\n\tProceed? 1 Yes / 2 No: ", title)
		line, err := c.In.ReadString('\n')
		answer := strings.TrimRight(line, "\r\n")
		switch {
		case answer == "1":
			return TitleApproved, nil
		case answer == "2":
			return TitleRejected, nil
		case err != nil:
			if errors.Is(err, io.EOF) {
				return TitleProposed, errors.New("title approval: input closed before an answer")
			}
			return TitleProposed, err
		default:
			c.Logger.Printf("Invalid choice. Please enter 1 for Yes or 2 for No.")
		}
	}
}

// ProposeTitle keeps requesting titles until the approver accepts one. A rejection
// simply asks the model again with the same prompt.
func (a *Agent) ProposeTitle(ctx context.Context, prompt Prompt, approver Approver) (string, error) {
	if approver == nil {
		return "", errors.New("title approver is required")
	}
	for {
		title, err := a.GenerateLine(ctx, prompt)
		if err != nil {
			return "", err
		}
		state, err := approver.Review(ctx, title)
		if err != nil {
			return "", err
		}
		switch state {
		case TitleApproved:
			return title, nil
		case TitleRejected:
			continue
		default:
			return "", fmt.Errorf("title approval: unexpected state %s", state)
		}
	}
}
