package generator

import (
	"context"
	"errors"
	"log"
	"strings"
)

// Agent 负责调用模型并累计 token 用量。
type Agent struct {
	llm    LLMClient
	usage  *Usage
	logger *log.Logger
}

// NewAgent wires a model client to the run's usage counter.
func NewAgent(llm LLMClient, usage *Usage, logger *log.Logger) (*Agent, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	if usage == nil {
		return nil, errors.New("usage counter is required")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Agent{llm: llm, usage: usage, logger: logger}, nil
}

// Generate performs exactly one completion call. Failures are logged and returned
// unchanged; there is no retry.
func (a *Agent) Generate(ctx context.Context, prompt Prompt) (string, error) {
	if prompt.System == "" {
		prompt.System = SystemPrompt
	}
	out, err := a.llm.Complete(ctx, prompt)
	if err != nil {
		a.logger.Printf("[generator] error in generating response: %v", err)
		return "", err
	}
	a.usage.Add(out.TotalTokens)
	return out.Text, nil
}

// GenerateLine is Generate with surrounding whitespace removed, for one-line answers
// such as titles and category names.
func (a *Agent) GenerateLine(ctx context.Context, prompt Prompt) (string, error) {
	out, err := a.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
