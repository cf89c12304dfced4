package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ajhous44/BloggyBlogger/generator"
	"github.com/ajhous44/BloggyBlogger/pipeline"
	"github.com/ajhous44/BloggyBlogger/publisher"
)

var verbose bool

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	configPath := flag.String("config", "config/config.json", "path to config.json (optional when .env provides credentials)")
	flag.BoolVar(&verbose, "v", false, "enable info logs")
	flag.Parse()

	cfg, err := publisher.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	stdin := bufio.NewReader(os.Stdin)
	fmt.Print("Enter your keyword: ")
	line, _ := stdin.ReadString('\n')
	keyword := strings.TrimSpace(line)
	if keyword == "" {
		log.Printf("[cli] no keyword provided. Exiting...")
		os.Exit(1)
	}

	run := pipeline.NewRun(keyword, cfg.PostToSocials)
	p, err := buildPipeline(cfg, run, stdin)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx := context.Background()
	if err := p.Execute(ctx, run); err != nil {
		log.Printf("[cli] run %s failed: %v", run.ID, err)
		os.Exit(1)
	}
	log.Printf("[cli] run %s done dir=%s", run.ID, run.Dir)
}

func buildPipeline(cfg publisher.Config, run *pipeline.Run, stdin *bufio.Reader) (*pipeline.Pipeline, error) {
	httpClient := &http.Client{Timeout: 120 * time.Second}
	logger := log.Default()

	llm, err := buildLLM(cfg, httpClient)
	if err != nil {
		return nil, err
	}
	agent, err := generator.NewAgent(llm, run.Usage, logger)
	if err != nil {
		return nil, err
	}
	images, err := generator.NewImageGenerator(generator.ImageSettings{
		Backend: cfg.Image.Backend,
		APIKey:  cfg.Image.APIKey,
		BaseURL: cfg.Image.BaseURL,
	}, agent, httpClient)
	if err != nil {
		return nil, err
	}
	site, err := publisher.New(cfg.WordPress, httpClient, verbose, logger)
	if err != nil {
		return nil, err
	}
	assembler, err := generator.NewAssembler(agent, images, site, verbose, logger)
	if err != nil {
		return nil, err
	}
	approver := generator.NewConsoleApprover(stdin, os.Stdout, logger)

	return pipeline.New(agent, assembler, site, approver, pipeline.Options{
		RunsDir:         cfg.RunsDir,
		CostPer1KTokens: cfg.CostPer1KTokens,
		TopicCategories: cfg.TopicCategories,
		Verbose:         verbose,
	}, logger)
}

func buildLLM(cfg publisher.Config, httpClient *http.Client) (generator.LLMClient, error) {
	if cfg.LLM == nil || cfg.LLM.Provider == "" {
		return nil, fmt.Errorf("llm config missing; please set llm.provider/model/api_key in config")
	}
	switch cfg.LLM.Provider {
	case "openai":
		return generator.NewOpenAILLMFromConfig(&generator.LLMSettings{
			Provider: cfg.LLM.Provider,
			Model:    cfg.LLM.Model,
			APIKey:   cfg.LLM.APIKey,
			BaseURL:  cfg.LLM.BaseURL,
		}, httpClient)
	case "deepseek":
		// OpenAI-compatible endpoint; base_url is mandatory.
		if cfg.LLM.BaseURL == "" {
			return nil, fmt.Errorf("llm provider deepseek requires base_url (OpenAI-compatible endpoint)")
		}
		return generator.NewOpenAILLMFromConfig(&generator.LLMSettings{
			Provider: cfg.LLM.Provider,
			Model:    cfg.LLM.Model,
			APIKey:   cfg.LLM.APIKey,
			BaseURL:  cfg.LLM.BaseURL,
		}, httpClient)
	default:
		return nil, fmt.Errorf("llm provider %s not supported", cfg.LLM.Provider)
	}
}
