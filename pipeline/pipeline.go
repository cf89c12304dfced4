package pipeline

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/ajhous44/BloggyBlogger/generator"
	"github.com/ajhous44/BloggyBlogger/publisher"
)

// ErrNoKeyword aborts a run started without a keyword.
var ErrNoKeyword = errors.New("no keyword provided")

// Site is the part of the CMS gateway a run needs.
type Site interface {
	ListPostTitles(ctx context.Context) publisher.Listing[string]
	ListCategories(ctx context.Context) publisher.Listing[publisher.Category]
	UploadImage(ctx context.Context, imagePath string) (int64, error)
	CreatePost(ctx context.Context, params publisher.PostParams) (publisher.Post, error)
}

// Options are the static settings of a pipeline.
type Options struct {
	RunsDir         string
	CostPer1KTokens float64
	TopicCategories []string
	Verbose         bool
	// Now defaults to time.Now; tests pin the date.
	Now func() time.Time
}

// Pipeline chains title, outline, content, artifacts and publishing.
type Pipeline struct {
	agent     *generator.Agent
	assembler *generator.Assembler
	site      Site
	approver  generator.Approver
	opts      Options
	logger    *log.Logger
}

func New(agent *generator.Agent, assembler *generator.Assembler, site Site, approver generator.Approver, opts Options, logger *log.Logger) (*Pipeline, error) {
	if agent == nil || assembler == nil {
		return nil, errors.New("agent and assembler are required")
	}
	if site == nil {
		return nil, errors.New("site gateway is required")
	}
	if approver == nil {
		return nil, errors.New("title approver is required")
	}
	if opts.RunsDir == "" {
		opts.RunsDir = publisher.DefaultRunsDir
	}
	if opts.CostPer1KTokens == 0 {
		opts.CostPer1KTokens = publisher.DefaultCostPer1K
	}
	if len(opts.TopicCategories) == 0 {
		opts.TopicCategories = publisher.DefaultTopicCategories
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Pipeline{
		agent:     agent,
		assembler: assembler,
		site:      site,
		approver:  approver,
		opts:      opts,
		logger:    logger,
	}, nil
}

func (p *Pipeline) infof(format string, args ...interface{}) {
	if !p.opts.Verbose {
		return
	}
	p.logger.Printf("[INFO] "+format, args...)
}

// Execute performs one run. It stops at the first fatal error; a failed publish is
// logged and does not fail the run.
func (p *Pipeline) Execute(ctx context.Context, run *Run) error {
	if run.Keyword == "" {
		p.logger.Printf("[pipeline] no keyword provided. Exiting...")
		return ErrNoKeyword
	}
	p.logger.Printf("[pipeline] run %s keyword=%q", run.ID, run.Keyword)

	existing := p.site.ListPostTitles(ctx)
	if existing.Degraded() {
		p.logger.Printf("[pipeline] continuing with %d existing titles: %v", len(existing.Items), existing.Err)
	}
	p.infof("Found %d existing post titles", len(existing.Items))

	now := p.opts.Now()
	titlePrompt := generator.BlogTitlePrompt(run.Keyword, existing.Items, p.opts.TopicCategories, now.Year())
	title, err := p.agent.ProposeTitle(ctx, titlePrompt, p.approver)
	if err != nil {
		return err
	}
	run.Title = title
	p.logger.Printf("[pipeline] new blog incoming!! %s", title)

	p.logger.Printf("[pipeline] generating the outline...")
	outline, err := p.agent.BuildOutline(ctx, title)
	if err != nil {
		var oerr *generator.OutlineError
		if errors.As(err, &oerr) {
			p.logger.Printf("[pipeline] error decoding blog outline response to JSON: %v", oerr.Err)
			p.logger.Printf("[pipeline] received: %s", oerr.Raw)
		}
		return err
	}
	run.Outline = outline
	p.infof("Blog outline generated with %d sections", len(outline.Sections))

	draft, err := p.assembler.Assemble(ctx, run.Keyword, title, outline.Sections)
	if err != nil {
		return err
	}

	dir, imgPath, err := SaveArtifacts(p.opts.RunsDir, now, run.ID, draft)
	if err != nil {
		return err
	}
	run.Dir = dir
	p.logger.Printf("[pipeline] saved artifacts to %s", dir)

	if err := p.publish(ctx, run, draft, imgPath); err != nil {
		return err
	}

	p.logger.Printf("[pipeline] created blog with %d tokens. Estimated cost in USD is $%.4f",
		run.Usage.Total(), run.Usage.EstimatedCost(p.opts.CostPer1KTokens))
	if err := saveSummary(dir, run.summary(p.opts.CostPer1KTokens)); err != nil {
		p.logger.Printf("[pipeline] write run summary: %v", err)
	}
	return nil
}
