package generator

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"strings"
)

// LinkSource supplies the site's own URLs. It is asked again for every subsection.
type LinkSource interface {
	URLs(ctx context.Context) []string
}

// Assembler writes the post body section by section.
type Assembler struct {
	agent   *Agent
	images  ImageGenerator
	links   LinkSource
	logger  *log.Logger
	verbose bool
}

func NewAssembler(agent *Agent, images ImageGenerator, links LinkSource, verbose bool, logger *log.Logger) (*Assembler, error) {
	if agent == nil {
		return nil, errors.New("agent is required")
	}
	if images == nil {
		return nil, errors.New("image generator is required")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Assembler{agent: agent, images: images, links: links, logger: logger, verbose: verbose}, nil
}

func (a *Assembler) infof(format string, args ...interface{}) {
	if !a.verbose {
		return
	}
	a.logger.Printf("[INFO] "+format, args...)
}

// Assemble generates the cover image from the title, then every section intro and
// subsection body in outline order. Any generation error aborts the whole draft.
func (a *Assembler) Assemble(ctx context.Context, keyword, title string, sections []Section) (Draft, error) {
	img, err := a.images.Generate(ctx, title)
	if err != nil {
		return Draft{}, fmt.Errorf("generate image: %w", err)
	}
	a.infof("Generated cover image %s (%d bytes)", img.Path, len(img.Data))

	var b strings.Builder
	for _, section := range sections {
		a.logger.Printf("[generator] working on section: %s", section.Title)
		intro, err := a.agent.Generate(ctx, SectionIntroPrompt(keyword, section))
		if err != nil {
			return Draft{}, err
		}
		fmt.Fprintf(&b, "<h2>%s</h2>\n<p>%s</p>\n", html.EscapeString(section.Title), StripFence(intro))

		for _, sub := range section.Subsections {
			a.logger.Printf("[generator] \t - working on sub-section: %s", sub)
			var urls []string
			if a.links != nil {
				urls = a.links.URLs(ctx)
			}
			raw, err := a.agent.Generate(ctx, SubsectionPrompt(keyword, title, section.Title, sub, urls))
			if err != nil {
				return Draft{}, err
			}
			body, err := NormalizeHTML(raw)
			if err != nil {
				return Draft{}, fmt.Errorf("render subsection %q: %w", sub, err)
			}
			fmt.Fprintf(&b, "<h3>%s</h3>\n%s\n", html.EscapeString(sub), body)
		}
		b.WriteString("\n")
	}

	return Draft{Title: title, HTML: b.String(), Image: img}, nil
}
