package pipeline

import (
	"context"
	"strings"

	"github.com/ajhous44/BloggyBlogger/generator"
	"github.com/ajhous44/BloggyBlogger/publisher"
)

// publish uploads the cover, classifies the post, generates SEO meta and creates
// the post. CMS failures are logged and end publishing quietly; only generation
// errors are returned. An uploaded image is left in place if a later step fails.
func (p *Pipeline) publish(ctx context.Context, run *Run, draft generator.Draft, imgPath string) error {
	mediaID, err := p.site.UploadImage(ctx, imgPath)
	if err != nil {
		p.logger.Printf("[pipeline] failed to upload image: %v", err)
		return nil
	}

	cats := p.site.ListCategories(ctx)
	names := make([]string, len(cats.Items))
	for i, c := range cats.Items {
		names[i] = c.Name
	}
	categoryName, err := p.agent.GenerateLine(ctx, generator.CategoryNamePrompt(draft.Title, names))
	if err != nil {
		return err
	}
	var categoryID int64
	if cat, ok := publisher.FindCategory(cats.Items, categoryName); ok {
		categoryID = cat.ID
	} else {
		p.logger.Printf("[pipeline] no category matches %q; posting uncategorized", categoryName)
	}

	metaDescription, err := p.agent.GenerateLine(ctx, generator.MetaDescriptionPrompt(draft.Title))
	if err != nil {
		return err
	}

	post, err := p.site.CreatePost(ctx, publisher.PostParams{
		Title:           draft.Title,
		Content:         draft.HTML,
		FeaturedMedia:   mediaID,
		CategoryID:      categoryID,
		MetaTitle:       draft.Title,
		MetaDescription: metaDescription,
	})
	if err != nil {
		p.logger.Printf("[pipeline] failed to publish post: %v", err)
		return nil
	}
	run.Post = &post
	p.logger.Printf("[pipeline] post published with ID %d. View it at: %s", post.ID, post.Link)

	if !run.PostToSocials {
		p.logger.Printf("[pipeline] did not post to socials as post_to_socials is %v", run.PostToSocials)
		return nil
	}
	return p.socialPosts(ctx, run, post)
}

// socialPosts generates a long and a short (140 character) promotion. Sending them
// to a social network is not implemented; they are logged and kept on the run.
func (p *Pipeline) socialPosts(ctx context.Context, run *Run, post publisher.Post) error {
	for _, short := range []bool{false, true} {
		text, err := p.agent.GenerateLine(ctx, generator.SocialPostPrompt(strings.ReplaceAll(run.Title, `"`, ""), post.Link, short))
		if err != nil {
			return err
		}
		run.SocialPosts = append(run.SocialPosts, text)
		p.logger.Printf("[pipeline] social post (short=%v), not sent:\n%s", short, text)
	}
	return nil
}
