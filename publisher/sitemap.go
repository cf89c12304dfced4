package publisher

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

// SitemapURLs collects every <loc> from the configured sitemaps. A sitemap that
// cannot be fetched or parsed is logged and skipped; its error is kept in Err.
func (p *Publisher) SitemapURLs(ctx context.Context) Listing[string] {
	var (
		urls []string
		errs []error
	)
	for _, sitemap := range p.cfg.Sitemaps {
		locs, err := p.fetchSitemap(ctx, sitemap)
		if err != nil {
			p.logger.Printf("[publisher] sitemap %s: %v", sitemap, err)
			errs = append(errs, fmt.Errorf("%s: %w", sitemap, err))
			continue
		}
		urls = append(urls, locs...)
	}
	return Listing[string]{Items: urls, Err: errors.Join(errs...)}
}

// URLs returns the site's URLs for internal linking. It refetches on every call.
func (p *Publisher) URLs(ctx context.Context) []string {
	return p.SitemapURLs(ctx).Items
}

func (p *Publisher) fetchSitemap(ctx context.Context, sitemapURL string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", sitemapURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readStatusError("fetch sitemap", resp)
	}
	return parseSitemap(resp.Body)
}

// parseSitemap returns the text of every sitemap-namespaced <loc>, at any depth,
// so both url sets and sitemap indexes work.
func parseSitemap(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)
	var locs []string
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return locs, nil
		}
		if err != nil {
			return nil, fmt.Errorf("xml parse error: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Space != sitemapNS || start.Name.Local != "loc" {
			continue
		}
		var loc string
		if err := dec.DecodeElement(&loc, &start); err != nil {
			return nil, fmt.Errorf("xml parse error: %w", err)
		}
		if loc = strings.TrimSpace(loc); loc != "" {
			locs = append(locs, loc)
		}
	}
}
