package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	categoriesPath = "/wp-json/wp/v2/categories"
	postsPath      = "/wp-json/wp/v2/posts"
	mediaPath      = "/wp-json/wp/v2/media"

	pageSize          = 100
	totalPagesHeader  = "X-WP-TotalPages"
	uncategorizedName = "uncategorized"
)

// StatusError is a CMS answer with an unexpected HTTP status.
type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %d - %s", e.Op, e.Status, e.Body)
}

// Listing is the result of a best-effort read. Items holds whatever was gathered;
// Err is set when the read was cut short, so an empty listing with a nil Err means
// there really is nothing.
type Listing[T any] struct {
	Items []T
	Err   error
}

// Degraded reports whether Items may be incomplete.
func (l Listing[T]) Degraded() bool { return l.Err != nil }

// Category is a WordPress post category.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Post identifies a created post.
type Post struct {
	ID   int64  `json:"id"`
	Link string `json:"link"`
}

// PostParams describes the post to create. CategoryID 0 means no category.
type PostParams struct {
	Title           string
	Content         string
	FeaturedMedia   int64
	CategoryID      int64
	MetaTitle       string
	MetaDescription string
}

type postMeta struct {
	RankMathTitle       string `json:"rank_math_title"`
	RankMathDescription string `json:"rank_math_description"`
}

type postPayload struct {
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	Status        string   `json:"status"`
	FeaturedMedia int64    `json:"featured_media"`
	Categories    []int64  `json:"categories"`
	Meta          postMeta `json:"meta"`
}

type renderedTitle struct {
	Title struct {
		Rendered string `json:"rendered"`
	} `json:"title"`
}

type mediaResp struct {
	ID int64 `json:"id"`
}

// Publisher talks to the WordPress REST API of one site.
type Publisher struct {
	cfg     WordPressConfig
	client  *http.Client
	verbose bool
	logger  *log.Logger
}

// New creates a Publisher. No request is made until a method is called.
func New(cfg WordPressConfig, client *http.Client, verbose bool, logger *log.Logger) (*Publisher, error) {
	if cfg.URL == "" {
		return nil, errors.New("wordpress url is required")
	}
	if cfg.Username == "" || cfg.Password == "" {
		return nil, errors.New("wordpress username and password are required")
	}
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	if logger == nil {
		logger = log.Default()
	}
	cfg.URL = strings.TrimRight(cfg.URL, "/")
	return &Publisher{cfg: cfg, client: client, verbose: verbose, logger: logger}, nil
}

func (p *Publisher) infof(format string, args ...interface{}) {
	if !p.verbose {
		return
	}
	p.logger.Printf("[INFO] "+format, args...)
}

// ListPostTitles pages through existing posts and decodes their titles. A failing
// page ends the walk; titles from earlier pages are kept.
func (p *Publisher) ListPostTitles(ctx context.Context) Listing[string] {
	posts := getPages[renderedTitle](ctx, p, "blog posts", postsPath, url.Values{"_fields": {"title"}}, false)
	titles := make([]string, 0, len(posts.Items))
	for _, post := range posts.Items {
		titles = append(titles, decodeRendered(post.Title.Rendered))
	}
	return Listing[string]{Items: titles, Err: posts.Err}
}

// getPages walks a collection endpoint page by page until X-WP-TotalPages is
// reached. The header is read from the first page; a missing one means one page.
func getPages[T any](ctx context.Context, p *Publisher, what, path string, params url.Values, auth bool) Listing[T] {
	var items []T
	totalPages := -1
	for page := 1; ; page++ {
		batch, total, err := getPage[T](ctx, p, what, path, params, page, auth)
		if err != nil {
			p.logger.Printf("[publisher] failed to retrieve %s on page %d: %v", what, page, err)
			return Listing[T]{Items: items, Err: err}
		}
		items = append(items, batch...)
		if totalPages < 0 {
			totalPages = total
		}
		if page >= totalPages {
			return Listing[T]{Items: items}
		}
	}
}

func getPage[T any](ctx context.Context, p *Publisher, what, path string, params url.Values, page int, auth bool) ([]T, int, error) {
	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("per_page", strconv.Itoa(pageSize))
	q.Set("page", strconv.Itoa(page))

	req, err := http.NewRequestWithContext(ctx, "GET", p.cfg.URL+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, 0, err
	}
	if auth {
		req.SetBasicAuth(p.cfg.Username, p.cfg.Password)
	}
	p.infof("Request URL: %s", req.URL)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, 0, readStatusError("list "+what, resp)
	}
	var batch []T
	if err := json.NewDecoder(resp.Body).Decode(&batch); err != nil {
		return nil, 0, fmt.Errorf("decode page %d: %w", page, err)
	}
	return batch, parseTotalPages(resp.Header.Get(totalPagesHeader)), nil
}

func parseTotalPages(v string) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// decodeRendered turns WordPress rendered title HTML into plain text.
func decodeRendered(rendered string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rendered))
	if err != nil {
		return rendered
	}
	return strings.TrimSpace(doc.Text())
}

// ListCategories fetches all categories except the default uncategorized bucket.
func (p *Publisher) ListCategories(ctx context.Context) Listing[Category] {
	all := getPages[Category](ctx, p, "categories", categoriesPath, nil, true)
	cats := make([]Category, 0, len(all.Items))
	for _, c := range all.Items {
		if strings.ToLower(c.Name) == uncategorizedName {
			continue
		}
		cats = append(cats, c)
	}
	return Listing[Category]{Items: cats, Err: all.Err}
}

// FindCategory matches name case-insensitively against the category names.
func FindCategory(cats []Category, name string) (Category, bool) {
	name = strings.TrimSpace(name)
	for _, c := range cats {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return Category{}, false
}

// ResolveCategory fetches the categories and looks name up among them.
func (p *Publisher) ResolveCategory(ctx context.Context, name string) (Category, bool) {
	return FindCategory(p.ListCategories(ctx).Items, name)
}

// UploadImage sends a local image as the raw request body and returns its media id.
func (p *Publisher) UploadImage(ctx context.Context, imagePath string) (int64, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return 0, fmt.Errorf("read image: %w", err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(imagePath))
	if contentType == "" {
		contentType = "image/png"
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.cfg.URL+mediaPath, bytes.NewReader(data))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filepath.Base(imagePath)))
	req.SetBasicAuth(p.cfg.Username, p.cfg.Password)

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return 0, readStatusError("upload image", resp)
	}

	var media mediaResp
	if err := json.NewDecoder(resp.Body).Decode(&media); err != nil {
		return 0, err
	}
	p.infof("Uploaded image %s -> media id %d", imagePath, media.ID)
	return media.ID, nil
}

// CreatePost publishes a post. Double quotes are removed from the title.
func (p *Publisher) CreatePost(ctx context.Context, params PostParams) (Post, error) {
	payload := postPayload{
		Title:         strings.ReplaceAll(params.Title, `"`, ""),
		Content:       params.Content,
		Status:        "publish",
		FeaturedMedia: params.FeaturedMedia,
		Categories:    []int64{},
		Meta: postMeta{
			RankMathTitle:       params.MetaTitle,
			RankMathDescription: params.MetaDescription,
		},
	}
	if params.CategoryID != 0 {
		payload.Categories = []int64{params.CategoryID}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Post{}, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.cfg.URL+postsPath, bytes.NewReader(body))
	if err != nil {
		return Post{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(p.cfg.Username, p.cfg.Password)

	resp, err := p.client.Do(req)
	if err != nil {
		return Post{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return Post{}, readStatusError("publish post", resp)
	}

	var post Post
	if err := json.NewDecoder(resp.Body).Decode(&post); err != nil {
		return Post{}, err
	}
	return post, nil
}

func readStatusError(op string, resp *http.Response) *StatusError {
	body, _ := io.ReadAll(resp.Body)
	return &StatusError{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}
