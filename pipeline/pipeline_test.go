package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ajhous44/BloggyBlogger/generator"
	"github.com/ajhous44/BloggyBlogger/publisher"
	"github.com/google/go-cmp/cmp"
)

const basicsOutline = `{"Title": "Local SEO Tips for Small Biz", "sections": [{"title": "Basics", "subsections": ["What is SEO", "Why it matters"]}]}`

// routedLLM answers by prompt kind and counts calls per kind.
type routedLLM struct {
	title   string
	outline string
	calls   map[string]int
	prompts map[string][]string
}

func newRoutedLLM() *routedLLM {
	return &routedLLM{
		title:   `"Local SEO Tips for Small Biz"`,
		outline: basicsOutline,
		calls:   map[string]int{},
		prompts: map[string][]string{},
	}
}

func (r *routedLLM) Complete(_ context.Context, p generator.Prompt) (generator.Completion, error) {
	kind, text := "unknown", ""
	switch u := p.User; {
	case strings.Contains(u, "new blog title"):
		kind, text = "title", r.title
	case strings.Contains(u, "Generate a blog outline"):
		kind, text = "outline", r.outline
	case strings.Contains(u, "Generate an introduction for the section"):
		kind, text = "intro", "An intro."
	case strings.Contains(u, "generate the content for the current subsection"):
		kind, text = "subsection", "<p>Body.</p>"
	case strings.Contains(u, "available categories"):
		kind, text = "category", "business specific\n"
	case strings.Contains(u, "SEO description"):
		kind, text = "meta", "Grow locally with these tips."
	case strings.Contains(u, "social media post"):
		kind, text = "social", "New post! #seo"
	}
	r.calls[kind]++
	r.prompts[kind] = append(r.prompts[kind], p.User)
	return generator.Completion{Text: text, TotalTokens: 100}, nil
}

type fixedImage struct{}

func (fixedImage) Generate(context.Context, string) (generator.Image, error) {
	return generator.Image{Data: []byte("png-data"), Path: "/tmp/unused.png"}, nil
}

// fakeWordPress records the calls a run makes against the REST API.
type fakeWordPress struct {
	mu          sync.Mutex
	mediaStatus int
	postStatus  int
	postBody    map[string]any
	mediaBody   []byte
	requests    []string
}

func (f *fakeWordPress) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	switch {
	case r.Method == "GET" && r.URL.Path == "/wp-json/wp/v2/posts":
		w.Header().Set("X-WP-TotalPages", "1")
		w.Write([]byte(`[{"title":{"rendered":"Website Tips &amp; Tricks"}}]`))
	case r.Method == "GET" && r.URL.Path == "/wp-json/wp/v2/categories":
		w.Write([]byte(`[{"id":1,"name":"Uncategorized"},{"id":4,"name":"Business Specific"}]`))
	case r.Method == "POST" && r.URL.Path == "/wp-json/wp/v2/media":
		buf := new(bytes.Buffer)
		buf.ReadFrom(r.Body)
		f.mediaBody = buf.Bytes()
		w.WriteHeader(f.mediaStatus)
		w.Write([]byte(`{"id":5}`))
	case r.Method == "POST" && r.URL.Path == "/wp-json/wp/v2/posts":
		json.NewDecoder(r.Body).Decode(&f.postBody)
		w.WriteHeader(f.postStatus)
		w.Write([]byte(`{"id":77,"link":"https://blog.example/local-seo-tips"}`))
	case r.URL.Path == "/post-sitemap.xml":
		w.Write([]byte(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9"><url><loc>https://blog.example/about/</loc></url></urlset>`))
	default:
		http.NotFound(w, r)
	}
}

type harness struct {
	llm  *routedLLM
	wp   *fakeWordPress
	pipe *Pipeline
	run  *Run
	runs string
	logs *bytes.Buffer
	day  time.Time
}

func newHarness(t *testing.T, keyword string, socials bool) *harness {
	t.Helper()
	h := &harness{
		llm:  newRoutedLLM(),
		wp:   &fakeWordPress{mediaStatus: http.StatusCreated, postStatus: http.StatusCreated},
		runs: filepath.Join(t.TempDir(), "runs"),
		logs: &bytes.Buffer{},
		day:  time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC),
	}
	srv := httptest.NewServer(h.wp)
	t.Cleanup(srv.Close)
	logger := log.New(h.logs, "", 0)

	h.run = NewRun(keyword, socials)
	agent, err := generator.NewAgent(h.llm, h.run.Usage, logger)
	if err != nil {
		t.Fatal(err)
	}
	site, err := publisher.New(publisher.WordPressConfig{
		URL:      srv.URL,
		Username: "editor",
		Password: "app-pass",
		Sitemaps: []string{srv.URL + "/post-sitemap.xml"},
	}, srv.Client(), false, logger)
	if err != nil {
		t.Fatal(err)
	}
	assembler, err := generator.NewAssembler(agent, fixedImage{}, site, false, logger)
	if err != nil {
		t.Fatal(err)
	}
	approveAll := generator.ApproverFunc(func(context.Context, string) (generator.TitleState, error) {
		return generator.TitleApproved, nil
	})
	h.pipe, err = New(agent, assembler, site, approveAll, Options{
		RunsDir: h.runs,
		Now:     func() time.Time { return h.day },
	}, logger)
	if err != nil {
		t.Fatal(err)
	}
	return h
}

func TestExecute_EndToEnd(t *testing.T) {
	h := newHarness(t, "local seo", true)

	if err := h.pipe.Execute(context.Background(), h.run); err != nil {
		t.Fatalf("Execute: %v\nlogs:\n%s", err, h.logs)
	}

	wantDir := filepath.Join(h.runs, "2026-10-19-Local_SEO_Tips_for_Small_Biz")
	if h.run.Dir != wantDir {
		t.Errorf("dir = %s, want %s", h.run.Dir, wantDir)
	}
	html, err := os.ReadFile(filepath.Join(wantDir, "content.html"))
	if err != nil {
		t.Fatal(err)
	}
	content := string(html)
	if n := strings.Count(content, "<h2>Basics</h2>"); n != 1 {
		t.Errorf("<h2>Basics</h2> appears %d times", n)
	}
	first := strings.Index(content, "<h3>What is SEO</h3>")
	second := strings.Index(content, "<h3>Why it matters</h3>")
	if strings.Count(content, "<h3>") != 2 || first < 0 || second < first {
		t.Errorf("subsections out of order:\n%s", content)
	}
	img, err := os.ReadFile(filepath.Join(wantDir, "Local_SEO_Tips_for_Small_Biz.png"))
	if err != nil || string(img) != "png-data" {
		t.Errorf("image = %q, %v", img, err)
	}
	if string(h.wp.mediaBody) != "png-data" {
		t.Errorf("uploaded = %q", h.wp.mediaBody)
	}

	if got := h.wp.postBody["title"]; got != "Local SEO Tips for Small Biz" {
		t.Errorf("post title = %#v", got)
	}
	if diff := cmp.Diff([]any{float64(4)}, h.wp.postBody["categories"]); diff != "" {
		t.Errorf("categories (-want +got):\n%s", diff)
	}
	if h.wp.postBody["featured_media"] != float64(5) || h.wp.postBody["content"] != content {
		t.Errorf("post body = %v", h.wp.postBody)
	}

	if !strings.Contains(h.llm.prompts["title"][0], `"Website Tips & Tricks"`) {
		t.Errorf("existing titles not in title prompt: %s", h.llm.prompts["title"][0])
	}
	if !strings.Contains(h.llm.prompts["subsection"][0], "https://blog.example/about/") {
		t.Errorf("sitemap urls not in subsection prompt")
	}
	if h.llm.calls["social"] != 2 || len(h.run.SocialPosts) != 2 {
		t.Errorf("social calls = %d", h.llm.calls["social"])
	}
	if !strings.Contains(h.llm.prompts["social"][1], "140 characters") {
		t.Errorf("second social variant not length constrained")
	}
	if h.run.Post == nil || h.run.Post.ID != 77 {
		t.Errorf("post = %+v", h.run.Post)
	}

	// title, outline, intro, 2 subsections, category, meta, 2 social
	if got := h.run.Usage.Total(); got != 900 {
		t.Errorf("tokens = %d, want 900", got)
	}
	if !strings.Contains(h.logs.String(), "Estimated cost in USD is $0.0018") {
		t.Errorf("cost not logged:\n%s", h.logs)
	}

	var s summary
	raw, err := os.ReadFile(filepath.Join(wantDir, "run.json"))
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		t.Fatal(err)
	}
	if s.ID != h.run.ID.String() || s.Tokens != 900 || s.Post == nil || len(s.Outline.Sections) != 1 {
		t.Errorf("summary = %+v", s)
	}
}

func TestExecute_PostFailureIsNotFatal(t *testing.T) {
	h := newHarness(t, "local seo", true)
	h.wp.postStatus = http.StatusInternalServerError

	if err := h.pipe.Execute(context.Background(), h.run); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if h.run.Post != nil {
		t.Errorf("post = %+v", h.run.Post)
	}
	if h.llm.calls["social"] != 0 {
		t.Errorf("social step ran after failed publish")
	}
	if !strings.Contains(h.logs.String(), "failed to publish post") {
		t.Errorf("failure not logged:\n%s", h.logs)
	}
	if _, err := os.Stat(filepath.Join(h.run.Dir, "content.html")); err != nil {
		t.Errorf("artifacts missing: %v", err)
	}
}

func TestExecute_UploadFailureSkipsPost(t *testing.T) {
	h := newHarness(t, "local seo", false)
	h.wp.mediaStatus = http.StatusRequestEntityTooLarge

	if err := h.pipe.Execute(context.Background(), h.run); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if h.wp.postBody != nil {
		t.Errorf("post created after failed upload: %v", h.wp.postBody)
	}
	if h.llm.calls["category"] != 0 || h.llm.calls["meta"] != 0 {
		t.Errorf("publish generation ran: %v", h.llm.calls)
	}
}

func TestExecute_BadOutlineAborts(t *testing.T) {
	h := newHarness(t, "local seo", false)
	h.llm.outline = "Sure! Here is your outline:\n1. Basics"

	err := h.pipe.Execute(context.Background(), h.run)
	var oerr *generator.OutlineError
	if !errors.As(err, &oerr) {
		t.Fatalf("err = %v, want *OutlineError", err)
	}
	if !strings.Contains(h.logs.String(), "Sure! Here is your outline:\n1. Basics") {
		t.Errorf("raw outline not logged verbatim:\n%s", h.logs)
	}
	if _, err := os.Stat(h.runs); !os.IsNotExist(err) {
		t.Errorf("runs dir created after outline failure: %v", err)
	}
	if h.llm.calls["intro"] != 0 {
		t.Errorf("content generated after outline failure")
	}
}

func TestExecute_EmptyKeyword(t *testing.T) {
	h := newHarness(t, "", false)
	if err := h.pipe.Execute(context.Background(), h.run); !errors.Is(err, ErrNoKeyword) {
		t.Fatalf("err = %v", err)
	}
	if len(h.wp.requests) != 0 {
		t.Errorf("requests made: %v", h.wp.requests)
	}
}
