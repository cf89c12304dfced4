package publisher

import (
	"encoding/json"
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds credentials and switches for one blog run.
type Config struct {
	WordPress       WordPressConfig `json:"wordpress"`
	LLM             *LLMConfig      `json:"llm,omitempty"`
	Image           ImageConfig     `json:"image"`
	PostToSocials   bool            `json:"post_to_socials"`
	RunsDir         string          `json:"runs_dir,omitempty"`
	CostPer1KTokens float64         `json:"cost_per_1k_tokens,omitempty"`
	TopicCategories []string        `json:"topic_categories,omitempty"`
}

// WordPressConfig points at the site and its application password.
type WordPressConfig struct {
	URL      string   `json:"url"`
	Username string   `json:"username"`
	Password string   `json:"password"`
	Sitemaps []string `json:"sitemaps,omitempty"`
}

// LLMConfig 文本生成模型配置。
type LLMConfig struct {
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
	APIKey   string `json:"api_key,omitempty"`
	BaseURL  string `json:"base_url,omitempty"`
}

// ImageConfig selects the image backend ("openai" or "stability").
type ImageConfig struct {
	Backend string `json:"backend,omitempty"`
	APIKey  string `json:"api_key,omitempty"`
	BaseURL string `json:"base_url,omitempty"`
}

const (
	DefaultModel     = "gpt-3.5-turbo"
	DefaultRunsDir   = "runs"
	DefaultCostPer1K = 0.002
)

// DefaultTopicCategories balances title generation across these topics.
var DefaultTopicCategories = []string{"Search engine optimization", "tips & tricks", "Website Design", "Business Specific"}

// LoadConfig reads JSON config from disk, then applies .env and environment
// overrides. A missing file is fine when the environment carries the credentials.
func LoadConfig(path string) (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := json.Unmarshal(data, &cfg); err != nil {
				return Config{}, err
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return Config{}, err
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if c.LLM == nil {
		c.LLM = &LLMConfig{}
	}
	setFromEnv(&c.LLM.APIKey, "OPENAI_API_KEY")
	setFromEnv(&c.LLM.Model, "TEXT_GEN_MODEL")
	setFromEnv(&c.Image.Backend, "IMAGE_GEN_MODEL")
	setFromEnv(&c.WordPress.URL, "WORDPRESS_URL")
	setFromEnv(&c.WordPress.Username, "WP_USERNAME")
	setFromEnv(&c.WordPress.Password, "WP_PASSWORD")
	if c.Image.Backend == "stability" {
		setFromEnv(&c.Image.APIKey, "STABILITY_API_KEY")
	}
}

func (c *Config) applyDefaults() {
	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = DefaultModel
	}
	if c.Image.Backend == "" {
		c.Image.Backend = "openai"
	}
	// DALL-E shares the text backend's key unless one is given. Other text
	// providers only speak chat completions, so their endpoint is not reused.
	if c.Image.Backend == "openai" && c.LLM.Provider == "openai" {
		if c.Image.APIKey == "" {
			c.Image.APIKey = c.LLM.APIKey
		}
		if c.Image.BaseURL == "" {
			c.Image.BaseURL = c.LLM.BaseURL
		}
	}
	c.WordPress.URL = strings.TrimRight(c.WordPress.URL, "/")
	if len(c.WordPress.Sitemaps) == 0 && c.WordPress.URL != "" {
		c.WordPress.Sitemaps = []string{
			c.WordPress.URL + "/post-sitemap.xml",
			c.WordPress.URL + "/page-sitemap.xml",
		}
	}
	if c.RunsDir == "" {
		c.RunsDir = DefaultRunsDir
	}
	if c.CostPer1KTokens == 0 {
		c.CostPer1KTokens = DefaultCostPer1K
	}
	if len(c.TopicCategories) == 0 {
		c.TopicCategories = append([]string(nil), DefaultTopicCategories...)
	}
}

// Validate checks the options without which a run cannot publish.
func (c Config) Validate() error {
	if c.WordPress.URL == "" {
		return errors.New("config must include wordpress.url (or WORDPRESS_URL)")
	}
	if c.WordPress.Username == "" || c.WordPress.Password == "" {
		return errors.New("config must include wordpress.username and wordpress.password (or WP_USERNAME/WP_PASSWORD)")
	}
	if c.LLM == nil || c.LLM.APIKey == "" {
		return errors.New("config must include llm.api_key (or OPENAI_API_KEY)")
	}
	if c.Image.APIKey == "" {
		return errors.New("config must include image.api_key (or STABILITY_API_KEY) unless the image backend can reuse the openai llm key")
	}
	return nil
}

func setFromEnv(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}
