package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/ajhous44/BloggyBlogger/generator"
	"github.com/google/uuid"
)

// SanitizeTitle keeps letters, digits and underscores and turns whitespace into
// underscores. "5 Local SEO: Tips!" becomes "5_Local_SEO_Tips".
func SanitizeTitle(title string) string {
	var b strings.Builder
	for _, r := range title {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune('_')
		}
	}
	return b.String()
}

// ArtifactStem names a run's directory and image. A title with nothing left after
// sanitizing falls back to post-<first 8 hex digits of the run id>.
func ArtifactStem(title string, runID uuid.UUID) string {
	if stem := SanitizeTitle(title); stem != "" {
		return stem
	}
	return "post-" + runID.String()[:8]
}

// RunDir is <runsDir>/<YYYY-MM-DD>-<stem>.
func RunDir(runsDir string, day time.Time, stem string) string {
	return filepath.Join(runsDir, day.Format("2006-01-02")+"-"+stem)
}

// SaveArtifacts writes content.html and the cover image into the run directory,
// creating it if needed. It returns the directory and the image path.
func SaveArtifacts(runsDir string, day time.Time, runID uuid.UUID, draft generator.Draft) (string, string, error) {
	stem := ArtifactStem(draft.Title, runID)
	dir := RunDir(runsDir, day, stem)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", err
	}
	if err := os.WriteFile(filepath.Join(dir, "content.html"), []byte(draft.HTML), 0o644); err != nil {
		return "", "", err
	}
	imgPath := filepath.Join(dir, stem+".png")
	if err := os.WriteFile(imgPath, draft.Image.Data, 0o644); err != nil {
		return "", "", err
	}
	return dir, imgPath, nil
}

func saveSummary(dir string, s summary) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "run.json"), data, 0o644)
}
