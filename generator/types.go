package generator

// Outline is the structured plan the model returns before any content is written.
type Outline struct {
	Title    string    `json:"title"`
	Sections []Section `json:"sections"`
}

// Section is rendered in slice order; a conclusion may have no subsections.
type Section struct {
	Title       string   `json:"title"`
	Subsections []string `json:"subsections"`
}

// Image is a generated picture kept both in memory and as a temp file on disk.
type Image struct {
	Data []byte
	Path string
}

// Draft is the assembled post before publishing.
type Draft struct {
	Title string
	HTML  string
	Image Image
}
