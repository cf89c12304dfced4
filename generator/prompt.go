package generator

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Prompt 表示发送给 LLM 的消息集合。
type Prompt struct {
	System string
	User   string
}

// SystemPrompt is sent ahead of every text generation request.
const SystemPrompt = "You are an expert SEO copywriter who always writes original, search engine optimized human-like content."

const (
	categoryNameTemplate = "Blog title: %s. Here are the available categories: %s. Respond with the category that matches best. Do not respond with anything else or any other words."

	metaDescriptionTemplate = "Write a short SEO description for a blog titled %s. It should be no more than 120 chars max."

	imageTemplate = "Return a prompt for Dall-e image generation that can be used as cover/hero image for a blog background hero image / title image. The blog title is the following for context: %s. Example prompt for a post about SEO: 'Business meeting, office, photorealism, looking at chart on screen'."

	sectionIntroTemplate = "You are an expert seo content writer targeting the keyword '%s'. Generate an introduction for the section titled '%s' with the following subsections in mind: %s. Don't include numbers in the subsections if you mention them. Don't mention them all either. Just write about the section in general. It's okay to mention the subsections in the intro, but don't mention them all."

	subsectionTemplate = "You are an expert seo content writer and blogger targeting the keyword %s. Given the blog title '%s', section title '%s', and subsection title '%s', generate the content for the current subsection. Do not include numbered points in here unless it makes sense for a specific part of what you're writing. Note: please put each paragraph in <p> tags. Also, if it makes sense, include a hyperlink to an applicable link from the following from our website: %s. For example <a href=\"*url*\"> *some text*</a>. You should only include a hyperlink 10 percent of the time you see this message. Additionally, include an applicable & relevant HTML table relevant to the subsection title. Use proper HTML table tags."

	blogTitleTemplate = "Keyword: %s | USING A MAXIMUM OF 40 CHARACTERS IN YOUR RESPONSE: Generate a h1 / new blog title for my company's website. We are a small digital marketing agency who primarily deals with small businesses. The purpose of our blog is to target small business owners and provide helpful tips and tricks. Keep SEO in mind. Make sure it is not a duplicate of the following posts as they already exist: %s. But use them as inspiration for the type of posts we like to do. Also, try to make an even balance of topics across these topics: %s using my existing blog titles. If you do decide to include a year the current year is %d, but do not do 'Local SEO in %d:' for example. NEVER use ':' in your title response. Only return the title and nothing else. No other text. Just the title text. Do not enclose it in double quotes either. This is very important that you only return the title text and create and SEO optimized header between meaning using the keyword in the header. 50-60 total characters max."

	blogOutlineTemplate = "Generate a blog outline for the following blog title / h1: %s. It's vital that the response is only the json that matches this structure as an example: %s but include more than just the 2 sections, they're just examples of the json format needed per each object. End with a conclusion for each main section. The conclusion doesn't have subsections. It is VITAL that you provide valid json only in the response. For example, No other words or chars, and \" not 's."

	socialPostTemplate = "Generate a captivating, catchy, social media post for my new blog. The title of the blog is: %s but you don't need to include the title necessarily... Include new lines where necessary, and include 3 to 5 relevant hashtags. Include a link to the blog with some text such as 'Read more here: %s'"

	socialPostShortSuffix = " No more than 140 characters including the url!! - this is VERY IMPORTANT."
)

func userPrompt(format string, args ...any) Prompt {
	return Prompt{System: SystemPrompt, User: fmt.Sprintf(format, args...)}
}

// CategoryNamePrompt asks the model to pick one of the site's categories for a title.
func CategoryNamePrompt(title string, categoryNames []string) Prompt {
	return userPrompt(categoryNameTemplate, title, listLiteral(categoryNames))
}

func MetaDescriptionPrompt(title string) Prompt {
	return userPrompt(metaDescriptionTemplate, title)
}

func ImagePrompt(title string) Prompt {
	return userPrompt(imageTemplate, title)
}

func SectionIntroPrompt(keyword string, section Section) Prompt {
	return userPrompt(sectionIntroTemplate, keyword, section.Title, strings.Join(section.Subsections, ", "))
}

// SubsectionPrompt carries the site's own URLs so the model can link back into the site.
func SubsectionPrompt(keyword, blogTitle, sectionTitle, subsectionTitle string, urls []string) Prompt {
	return userPrompt(subsectionTemplate, keyword, blogTitle, sectionTitle, subsectionTitle, listLiteral(urls))
}

// BlogTitlePrompt 生成标题提示词，已有标题用于去重，topics 用于主题均衡。
func BlogTitlePrompt(keyword string, existingTitles, topics []string, year int) Prompt {
	return userPrompt(blogTitleTemplate, keyword, listLiteral(existingTitles), listLiteral(topics), year, year)
}

// BlogOutlinePrompt embeds an example skeleton; the model may still ignore it.
func BlogOutlinePrompt(blogTitle string) Prompt {
	example := struct {
		Title    string    `json:"Title"`
		Sections []Section `json:"sections"`
	}{
		Title: blogTitle,
		Sections: []Section{
			{
				Title:       "1. *replace with title for section 1*",
				Subsections: []string{"1.1 *subsection title*", "1.2 *subsection title*", "1.3 *subsection title*"},
			},
			{
				Title:       "2. *replace with title for section 2*",
				Subsections: []string{"2.1 *subsection title*", "2.2 *subsection title*"},
			},
		},
	}
	raw, _ := json.Marshal(example)
	return userPrompt(blogOutlineTemplate, blogTitle, string(raw))
}

// SocialPostPrompt builds the promotional text request; short limits it to 140 characters.
func SocialPostPrompt(title, link string, short bool) Prompt {
	p := userPrompt(socialPostTemplate, title, link)
	if short {
		p.User += socialPostShortSuffix
	}
	return p
}

// listLiteral renders items as a quoted, comma separated list in brackets.
func listLiteral(items []string) string {
	quoted := make([]string, len(items))
	for i, it := range items {
		quoted[i] = fmt.Sprintf("%q", it)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
