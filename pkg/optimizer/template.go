package optimizer

import (
	"strings"
)

// Placeholder is the slot of a prompt template replaced by the text to
// optimize.
const Placeholder = "{}"

const DefaultTemplate = "default"

// Templates are the built-in prompt templates.
var Templates = map[string]string{
	"default":   "Improve the layout of the following content so that it reads more easily and looks professional:\n\n{}",
	"technical": "As a technical documentation expert, improve the layout of the following technical content while keeping it accurate and professional:\n\n{}",
	"creative":  "Rework the layout of the following content in a creative writing style, making it more lively while keeping its original meaning:\n\n{}",
	"seo":       "Improve the layout of the following content so that it is better suited for search engine optimization while staying readable:\n\n{}",
	"minimal":   "Concisely improve the layout of the following content, removing redundancy and keeping the core information:\n\n{}",
}

// TemplateNames lists the built-in templates in menu order.
var TemplateNames = []string{"default", "technical", "creative", "seo", "minimal"}

// RenderPrompt substitutes text into the first slot of the template.
// When the template has no slot, the text is appended after a blank line.
func RenderPrompt(template, text string) string {
	if !strings.Contains(template, Placeholder) {
		return template + "\n\n" + text
	}

	return strings.Replace(template, Placeholder, text, 1)
}
