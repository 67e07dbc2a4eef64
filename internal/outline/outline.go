// Package outline turns free-form text into a slide outline by asking an
// LLM provider for a fixed JSON structure.
package outline

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Slide is one entry of the generated outline.
type Slide struct {
	Title   string   `json:"title"`
	Content []string `json:"content"`
}

// Outline is the parsed result of a single provider reply. It is consumed
// once by the deck renderer and then discarded.
type Outline struct {
	Slides []Slide `json:"slides"`
}

// ErrNoSlides means the reply parsed as JSON but lacked the "slides" key.
var ErrNoSlides = errors.New(`reply is missing the "slides" key`)

const SystemPrompt = "You are a helpful presentation assistant."

// BuildPrompt embeds the user's text and guidance into the instruction
// asking the model to segment the text into slides and reply with JSON only.
func BuildPrompt(text, guidance string) string {
	return fmt.Sprintf(`You are an expert at structuring long-form text into concise and clear presentation slides.
Your task is to analyze the provided text and guidance to create the content for a slide deck.

**Guidance:** "%s"

**Text to Analyze:**
"""
%s
"""

Based on the text and guidance, break it down into a logical sequence of slides.
Determine a reasonable number of slides needed to cover the content effectively.

**Output Format:**
Return ONLY a valid JSON object with a single key "slides". Each item in the "slides" array
should be an object representing one slide, containing a "title" and a "content" array of strings
(for bullet points or short paragraphs).

**Example JSON Output:**
{
  "slides": [
    {
      "title": "Slide 1 Title",
      "content": [
        "First bullet point on slide 1.",
        "Second bullet point on slide 1."
      ]
    },
    {
      "title": "Slide 2 Title",
      "content": [
        "A single paragraph of text for this slide."
      ]
    }
  ]
}`, guidance, text)
}

// Parse decodes a provider reply into an Outline. The reply must be the
// JSON object itself, optionally wrapped in a markdown code fence. Anything
// else fails; no repair is attempted and no partial outline is returned.
func Parse(reply string) (*Outline, error) {
	raw := stripFence(reply)

	var out Outline
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("reply is not valid JSON: %w", err)
	}
	if out.Slides == nil {
		return nil, ErrNoSlides
	}
	return &out, nil
}

// stripFence removes a surrounding ```json fence. Models reply with one
// often enough that unwrapping it is part of reading the reply, not repair.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
