package extraction

import (
	"fmt"
	"strings"

	"github.com/c0ncepT23/Travelbuddy-sub005/internal/domain"
)

const multiSystemPrompt = `You extract travel places from social media content.
Return JSON only, shaped as {"places": [ ... ]}.
Each place is an object with:
  "name": the specific place or business name,
  "category": one of %s,
  "description": one or two sentences on why it was recommended,
  "location_hint": neighbourhood, city or region if mentioned, otherwise "".
Only include places that are concretely named. Use category "tip" for general
advice that is not tied to a single venue. If nothing qualifies, return {"places": []}.`

const singleSystemPrompt = `You extract the single main travel place from social media content.
Return JSON only, one object with:
  "name": the specific place or business name,
  "category": one of %s,
  "description": one or two sentences on why it was recommended,
  "location_hint": neighbourhood, city or region if mentioned, otherwise "".`

// maxContentRunes bounds the user prompt; transcripts can be very long.
const maxContentRunes = 12000

var sourceHints = map[domain.SourceType]string{
	domain.SourceYouTube:   "This is a YouTube video transcript with its title and description. Places are often mentioned in passing while the creator walks or eats.",
	domain.SourceInstagram: "This is an Instagram post caption. Place names may appear as hashtags or @-mentions.",
	domain.SourceReddit:    "This is a Reddit post with comments. Several users may recommend different places.",
	domain.SourceText:      "This is text the user pasted directly.",
}

func categoryList() string {
	names := make([]string, len(domain.Categories))
	for i, c := range domain.Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

func multiPrompt(content string, source domain.SourceType) domain.Prompt {
	return domain.Prompt{
		System: fmt.Sprintf(multiSystemPrompt, categoryList()),
		User:   userPrompt(content, source),
		JSON:   true,
	}
}

func singlePrompt(content string, source domain.SourceType) domain.Prompt {
	return domain.Prompt{
		System: fmt.Sprintf(singleSystemPrompt, categoryList()),
		User:   userPrompt(content, source),
		JSON:   true,
	}
}

func userPrompt(content string, source domain.SourceType) string {
	if runes := []rune(content); len(runes) > maxContentRunes {
		content = string(runes[:maxContentRunes])
	}
	return sourceHints[source] + "\n\nContent:\n" + content
}
