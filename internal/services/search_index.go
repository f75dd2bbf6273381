package services

import (
	"strings"

	"osint-stories/internal/metadata"
	"osint-stories/internal/models"
)

// BuildSearchText returns the lower-cased searchable text of a story: its own
// text fields, the text of every member item, and its tag and attribute
// values. Item content is stripped of markup first.
func BuildSearchText(story *models.Story, items []models.NewsItem, tags []models.StoryTag, attributes []models.StoryAttribute, itemAttributes []models.NewsItemAttribute) string {
	var parts []string
	add := func(values ...string) {
		for _, v := range values {
			if v = strings.TrimSpace(v); v != "" {
				parts = append(parts, v)
			}
		}
	}

	add(story.Title, story.Description, story.Comments, story.Summary)
	for _, item := range items {
		add(item.Title, metadata.PlainText(item.Review), metadata.PlainText(item.Content), item.Author, item.Link)
	}
	for _, tag := range tags {
		add(tag.Name)
	}
	for _, attribute := range attributes {
		add(attribute.Value)
	}
	for _, attribute := range itemAttributes {
		if len(attribute.Binary) == 0 {
			add(attribute.Value)
		}
	}

	return strings.ToLower(strings.Join(parts, " "))
}

// ParseSearchTerms splits a search string into lower-cased terms. Double
// quoted runs are kept together as one phrase. Every term must match.
func ParseSearchTerms(search string) []string {
	var terms []string
	seen := make(map[string]bool)
	add := func(term string) {
		term = strings.ToLower(strings.Join(strings.Fields(term), " "))
		if term != "" && !seen[term] {
			seen[term] = true
			terms = append(terms, term)
		}
	}

	for {
		start := strings.Index(search, `"`)
		if start < 0 {
			break
		}
		end := strings.Index(search[start+1:], `"`)
		if end < 0 {
			break
		}
		for _, word := range strings.Fields(search[:start]) {
			add(word)
		}
		add(search[start+1 : start+1+end])
		search = search[start+end+2:]
	}

	for _, word := range strings.Fields(strings.ReplaceAll(search, `"`, " ")) {
		add(word)
	}
	return terms
}

// likePattern escapes a term for use with LIKE ... ESCAPE '\'
func likePattern(term string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(term) + "%"
}
