package services

import (
	"testing"

	"osint-stories/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestBuildSearchText(t *testing.T) {
	story := &models.Story{Title: "Grid Attack", Description: "Desc", Comments: "Analyst NOTE", Summary: "Bot summary"}
	items := []models.NewsItem{{
		Title:   "Item Title",
		Review:  "<b>Preview</b>",
		Content: "<p>Body <script>evil()</script>text</p>",
		Author:  "Reporter",
		Link:    "https://Example.com/a",
	}}
	tags := []models.StoryTag{{Name: "CVE-2024-1"}}
	attributes := []models.StoryAttribute{{Key: "TLP", Value: "AMBER"}}
	itemAttributes := []models.NewsItemAttribute{
		{Key: "ioc", Value: "198.51.100.7"},
		{Key: "image", Value: "ignored", Binary: []byte{1}},
	}

	data := BuildSearchText(story, items, tags, attributes, itemAttributes)

	assert.Equal(t,
		"grid attack desc analyst note bot summary item title preview body text reporter https://example.com/a cve-2024-1 amber 198.51.100.7",
		data)
}

func TestParseSearchTerms(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"empty", "   ", nil},
		{"words", "Ransomware  Utility", []string{"ransomware", "utility"}},
		{"phrase", `apt "Cozy  Bear" russia`, []string{"apt", "cozy bear", "russia"}},
		{"duplicates", "a A a", []string{"a"}},
		{"unbalanced quote", `"open phrase`, []string{"open", "phrase"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseSearchTerms(tt.input))
		})
	}
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, `%100\%%`, likePattern("100%"))
	assert.Equal(t, `%a\_b%`, likePattern("a_b"))
	assert.Equal(t, `%c:\\path%`, likePattern(`c:\path`))
}
