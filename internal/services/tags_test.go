package services

import (
	"testing"

	"osint-stories/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestMergeTags(t *testing.T) {
	existing := []models.StoryTag{{Name: "APT28", TagType: "ORG"}}

	added := MergeTags(existing, []TagInput{
		{Name: "APT28", TagType: "MISC"},
		{Name: "Paris", TagType: "LOC"},
		{Name: "Paris", TagType: "ORG"},
	})

	assert.Equal(t, []TagInput{{Name: "Paris", TagType: "LOC"}}, added)
	assert.Empty(t, MergeTags(existing, nil))
}

func TestMergeAttributes(t *testing.T) {
	existing := map[string]string{"TLP": "amber", "lang": "en"}
	incoming := []AttributeInput{
		{Key: "TLP", Value: "red"},
		{Key: "lang", Value: "en"},
		{Key: "new", Value: "first"},
		{Key: "new", Value: "second"},
	}

	t.Run("overwrite", func(t *testing.T) {
		create, update := MergeAttributes(existing, incoming, true)
		assert.Equal(t, []AttributeInput{{Key: "new", Value: "second"}}, create)
		assert.Equal(t, []AttributeInput{{Key: "TLP", Value: "red"}}, update)
	})

	t.Run("keep existing", func(t *testing.T) {
		create, update := MergeAttributes(existing, incoming, false)
		assert.Equal(t, []AttributeInput{{Key: "new", Value: "first"}}, create)
		assert.Empty(t, update)
	})
}
