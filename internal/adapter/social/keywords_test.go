package social

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeywords(t *testing.T) {
	assert.Equal(t, []string{"#breaking", "#today"}, Keywords("Breaking: big news TODAY."))
	assert.Equal(t, []string{"#sports"}, Keywords("#sports fan"))
	assert.Equal(t, []string{"#covid19", "#update"}, Keywords("COVID-19 update"))
	assert.Equal(t, []string{"#rsums"}, Keywords("résumés naïve"))
	assert.Nil(t, Keywords(""))
	assert.Nil(t, Keywords("a an the four"))
}

func TestExtractHashtags(t *testing.T) {
	posts := []RedditPost{
		{Title: "Markets rally after rates decision"},
		{Title: "Rates held steady, markets calm"},
		{Title: "Storm hits coast; markets shrug"},
	}

	assert.Equal(t, []string{"#markets", "#rates", "#rally"}, ExtractHashtags(posts, 3))
	assert.Len(t, ExtractHashtags(posts, 0), 9)
	assert.Empty(t, ExtractHashtags(nil, 5))
}

func TestItemsFromPosts(t *testing.T) {
	items := ItemsFromPosts([]RedditPost{
		{ID: "x", Title: "Big fox"},
		{ID: "y", Title: "Jumps jumps"},
	})

	assert.Equal(t, "x", items[0].ID)
	assert.Equal(t, []string{}, items[0].Labels)
	assert.Equal(t, []string{"#jumps", "#jumps"}, items[1].Labels)
}
