package results

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func img(n int) []string {
	if n == 0 {
		return nil
	}
	urls := make([]string, n)
	for i := range urls {
		urls[i] = "https://img.example.org/" + string(rune('a'+i)) + ".jpg"
	}
	return urls
}

func TestStore_EmptyByDefault(t *testing.T) {
	s := NewStore(DefaultHotTopicThreshold)

	require.NotNil(t, s.Current())
	assert.Equal(t, 0, s.Current().Len())
	assert.Empty(t, s.HotTopics())
}

func TestStore_ReplaceWithEmpty(t *testing.T) {
	s := NewStore(DefaultHotTopicThreshold)
	s.Replace([]Item{{ID: "1", ImageURLs: img(1), ViewCount: 5000}})
	require.Equal(t, 1, s.Current().Len())

	s.Replace(nil)
	assert.Equal(t, 0, s.Current().Len())
	assert.Empty(t, s.HotTopics())
}

func TestStore_HotTopicsPreserveOrder(t *testing.T) {
	s := NewStore(DefaultHotTopicThreshold)
	items := []Item{
		{ID: "0", ImageURLs: img(1), ViewCount: 1500},
		{ID: "1", ImageURLs: nil, ViewCount: 9000},
		{ID: "2", ImageURLs: img(2), ViewCount: 1000},
		{ID: "3", ImageURLs: img(1), ViewCount: 999},
	}
	s.Replace(items)

	hot := s.HotTopics()
	require.Len(t, hot, 2)
	assert.Equal(t, "0", hot[0].ID)
	assert.Equal(t, "2", hot[1].ID)
}

func TestStore_HotTopicsAreSubsequence(t *testing.T) {
	s := NewStore(100)
	var items []Item
	for i := 0; i < 40; i++ {
		it := Item{ID: string(rune('A' + i)), ViewCount: (i * 37) % 300}
		if i%3 != 0 {
			it.ImageURLs = img(1)
		}
		items = append(items, it)
	}
	s.Replace(items)

	primary := s.Current().Items()
	j := 0
	for _, h := range s.HotTopics() {
		for j < len(primary) && primary[j].ID != h.ID {
			j++
		}
		require.Less(t, j, len(primary), "hot topic %s not found in order", h.ID)
		assert.True(t, h.IsHotTopic(100))
		j++
	}
}

func TestStore_EmptyImageStringsDoNotQualify(t *testing.T) {
	s := NewStore(DefaultHotTopicThreshold)
	s.Replace([]Item{{ID: "x", ImageURLs: []string{""}, ViewCount: 4000}})
	assert.Empty(t, s.HotTopics())
}

func TestStore_ReplaceCopiesInput(t *testing.T) {
	s := NewStore(DefaultHotTopicThreshold)
	items := []Item{{ID: "a", Title: "before", ImageURLs: []string{"u"}}}
	s.Replace(items)

	items[0].Title = "after"
	items[0].ImageURLs[0] = "changed"

	got := s.Current().At(0)
	assert.Equal(t, "before", got.Title)
	assert.Equal(t, "u", got.ImageURLs[0])
}

func TestStore_CurrentIsStableAcrossReplace(t *testing.T) {
	s := NewStore(DefaultHotTopicThreshold)
	s.Replace([]Item{{ID: "old"}})
	old := s.Current()

	s.Replace([]Item{{ID: "new1"}, {ID: "new2"}})

	assert.Equal(t, 1, old.Len())
	assert.Equal(t, "old", old.At(0).ID)
	assert.Equal(t, 2, s.Current().Len())
}

func TestStore_NegativeThresholdFallsBack(t *testing.T) {
	s := NewStore(-1)
	assert.Equal(t, DefaultHotTopicThreshold, s.Threshold())
}

func TestSynthesizeViewCount(t *testing.T) {
	a := SynthesizeViewCount("article-42")
	assert.Equal(t, a, SynthesizeViewCount("article-42"))
	assert.GreaterOrEqual(t, a, 0)
	assert.Less(t, a, 5000)
}

func TestItem_FirstImage(t *testing.T) {
	it := Item{ImageURLs: []string{"", "https://a/b.png"}}
	assert.True(t, it.HasImage())
	assert.Equal(t, "https://a/b.png", it.FirstImage())
	assert.Equal(t, "", Item{}.FirstImage())
}
