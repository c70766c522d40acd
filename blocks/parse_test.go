package blocks

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseConcatenationReproducesContent(t *testing.T) {
	content := "#hashtags, are neat https://github.com/damus-io"
	bs := Parse(content)

	var rebuilt strings.Builder
	for _, b := range bs {
		rebuilt.WriteString(b.AsStr())
	}
	require.Equal(t, content, rebuilt.String())
}

func TestParseHashtagAndURL(t *testing.T) {
	content := "#hashtags, are neat https://github.com/damus-io"
	bs := Parse(content)
	require.GreaterOrEqual(t, len(bs), 3)
	require.Equal(t, KindHashtag, bs[0].Kind)
	require.Equal(t, "hashtags", bs[0].Hashtag)

	last := bs[len(bs)-1]
	require.Equal(t, KindURL, last.Kind)
	require.Equal(t, "https://github.com/damus-io", last.URL)
}

func TestParseMentionIndex(t *testing.T) {
	content := "see #[0] for details"
	bs := Parse(content)
	require.Equal(t, KindMentionIndex, bs[1].Kind)
	require.Equal(t, 0, bs[1].MentionIndex)
}
