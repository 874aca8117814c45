package social

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Go-Global/storygraph-v0/pkg/model"
)

const tweetsJSON = `{
  "1251317834453372929": {
    "conversation_id_str": "1251317834453372929",
    "created_at": "Sat Apr 18 00:21:26 +0000 2020",
    "favorite_count": 9598,
    "full_text": "Play inside, play for the world. @kobe",
    "id_str": "1251317834453372929",
    "lang": "en",
    "possibly_sensitive_editable": true,
    "retweet_count": 1817,
    "entities": {"user_mentions": [{"id_str": "1059194370", "screen_name": "kobe", "name": "Kobe"}]},
    "user_id_str": "415859364"
  },
  "1251320000000000000": {
    "created_at": "Sat Apr 18 01:00:00 +0000 2020",
    "full_text": "love this",
    "id_str": "1251320000000000000",
    "in_reply_to_status_id_str": "1251317834453372929",
    "in_reply_to_user_id_str": "415859364",
    "quoted_status_id_str": null,
    "user_id_str": "99"
  }
}`

const usersJSON = `{
  "415859364": {
    "created_at": "Wed Nov 16 02:24:56 +0000 2011",
    "description": "#BeTrue",
    "followers_count": 8108722,
    "id": "415859364",
    "location": "Beaverton, Oregon",
    "name": "Nike",
    "username": "Nike"
  }
}`

func decodeSample(t *testing.T) (map[string]*Tweet, map[string]*User) {
	t.Helper()
	tweets, err := DecodeTweets(strings.NewReader(tweetsJSON))
	require.NoError(t, err)
	users, err := DecodeUsers(strings.NewReader(usersJSON))
	require.NoError(t, err)
	return tweets, users
}

func TestDecodeTweets(t *testing.T) {
	tweets, _ := decodeSample(t)
	require.Len(t, tweets, 2)

	tw := tweets["1251317834453372929"]
	assert.Equal(t, "415859364", tw.UserID)
	assert.Equal(t, time.Date(2020, 4, 18, 0, 21, 26, 0, time.UTC), tw.Time())
	assert.Equal(t, int64(9598), tw.Raw["favorite_count"])
	assert.Equal(t, []Mention{{ID: "1059194370", ScreenName: "kobe", Name: "Kobe"}}, tw.Mentions)

	reply := tweets["1251320000000000000"]
	_, hasNull := reply.Raw["quoted_status_id_str"]
	assert.False(t, hasNull, "null values are dropped")
}

func TestDecodeRejectsMalformedInput(t *testing.T) {
	_, err := DecodeTweets(strings.NewReader(`[1, 2]`))
	assert.Error(t, err)
}

func TestBuild(t *testing.T) {
	tweets, users := decodeSample(t)
	b := NewBuilder(nil)
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return fixed }

	g, err := b.Build("nike", tweets, users)
	require.NoError(t, err)

	nike, ok := g.Node("415859364")
	require.True(t, ok)
	assert.Equal(t, model.Source, nike.Type)
	assert.Equal(t, "Nike", nike.Title)
	assert.Equal(t, SourceTypeTwitter, nike.SourceType)
	assert.Equal(t, true, nike.Attrs["hydrated"])
	assert.Equal(t, int64(8108722), nike.Attrs["followers_count"])

	replier, ok := g.Node("99")
	require.True(t, ok)
	assert.Equal(t, false, replier.Attrs["hydrated"])

	kobe, ok := g.Node("1059194370")
	require.True(t, ok)
	assert.Equal(t, "Kobe", kobe.Title)

	doc, ok := g.Node("1251317834453372929")
	require.True(t, ok)
	assert.Equal(t, model.Document, doc.Type)
	assert.Equal(t, DocTypeTweet, doc.DocType)
	assert.Equal(t, fixed, doc.DateProcessed)
	assert.Equal(t, "kobe", doc.Attrs["entities_user_mentions_0_screen_name"])

	var labels []string
	for _, e := range g.Edges() {
		labels = append(labels, string(e.Label)+":"+e.Source.Key+"->"+e.Dest.Key)
	}
	assert.ElementsMatch(t, []string{
		"authored:415859364->1251317834453372929",
		"authored:99->1251320000000000000",
		"interacts:99->1251317834453372929",
		"interacts:99->415859364",
		"references:1251317834453372929->1059194370",
	}, labels)

	for _, e := range g.Edges() {
		if e.Label == model.Authored && e.Source.Key == "415859364" {
			assert.Equal(t, time.Date(2020, 4, 18, 0, 21, 26, 0, time.UTC), e.Time())
		}
		if e.Label == model.Interacts {
			assert.Equal(t, InteractionReply, e.Attrs[model.PropInteractionType])
		}
	}
}

func TestBuildRenamesReservedKeys(t *testing.T) {
	tweets := map[string]*Tweet{
		"1": {ID: "1", FullText: "x", UserID: "u", Raw: map[string]any{"type": "status", "title": "t"}},
	}
	g, err := NewBuilder(nil).Build("", tweets, nil)
	require.NoError(t, err)
	doc, _ := g.Node("1")
	assert.Equal(t, "status", doc.Attrs["tweet_type"])
	assert.Equal(t, "t", doc.Attrs["tweet_title"])
}

func TestBuildSkipsAuthorlessTweets(t *testing.T) {
	tweets := map[string]*Tweet{"1": {ID: "1", FullText: "x"}}
	g, err := NewBuilder(nil).Build("", tweets, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, g.NodeCount())
	assert.Equal(t, 0, g.EdgeCount())
}
