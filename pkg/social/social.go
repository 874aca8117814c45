// Package social converts tweet and user dumps into story graph sources,
// documents and the edges between them.
package social

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/Go-Global/storygraph-v0/pkg/logging"
	"github.com/Go-Global/storygraph-v0/pkg/model"
	"github.com/Go-Global/storygraph-v0/pkg/storygraph"
)

const (
	SourceTypeTwitter = "twitter_account"
	DocTypeTweet      = "tweet"

	InteractionReply   = "reply"
	InteractionRetweet = "retweet"
	InteractionQuote   = "quote"
)

// Mention is a user referenced in a tweet.
type Mention struct {
	ID         string
	ScreenName string
	Name       string
}

// Tweet is the subset of a tweet the graph builder reads. Raw holds the
// whole decoded object and becomes the document's attributes.
type Tweet struct {
	ID                string `json:"id_str"`
	ConversationID    string `json:"conversation_id_str"`
	CreatedAt         string `json:"created_at"`
	FullText          string `json:"full_text"`
	UserID            string `json:"user_id_str"`
	Lang              string `json:"lang"`
	InReplyToStatusID string `json:"in_reply_to_status_id_str"`
	InReplyToUserID   string `json:"in_reply_to_user_id_str"`
	QuotedStatusID    string `json:"quoted_status_id_str"`
	RetweetedStatusID string `json:"retweeted_status_id_str"`

	Mentions []Mention     `json:"-"`
	Raw      map[string]any `json:"-"`
}

// User is the subset of a user profile the graph builder reads.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`

	Raw map[string]any `json:"-"`
}

// Time parses the tweet's created_at; the zero time when absent or malformed.
func (t *Tweet) Time() time.Time {
	ts, err := time.Parse(time.RubyDate, t.CreatedAt)
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}

// DecodeTweets reads a JSON object of tweets keyed by id.
func DecodeTweets(r io.Reader) (map[string]*Tweet, error) {
	raw, err := decodeObjects(r)
	if err != nil {
		return nil, fmt.Errorf("decode tweets: %w", err)
	}
	out := make(map[string]*Tweet, len(raw))
	for id, msg := range raw {
		var t Tweet
		if err := json.Unmarshal(msg, &t); err != nil {
			return nil, fmt.Errorf("decode tweet %s: %w", id, err)
		}
		if t.Raw, err = decodeRaw(msg); err != nil {
			return nil, fmt.Errorf("decode tweet %s: %w", id, err)
		}
		if t.ID == "" {
			t.ID = id
		}
		t.Mentions = mentions(t.Raw)
		out[id] = &t
	}
	return out, nil
}

// DecodeUsers reads a JSON object of users keyed by id.
func DecodeUsers(r io.Reader) (map[string]*User, error) {
	raw, err := decodeObjects(r)
	if err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	out := make(map[string]*User, len(raw))
	for id, msg := range raw {
		var u User
		if err := json.Unmarshal(msg, &u); err != nil {
			return nil, fmt.Errorf("decode user %s: %w", id, err)
		}
		if u.Raw, err = decodeRaw(msg); err != nil {
			return nil, fmt.Errorf("decode user %s: %w", id, err)
		}
		if u.ID == "" {
			u.ID = id
		}
		out[id] = &u
	}
	return out, nil
}

func decodeObjects(r io.Reader) (map[string]json.RawMessage, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func decodeRaw(msg json.RawMessage) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(msg))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	return normalizeNumbers(m).(map[string]any), nil
}

// normalizeNumbers turns json.Number into int64 when integral, float64
// otherwise, and drops nulls, which the store cannot hold.
func normalizeNumbers(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		f, _ := x.Float64()
		return f
	case map[string]any:
		for k, e := range x {
			if e == nil {
				delete(x, k)
				continue
			}
			x[k] = normalizeNumbers(e)
		}
		return x
	case []any:
		out := x[:0]
		for _, e := range x {
			if e != nil {
				out = append(out, normalizeNumbers(e))
			}
		}
		return out
	}
	return v
}

func mentions(raw map[string]any) []Mention {
	entities, ok := raw["entities"].(map[string]any)
	if !ok {
		return nil
	}
	list, _ := entities["user_mentions"].([]any)
	var out []Mention
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		id, _ := m["id_str"].(string)
		if id == "" {
			continue
		}
		screen, _ := m["screen_name"].(string)
		name, _ := m["name"].(string)
		out = append(out, Mention{ID: id, ScreenName: screen, Name: name})
	}
	return out
}

// attrsWithoutReserved renames keys that clash with node identity fields.
func attrsWithoutReserved(raw map[string]any, prefix string) map[string]any {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		switch k {
		case model.PropKey, model.PropTitle, model.PropType,
			model.PropSourceType, model.PropDocType, model.PropDateProcessed:
			out[prefix+"_"+k] = v
		default:
			out[k] = v
		}
	}
	return out
}

// Builder assembles the graph for one batch of tweets and users.
type Builder struct {
	logger logging.Logger
	now    func() time.Time
}

// NewBuilder creates a builder. logger may be nil.
func NewBuilder(logger logging.Logger) *Builder {
	return &Builder{
		logger: logging.OrNop(logger).With(logging.Component("social")),
		now:    time.Now,
	}
}

// Build creates a source per user, a document per tweet and the authored,
// interacts and references edges between them. Authors and mentioned users
// without a profile get a placeholder source marked hydrated=false.
// Interactions with tweets outside the batch are skipped.
func (b *Builder) Build(title string, tweets map[string]*Tweet, users map[string]*User) (*storygraph.StoryGraph, error) {
	sources := make(map[string]*model.Node)
	docs := make(map[string]*model.Node)

	for _, id := range sortedKeys(users) {
		u := users[id]
		src, err := model.NewSource(u.ID, u.Name, SourceTypeTwitter, attrsWithoutReserved(u.Raw, "user"))
		if err != nil {
			return nil, fmt.Errorf("user %s: %w", id, err)
		}
		src.Attrs["hydrated"] = true
		sources[u.ID] = src
	}

	placeholder := func(id, name string) (*model.Node, error) {
		if src, ok := sources[id]; ok {
			return src, nil
		}
		if name == "" {
			name = id
		}
		src, err := model.NewSource(id, name, SourceTypeTwitter, map[string]any{"hydrated": false})
		if err != nil {
			return nil, err
		}
		b.logger.Debug("placeholder source created", logging.NodeKey(id))
		sources[id] = src
		return src, nil
	}

	processed := b.now().UTC()
	tweetIDs := sortedKeys(tweets)
	for _, id := range tweetIDs {
		t := tweets[id]
		doc, err := model.NewDocument(t.ID, t.FullText, DocTypeTweet, processed, attrsWithoutReserved(t.Raw, "tweet"))
		if err != nil {
			return nil, fmt.Errorf("tweet %s: %w", id, err)
		}
		docs[t.ID] = doc
	}

	var edges []*model.Edge
	add := func(label model.Label, src, dst *model.Node, opts ...model.EdgeOption) error {
		e, err := model.NewEdge(label, src.Ref(), dst.Ref(), opts...)
		if err != nil {
			return err
		}
		edges = append(edges, e)
		return nil
	}

	for _, id := range tweetIDs {
		t := tweets[id]
		doc := docs[t.ID]
		when := model.WithTimestamp(0)
		if ts := t.Time(); !ts.IsZero() {
			when = model.WithTime(ts)
		}

		if t.UserID == "" {
			b.logger.Warn("tweet without author", logging.NodeKey(t.ID))
			continue
		}
		author, err := placeholder(t.UserID, "")
		if err != nil {
			return nil, err
		}
		if err := add(model.Authored, author, doc, when); err != nil {
			return nil, err
		}

		interactions := []struct {
			target string
			kind   string
		}{
			{t.InReplyToStatusID, InteractionReply},
			{t.RetweetedStatusID, InteractionRetweet},
			{t.QuotedStatusID, InteractionQuote},
		}
		for _, in := range interactions {
			if in.target == "" {
				continue
			}
			target, ok := docs[in.target]
			if !ok {
				b.logger.Debug("interaction target outside batch", logging.NodeKey(in.target), logging.String("interaction", in.kind))
				continue
			}
			if err := add(model.Interacts, author, target, when, model.WithInteractionType(in.kind)); err != nil {
				return nil, err
			}
			if in.kind == InteractionQuote {
				if err := add(model.References, doc, target, when); err != nil {
					return nil, err
				}
			}
		}

		if t.InReplyToUserID != "" && t.InReplyToUserID != t.UserID {
			if replied, ok := sources[t.InReplyToUserID]; ok {
				if err := add(model.Interacts, author, replied, when, model.WithInteractionType(InteractionReply)); err != nil {
					return nil, err
				}
			}
		}

		for _, m := range t.Mentions {
			mentioned, err := placeholder(m.ID, m.Name)
			if err != nil {
				return nil, err
			}
			if err := add(model.References, doc, mentioned, when); err != nil {
				return nil, err
			}
		}
	}

	nodes := make([]*model.Node, 0, len(sources)+len(docs))
	for _, id := range sortedKeys(sources) {
		nodes = append(nodes, sources[id])
	}
	for _, id := range sortedKeys(docs) {
		nodes = append(nodes, docs[id])
	}

	g := storygraph.New(title, storygraph.WithLogger(b.logger))
	if err := g.Load(nodes, edges); err != nil {
		return nil, err
	}
	b.logger.Info("social graph built",
		logging.Int("sources", len(sources)),
		logging.Int("documents", len(docs)),
		logging.Int("edges", g.EdgeCount()))
	return g, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
