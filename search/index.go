// Package search keeps an in-memory full-text index of chat messages so
// the client can grep its own history. Purely local, no protocol surface.
package search

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/abadojack/whatlanggo"
	"github.com/blugelabs/bluge"

	"pschat/domain"
	"pschat/domain/event"
)

// Index wraps one bluge writer. It doubles as an event sink: chat
// messages flowing through the dispatcher are indexed as they arrive.
type Index struct {
	writer *bluge.Writer
	log    *slog.Logger
}

// Hit is one search result, newest-first.
type Hit struct {
	MessageID string
	RoomID    string
	User      string
	Content   string
	Lang      string
}

func NewIndex(log *slog.Logger) (*Index, error) {
	writer, err := bluge.OpenWriter(bluge.InMemoryOnlyConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open bluge writer: %w", err)
	}
	return &Index{writer: writer, log: log}, nil
}

func (i *Index) Close() error {
	return i.writer.Close()
}

// Add indexes one chat message. The detected language is stored alongside
// so results can be filtered downstream.
func (i *Index) Add(roomID string, m *domain.Message) error {
	info := whatlanggo.Detect(m.Content)
	lang := info.Lang.Iso6391()

	doc := bluge.NewDocument(m.ID.String()).
		AddField(bluge.NewKeywordField("room", roomID).StoreValue()).
		AddField(bluge.NewKeywordField("user", string(domain.ToID(m.User))).StoreValue()).
		AddField(bluge.NewTextField("content", m.Content).StoreValue()).
		AddField(bluge.NewKeywordField("lang", lang).StoreValue())

	if err := i.writer.Update(doc.ID(), doc); err != nil {
		return fmt.Errorf("failed to index message %s: %w", m.ID, err)
	}
	return nil
}

// Search matches message content, optionally filtered to one room.
func (i *Index) Search(ctx context.Context, q, roomID string, limit int) ([]Hit, error) {
	reader, err := i.writer.Reader()
	if err != nil {
		return nil, fmt.Errorf("failed to open index reader: %w", err)
	}
	defer reader.Close()

	query := bluge.NewBooleanQuery().
		AddMust(bluge.NewMatchQuery(q).SetField("content"))
	if roomID != "" {
		query.AddMust(bluge.NewTermQuery(roomID).SetField("room"))
	}

	req := bluge.NewTopNSearch(limit, query).SortBy([]string{"-_score"})
	dmi, err := reader.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	var hits []Hit
	for match, err := dmi.Next(); match != nil; match, err = dmi.Next() {
		if err != nil {
			return nil, fmt.Errorf("iterating search results: %w", err)
		}
		hit := Hit{}
		visitErr := match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				hit.MessageID = string(value)
			case "room":
				hit.RoomID = string(value)
			case "user":
				hit.User = string(value)
			case "content":
				hit.Content = string(value)
			case "lang":
				hit.Lang = string(value)
			}
			return true
		})
		if visitErr != nil {
			return nil, visitErr
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// Consume indexes chat messages as they are added; other events are
// ignored.
func (i *Index) Consume(e event.DomainEvent) {
	added, ok := e.(event.MessageAdded)
	if !ok || added.Message.Kind != domain.KindChat {
		return
	}
	if err := i.Add(added.RoomID, added.Message); err != nil {
		i.log.Warn("failed to index message", "room", added.RoomID, "err", err)
	}
}
