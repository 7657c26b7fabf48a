package archiver

import (
	"context"
	"log/slog"

	"github.com/asaskevich/EventBus"
	"github.com/mrosello/videograb/server/archive"
	"github.com/mrosello/videograb/server/config"
)

const completedTopic = "download:completed"

type Message = archive.Entity

var bus = EventBus.New()

// Register attaches the archive service to the completion topic.
// Handlers run asynchronously so archival never delays the orchestrator.
func Register(s archive.Service) error {
	return bus.SubscribeAsync(completedTopic, func(m *Message) {
		slog.Info("archiving completed download",
			slog.String("title", m.Title),
			slog.String("source", m.Source),
		)

		if err := s.Archive(context.Background(), m); err != nil {
			slog.Error("failed to archive download",
				slog.String("title", m.Title),
				slog.Any("err", err),
			)
		}
	}, false)
}

func Publish(m *Message) {
	if config.Instance().AutoArchive {
		bus.Publish(completedTopic, m)
	}
}
