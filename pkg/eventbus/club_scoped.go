package eventbus

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
)

// PublishWithClubScope publishes to "{baseTopic}.{clubID}" so consumers can
// follow one club or every club with a wildcard.
func PublishWithClubScope(pub message.Publisher, baseTopic, clubID string, msg *message.Message) error {
	if clubID == "" {
		return fmt.Errorf("clubID cannot be empty for club-scoped publish")
	}
	return pub.Publish(FormatClubScopedTopic(baseTopic, clubID), msg)
}

// FormatClubScopedTopic formats a club scoped topic without publishing.
func FormatClubScopedTopic(baseTopic, clubID string) string {
	return fmt.Sprintf("%s.%s", baseTopic, clubID)
}
