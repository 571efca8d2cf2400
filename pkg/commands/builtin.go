package commands

import (
	"context"

	"github.com/am2r-community-developers/am2rbot/pkg/config"
)

const (
	PongText      = "🏓 pong 🏓"
	FAQText       = "**Community Updates FaQ**: https://am2r-community-developers.github.io/DistributionCenter/faq"
	ChangelogText = "**Cumulative AM2R Changelog**: https://am2r-community-developers.github.io/DistributionCenter/changelog"
)

// Ping replies with a fixed pong and ignores its argument.
type Ping struct{}

func (Ping) Handle(ctx context.Context, room Room, _ string) error {
	return room.SendText(ctx, PongText)
}

// MarkdownReply ignores its argument and always sends the same markdown.
type MarkdownReply string

func (m MarkdownReply) Handle(ctx context.Context, room Room, _ string) error {
	return room.SendMarkdown(ctx, string(m))
}

// Unknown is what Registry.Resolve hands out for unregistered names.
// It sends nothing.
type Unknown struct{}

func (Unknown) Handle(context.Context, Room, string) error {
	return nil
}

// BuiltinDefinitions returns the bot's command set. cfg may be nil, which
// keeps whereis on its remote image links.
func BuiltinDefinitions(cfg *config.Config) []Definition {
	assetsDir := ""
	if cfg != nil {
		assetsDir = cfg.AssetsDir()
	}

	return []Definition{
		{
			Name:        "ping",
			Description: "Check that the bot is alive",
			Usage:       "ping",
			Handler:     Ping{},
		},
		{
			Name:        "faq",
			Description: "Link the community updates FAQ",
			Usage:       "faq",
			Handler:     MarkdownReply(FAQText),
		},
		{
			Name:        "changelog",
			Description: "Link the cumulative AM2R changelog",
			Usage:       "changelog",
			Handler:     MarkdownReply(ChangelogText),
		},
		{
			Name:        "whereis",
			Description: "Show where an item or person can be found",
			Usage:       "whereis <item>",
			Handler:     NewWhereIs(WhereIsTable, assetsDir),
		},
	}
}
