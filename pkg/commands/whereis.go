package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
)

const ItemNotFoundText = "`Item not found.`"

// Attachment names a local image that can be uploaded instead of the
// markdown reply.
type Attachment struct {
	File     string
	MIMEType string
	Caption  string
}

// Entry is one whereis answer and every alias that selects it.
type Entry struct {
	Aliases    []string
	Reply      string
	Attachment *Attachment
}

const whereisCDN = "https://cdn.discordapp.com/attachments/509717926807601182/"

// WhereIsTable is the deployed alias table. Aliases are stored normalized.
// Item images are served from a CDN because the homeserver media repo was
// unreliable; Spider Ball also ships a local attachment for deployments
// that enable uploads.
var WhereIsTable = []Entry{
	{
		Aliases: []string{"faq"},
		Reply:   FAQText,
	},
	{
		Aliases: []string{"changelog"},
		Reply:   ChangelogText,
	},
	{
		Aliases: []string{"doc", "doctorm64", "milton"},
		Reply:   "`Creating games at Moon Studios!` https://www.orithegame.com/",
	},
	{
		Aliases: []string{"ridley", "kraid", "croc", "crocomire"},
		Reply:   "`Waiting to challenge Samus in Metroid: Confrontation!` https://metroid2remake.blogspot.com/p/metroid-confrontation.html",
	},
	{
		Aliases: []string{"druid", "druidvorse"},
		Reply:   "`Spaceboosting across SR388 on YouTube and Twitch!`",
	},
	{
		Aliases: []string{"sabre320", "sabre"},
		Reply:   "`Exploring the history of Dinosaur Planet!`",
	},
	{
		Aliases: []string{"syphonzoa"},
		Reply:   "`Feasting on the endless buffet of Hornoads in AM2R: The Horde!` https://github.com/Hornoads/AM2R-The-Horde-Multitroid/releases",
	},
	{
		Aliases: []string{"am2r", "am2r_11", "am2r 1.1"},
		Reply:   "`Once on the internet, always on the internet. Let Google be your guide.`",
	},
	{
		Aliases: []string{"bomb", "bombs"},
		Reply:   whereisCDN + "1076652269543620618/whereis_bombs.gif",
	},
	{
		Aliases: []string{"spider", "spider ball", "spiderball"},
		Reply:   whereisCDN + "1076652295967748217/whereis_spiderball.gif",
		Attachment: &Attachment{
			File:     "whereis_spiderball.gif",
			MIMEType: "image/gif",
			Caption:  "Spider Ball",
		},
	},
	{
		Aliases: []string{"spring", "springball", "spring ball", "jumpball", "jump ball"},
		Reply:   whereisCDN + "1076652296357822577/whereis_springball.gif",
	},
	{
		Aliases: []string{"screw", "screw attack"},
		Reply:   whereisCDN + "1076652272701939882/whereis_screwattack.gif",
	},
	{
		Aliases: []string{"varia", "varia suit"},
		Reply:   whereisCDN + "1076652297825829025/whereis_variasuit.gif",
	},
	{
		Aliases: []string{"space", "spacejump", "space jump"},
		Reply:   whereisCDN + "1076652294717841489/whereis_spacejump.gif",
	},
	{
		Aliases: []string{"speed", "speedbooster", "speed booster"},
		Reply:   whereisCDN + "1076652295556702258/whereis_speedbooster.gif",
	},
	{
		Aliases: []string{"hijump", "highjump", "hi jump", "high jump"},
		Reply:   whereisCDN + "1076652270965497876/whereis_highjump.gif",
	},
	{
		Aliases: []string{"gravity", "gravity suit"},
		Reply:   whereisCDN + "1076652270407667812/whereis_gravitysuit.gif",
	},
	{
		Aliases: []string{"charge", "chargebeam", "charge beam"},
		Reply:   whereisCDN + "1076652269988225095/whereis_chargebeam.gif",
	},
	{
		Aliases: []string{"ice", "icebeam", "ice beam"},
		Reply:   whereisCDN + "1076652271464611840/whereis_icebeam.gif",
	},
	{
		Aliases: []string{"wave", "wavebeam", "wave beam"},
		Reply:   whereisCDN + "1076652300002656317/whereis_wavebeam.gif",
	},
	{
		Aliases: []string{"spazer", "spazerbeam", "spazer beam"},
		Reply:   whereisCDN + "1076652295078555739/whereis_spazerbeam.gif",
	},
	{
		Aliases: []string{"plasma", "plasmabeam", "plasma beam"},
		Reply:   whereisCDN + "1076652271909228646/whereis_plasmabeam.gif",
	},
	{
		Aliases: []string{"super", "supers", "super missile"},
		Reply:   whereisCDN + "1076652296890490931/whereis_supermissiles.gif",
	},
	{
		Aliases: []string{"pbomb", "pbombs", "powerbomb", "powerbombs", "power bomb", "power bombs"},
		Reply:   whereisCDN + "1076652272324444180/whereis_powerbombs.gif",
	},
}

// WhereIs looks its argument up in an alias table.
type WhereIs struct {
	table []Entry
	index map[string]int
	// assetsDir enables attachment replies when non-empty.
	assetsDir string
	readFile  func(string) ([]byte, error)
}

// NewWhereIs copies table, so later edits to the caller's slice do not
// reach the handler.
func NewWhereIs(table []Entry, assetsDir string) *WhereIs {
	w := &WhereIs{
		table:     cloneEntries(table),
		index:     make(map[string]int),
		assetsDir: assetsDir,
		readFile:  os.ReadFile,
	}
	for i, e := range w.table {
		for _, alias := range e.Aliases {
			key := NormalizeName(alias)
			if _, taken := w.index[key]; !taken {
				w.index[key] = i
			}
		}
	}
	return w
}

// Lookup trims and lowercases item before matching.
func (w *WhereIs) Lookup(item string) (Entry, bool) {
	i, ok := w.index[NormalizeName(item)]
	if !ok {
		return Entry{}, false
	}
	return w.table[i].clone(), true
}

// Entries returns a copy of the table in lookup order.
func (w *WhereIs) Entries() []Entry {
	return cloneEntries(w.table)
}

func (e Entry) clone() Entry {
	e.Aliases = slices.Clone(e.Aliases)
	if e.Attachment != nil {
		a := *e.Attachment
		e.Attachment = &a
	}
	return e
}

func cloneEntries(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		out[i] = e.clone()
	}
	return out
}

func (w *WhereIs) Handle(ctx context.Context, room Room, args string) error {
	entry, ok := w.Lookup(args)
	if !ok {
		return room.SendMarkdown(ctx, ItemNotFoundText)
	}

	if entry.Attachment != nil && w.assetsDir != "" {
		path := filepath.Join(w.assetsDir, entry.Attachment.File)
		data, err := w.readFile(path)
		if err != nil {
			return fmt.Errorf("read whereis image %s: %w", path, err)
		}
		return room.SendAttachment(ctx, entry.Attachment.Caption, entry.Attachment.MIMEType, data)
	}

	return room.SendMarkdown(ctx, entry.Reply)
}
