package telegram

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shujifujiki-cultech/music-quiz-bot/internal/logger"
	"github.com/shujifujiki-cultech/music-quiz-bot/internal/models"
	"github.com/shujifujiki-cultech/music-quiz-bot/internal/sheets"
)

// MasterSource reads the command master list without caching.
type MasterSource interface {
	FreshRows(ctx context.Context, sheet string) ([]sheets.Row, error)
}

var builtinCommands = []BotCommand{
	{Command: "help", Description: "利用できるコマンドを表示します。"},
	{Command: "history", Description: "最近の結果を表示します。"},
}

func reserved(name string) bool {
	switch name {
	case "start", "help", "history":
		return true
	}
	return false
}

// CommandRegistry is the dispatch table from command name to its definition,
// loaded from the master list sheet.
type CommandRegistry struct {
	source   MasterSource
	sheet    string
	client   *Client
	interval time.Duration
	log      *slog.Logger

	mu    sync.RWMutex
	defs  map[string]models.CommandDef
	order []string
}

func NewCommandRegistry(source MasterSource, sheet string, client *Client, interval time.Duration) *CommandRegistry {
	return &CommandRegistry{
		source:   source,
		sheet:    sheet,
		client:   client,
		interval: interval,
		log:      logger.For("registry"),
		defs:     make(map[string]models.CommandDef),
	}
}

// Refresh reloads the master list. On a fetch error the previous table stays.
func (r *CommandRegistry) Refresh(ctx context.Context) error {
	rows, err := r.source.FreshRows(ctx, r.sheet)
	if err != nil {
		r.log.ErrorContext(ctx, "master list unavailable, keeping current commands", "error", err)
		return err
	}

	defs := make(map[string]models.CommandDef, len(rows))
	order := make([]string, 0, len(rows))
	for i, row := range rows {
		def, ok, err := models.ParseCommandDef(row)
		if err != nil {
			r.log.WarnContext(ctx, "skipping master list row", "row", i+2, "error", err)
			continue
		}
		if !ok {
			continue
		}
		if reserved(def.Name) {
			r.log.WarnContext(ctx, "command name is reserved", "command", def.Name)
			continue
		}
		if _, dup := defs[def.Name]; dup {
			r.log.WarnContext(ctx, "duplicate command, keeping first", "command", def.Name, "row", i+2)
			continue
		}
		defs[def.Name] = def
		order = append(order, def.Name)
	}

	r.mu.Lock()
	r.defs = defs
	r.order = order
	r.mu.Unlock()

	r.log.InfoContext(ctx, "commands loaded", "count", len(order))
	return r.publish(ctx)
}

func (r *CommandRegistry) publish(ctx context.Context) error {
	if r.client == nil {
		return nil
	}
	defs := r.List()
	commands := make([]BotCommand, 0, len(defs)+len(builtinCommands))
	for _, d := range defs {
		commands = append(commands, BotCommand{
			Command:     d.Name,
			Description: logger.Truncate(d.Title+" を開始します。", 250),
		})
	}
	commands = append(commands, builtinCommands...)

	if err := r.client.SetMyCommands(ctx, commands); err != nil {
		r.log.ErrorContext(ctx, "setMyCommands failed", "error", err)
		return err
	}
	return nil
}

// Run refreshes the table every interval until ctx is done.
func (r *CommandRegistry) Run(ctx context.Context) {
	if r.interval <= 0 {
		return
	}
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = r.Refresh(ctx)
		}
	}
}

func (r *CommandRegistry) Lookup(name string) (models.CommandDef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[name]
	return def, ok
}

// List returns the commands in master list order.
func (r *CommandRegistry) List() []models.CommandDef {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.CommandDef, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.defs[name])
	}
	return out
}
