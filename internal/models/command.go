package models

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type Kind string

const (
	KindQuiz      Kind = "quiz"
	KindDiagnosis Kind = "diagnosis"
)

// ParseKind accepts the sheet's Japanese labels as well as the English names.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "クイズ", "quiz":
		return KindQuiz, true
	case "診断", "diagnosis":
		return KindDiagnosis, true
	}
	return "", false
}

// CommandDef is one row of the master list: a bot command bound to the sheets
// holding its questions (and results, for diagnoses).
type CommandDef struct {
	Name           string
	Kind           Kind
	Title          string
	QuestionsSheet string
	ResultsSheet   string
	AllowedChatID  string
}

// Telegram command names: 1-32 chars of lowercase letters, digits and underscores.
var commandNamePattern = regexp.MustCompile(`^[a-z0-9_]{1,32}$`)

type commandRow struct {
	Name           string `col:"command_name" validate:"required"`
	Title          string `col:"bot_title" validate:"required"`
	QuestionsSheet string `col:"sheet_questions" validate:"required"`
}

// ParseCommandDef parses a master list row. Inactive rows return ok=false and no error.
func ParseCommandDef(row map[string]string) (def CommandDef, ok bool, err error) {
	if !strings.EqualFold(field(row, "is_active"), "TRUE") {
		return CommandDef{}, false, nil
	}

	raw := commandRow{
		Name:           strings.TrimPrefix(field(row, "command_name"), "/"),
		Title:          field(row, "bot_title"),
		QuestionsSheet: field(row, "sheet_questions"),
	}
	id := idOf(row, "command_name")
	if err := validateRow(id, raw); err != nil {
		return CommandDef{}, false, err
	}

	kind, known := ParseKind(field(row, "type"))
	if !known {
		return CommandDef{}, false, malformed(id, fmt.Sprintf("unknown type %q", field(row, "type")))
	}
	if !commandNamePattern.MatchString(raw.Name) {
		return CommandDef{}, false, malformed(id, fmt.Sprintf("invalid command name %q", raw.Name))
	}

	def = CommandDef{
		Name:           raw.Name,
		Kind:           kind,
		Title:          raw.Title,
		QuestionsSheet: raw.QuestionsSheet,
		ResultsSheet:   field(row, "sheet_results"),
		AllowedChatID:  field(row, "allowed_channel_id", "allowed_chat_id"),
	}
	if kind == KindDiagnosis && def.ResultsSheet == "" {
		return CommandDef{}, false, malformed(id, "diagnosis requires sheet_results")
	}
	return def, true, nil
}

// Restricted reports whether the command is limited to a single chat.
func (d CommandDef) Restricted() bool {
	switch d.AllowedChatID {
	case "", "N/A", "0":
		return false
	}
	return true
}

func (d CommandDef) AllowsChat(chatID int64) bool {
	if !d.Restricted() {
		return true
	}
	return d.AllowedChatID == strconv.FormatInt(chatID, 10)
}
