package telegram

import (
	"errors"
	"fmt"
	"html"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shujifujiki-cultech/music-quiz-bot/internal/logger"
	"github.com/shujifujiki-cultech/music-quiz-bot/internal/models"
	"github.com/shujifujiki-cultech/music-quiz-bot/internal/session"
	"github.com/shujifujiki-cultech/music-quiz-bot/internal/sheets"
)

const (
	ParseModeHTML = "HTML"

	reviewItemsPerPage = 10
	reviewCharsPerPage = 3800
	reviewItemMaxChars = 1000
	historyLimit       = 10
)

// Presenter turns session state into message text. It does no I/O.
type Presenter struct {
	timeout time.Duration
}

func NewPresenter(timeout time.Duration) *Presenter {
	return &Presenter{timeout: timeout}
}

func esc(s string) string {
	return html.EscapeString(s)
}

func (p *Presenter) header(v session.QuestionView) string {
	if v.Kind == models.KindDiagnosis {
		return fmt.Sprintf("<b>【%s】 - 質問 %d/%d</b>", esc(v.Title), v.Index+1, v.Total)
	}
	return fmt.Sprintf("<b>【%s】 - 第%d問</b>", esc(v.Title), v.Index+1)
}

func (p *Presenter) Question(v session.QuestionView) string {
	var b strings.Builder
	b.WriteString(p.header(v))
	if v.AxisName != "" {
		b.WriteString("\n<i>" + esc(v.AxisName) + "</i>")
	}
	b.WriteString("\n\n<b>" + esc(v.Prompt) + "</b>")
	if v.LetterButtons {
		b.WriteString("\n\n画像の選択肢から選んでください。")
	}
	if v.Kind == models.KindQuiz {
		fmt.Fprintf(&b, "\n\n全%d問 | 正解数: %d", v.Total, v.Correct)
	}
	return b.String()
}

func (p *Presenter) Feedback(v session.QuestionView, o session.Outcome) string {
	var b strings.Builder
	b.WriteString(p.header(v))
	b.WriteString("\n\n<b>" + esc(v.Prompt) + "</b>\n\n")

	if v.Kind == models.KindDiagnosis {
		b.WriteString("✅ 回答: " + esc(o.Chosen))
		return b.String()
	}

	if o.IsCorrect {
		b.WriteString("⭕ <b>正解！</b>")
	} else {
		b.WriteString("❌ <b>不正解...</b>")
		b.WriteString("\nあなたの回答: " + esc(o.Chosen))
	}
	b.WriteString("\n<b>正解:</b> " + esc(o.CorrectText))
	if o.Explanation != "" {
		b.WriteString("\n\n<b>解説:</b>\n" + esc(o.Explanation))
	}
	if !o.Finished {
		b.WriteString("\n\n⏳ 次の問題へ...")
	}
	return b.String()
}

// OptionCaption labels an option image in the album.
func (p *Presenter) OptionCaption(o session.OptionView) string {
	if o.Text == "" {
		return "選択肢 " + o.Label
	}
	return fmt.Sprintf("選択肢 %s: %s", o.Label, o.Text)
}

func (p *Presenter) AudioLink(url string) string {
	return "🎵 <b>音声を再生:</b>\n" + esc(url)
}

func (p *Presenter) Summary(s session.Summary) string {
	if s.Kind == models.KindDiagnosis && s.Diagnosis != nil {
		return p.diagnosisResult(s)
	}
	return fmt.Sprintf("<b>【%s】 - 結果発表</b>\n\n✨ <b>%s</b> ✨\n\n正解数: <b>%d/%d問</b> (%d%%)\n\n%s",
		esc(s.Title), esc(s.Grade.Label()), s.Correct, s.Total, s.Percent, esc(s.Grade.Message))
}

func (p *Presenter) diagnosisResult(s session.Summary) string {
	r := s.Diagnosis.Result
	var b strings.Builder
	fmt.Fprintf(&b, "<b>【%s】 - 診断結果</b>\n\n✨ <b>%s</b> ✨", esc(s.Title), esc(r.TypeName))
	if r.Description != "" {
		b.WriteString("\n\n" + esc(r.Description))
	}
	sections := []struct{ title, body string }{
		{"💪 あなたの強み", r.Strength},
		{"⚠️ 改善ポイント", r.Weakness},
		{"📝 アドバイス", r.Advice},
	}
	for _, sec := range sections {
		if sec.body == "" {
			continue
		}
		fmt.Fprintf(&b, "\n\n<b>%s</b>\n%s", sec.title, esc(sec.body))
	}
	return b.String()
}

// Review renders the trail as one or more messages. A page holds at most
// reviewItemsPerPage items and reviewCharsPerPage characters; an item is
// never split across pages.
func (p *Presenter) Review(s session.Summary) []string {
	if len(s.Trail) == 0 {
		return nil
	}
	items := make([]string, len(s.Trail))
	for i, e := range s.Trail {
		items[i] = p.reviewItem(s.Kind, e)
	}

	pages := Paginate(items, reviewItemsPerPage, reviewCharsPerPage-len("📝 <b>復習 - 全問題の詳細</b> (00/00)\n\n"))
	out := make([]string, len(pages))
	for i, page := range pages {
		title := "📝 <b>復習 - 全問題の詳細</b>"
		if len(pages) > 1 {
			title += fmt.Sprintf(" (%d/%d)", i+1, len(pages))
		}
		out[i] = title + "\n\n" + strings.Join(page, "\n\n")
	}
	return out
}

func (p *Presenter) reviewItem(kind models.Kind, e session.Entry) string {
	var body string
	var icon string
	if kind == models.KindDiagnosis {
		icon = "▫️"
		body = fmt.Sprintf("質問: %s\n回答: %s", e.Prompt, e.Chosen)
	} else {
		icon = "❌"
		if e.IsCorrect {
			icon = "⭕"
		}
		body = fmt.Sprintf("問題: %s\nあなたの回答: %s\n正解: %s", e.Prompt, e.Chosen, e.Correct)
		if e.Explanation != "" {
			body += "\n解説: " + e.Explanation
		}
	}
	return fmt.Sprintf("%s <b>第%d問</b>\n%s", icon, e.Index+1, esc(logger.Truncate(body, reviewItemMaxChars)))
}

// Paginate groups items into pages without splitting any item. Items are
// joined with a blank line, which counts toward maxChars.
func Paginate(items []string, maxItems, maxChars int) [][]string {
	var pages [][]string
	var page []string
	size := 0
	for _, it := range items {
		n := utf8.RuneCountInString(it)
		extra := n
		if len(page) > 0 {
			extra += 2
		}
		if len(page) > 0 && (len(page) == maxItems || size+extra > maxChars) {
			pages = append(pages, page)
			page, size, extra = nil, 0, n
		}
		page = append(page, it)
		size += extra
	}
	if len(page) > 0 {
		pages = append(pages, page)
	}
	return pages
}

func (p *Presenter) limitText() string {
	if p.timeout%time.Minute == 0 {
		return fmt.Sprintf("%d分", int(p.timeout/time.Minute))
	}
	return fmt.Sprintf("%d秒", int(p.timeout/time.Second))
}

func (p *Presenter) Timeout(r session.TimeoutReport) string {
	if r.Kind == models.KindDiagnosis {
		return fmt.Sprintf("⏰ <b>タイムアウト</b>\n\n診断セッションの制限時間（%s）が経過しました。\n\n<b>回答済み:</b> %d/%d問\n\n再度診断を受ける場合は /%s を送信してください。",
			p.limitText(), r.Answered, r.Total, r.Command)
	}
	return fmt.Sprintf("⏰ <b>タイムアウト</b>\n\nクイズセッションの制限時間（%s）が経過しました。\n\n<b>正解数:</b> %d/%d問\n\n再度遊ぶ場合は /%s を送信してください。",
		p.limitText(), r.Correct, r.Answered, r.Command)
}

func (p *Presenter) Stale(command string) string {
	if command == "" {
		return "このセッションは終了しています。コマンドを送信して再度お試しください。"
	}
	return fmt.Sprintf("このセッションは終了しています。\n再度遊ぶ場合は /%s を送信してください。", command)
}

func (p *Presenter) Announcement(userName, title string) string {
	return fmt.Sprintf("<b>%s が「%s」に挑戦します！</b> 🎵", esc(userName), esc(title))
}

func (p *Presenter) Loading(title string) string {
	return fmt.Sprintf("⏳ 「%s」を準備しています...", esc(title))
}

func (p *Presenter) Restricted(def models.CommandDef) string {
	return fmt.Sprintf("このコマンド（/%s）は、このチャットでは実行できません。\n（チャット ID %s でお試しください）",
		def.Name, esc(def.AllowedChatID))
}

func (p *Presenter) LoadError(def models.CommandDef, err error) string {
	var mre *models.MalformedRecordError
	if errors.As(err, &mre) {
		return fmt.Sprintf("エラー: クイズデータの形式が正しくありません。(sheet: %s, %d行目, ID: %s): %s",
			esc(mre.Sheet), mre.Row, esc(mre.RecordID), esc(mre.Reason))
	}
	var dfe *sheets.DataFetchError
	if errors.As(err, &dfe) {
		return fmt.Sprintf("エラー: クイズデータ（%s）を読み込めませんでした。", esc(dfe.Sheet))
	}
	return "予期せぬエラーが発生しました。"
}

func (p *Presenter) Help(defs []models.CommandDef, historyEnabled bool) string {
	var b strings.Builder
	b.WriteString("🎵 <b>利用できるコマンド</b>\n")
	if len(defs) == 0 {
		b.WriteString("\n現在利用できるクイズはありません。")
	}
	for _, d := range defs {
		kind := "クイズ"
		if d.Kind == models.KindDiagnosis {
			kind = "診断"
		}
		fmt.Fprintf(&b, "\n/%s - %s（%s）", d.Name, esc(d.Title), kind)
	}
	if historyEnabled {
		b.WriteString("\n\n/history - 最近の結果")
	}
	return b.String()
}

func (p *Presenter) History(records []models.PlayRecord) string {
	if len(records) == 0 {
		return "📊 まだ記録がありません。"
	}
	lines := []string{"📊 <b>最近の結果</b>\n"}
	for _, r := range records {
		line := fmt.Sprintf("• %s <b>%s</b>", r.CreatedAt.Format("01/02 15:04"), esc(r.Title))
		switch {
		case r.Status == models.PlayStatusTimedOut:
			line += fmt.Sprintf(" ｜ ⏰ 時間切れ (%d/%d問回答)", r.Answered, r.Total)
		case r.Kind == models.KindDiagnosis:
			line += " ｜ " + esc(r.ResultName)
		default:
			line += fmt.Sprintf(" ｜ %d/%d問 (%d%%) %s", r.Correct, r.Total, r.Percentage, esc(r.Grade))
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
