package services

// Grade is a score tier shown on the quiz summary.
type Grade struct {
	MinPercent int
	Emoji      string
	Title      string
	Message    string
}

// Grades is ordered from the highest threshold down; the last entry catches
// everything below.
var Grades = []Grade{
	{MinPercent: 90, Emoji: "🏆", Title: "マスター!", Message: "素晴らしい!あなたは達人です!"},
	{MinPercent: 70, Emoji: "🎵", Title: "上級者", Message: "かなりの知識をお持ちですね!素晴らしいです!"},
	{MinPercent: 50, Emoji: "🎼", Title: "中級者", Message: "良い結果です!もう少し学ぶと更に楽しめますよ!"},
	{MinPercent: 0, Emoji: "🎹", Title: "初級者", Message: "これから学んでいきましょう!"},
}

// Percentage is correct/total as a whole percent, truncated. 2 of 3 is 66.
func Percentage(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return correct * 100 / total
}

func GradeFor(percent int) Grade {
	for _, g := range Grades {
		if percent >= g.MinPercent {
			return g
		}
	}
	return Grades[len(Grades)-1]
}

func (g Grade) Label() string {
	return g.Emoji + " " + g.Title
}
