package models

import "fmt"

// MaxOptionSlots bounds the option_N columns scanned per quiz row.
const MaxOptionSlots = 9

var optionLetters = [MaxOptionSlots]string{"A", "B", "C", "D", "E", "F", "G", "H", "I"}

// OptionLetter returns the display letter for a 0-based option position.
func OptionLetter(i int) string {
	if i >= 0 && i < len(optionLetters) {
		return optionLetters[i]
	}
	return fmt.Sprintf("%d", i+1)
}

type Option struct {
	Label    string // A, B, C...
	Text     string
	ImageURL string
}

// DisplayText is the option text, or "選択肢X" for image-only options.
func (o Option) DisplayText() string {
	if o.Text != "" {
		return o.Text
	}
	return "選択肢" + o.Label
}

func (o Option) HasImage() bool {
	return o.ImageURL != ""
}
