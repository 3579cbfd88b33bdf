// Package tts generates speech audio for banking prompts. It is a
// self-contained utility with no state shared with the transcription
// service.
package tts

import (
	"regexp"
	"strings"
)

var (
	// "$123.45" reads as "123.45 dollars"
	currencyPattern = regexp.MustCompile(`\$(\d+\.?\d*)`)
	// Account and card numbers are spoken digit by digit
	digitRunPattern = regexp.MustCompile(`\d{4,}`)
)

// textTypePrefixes maps a banking message type to its spoken prefix
var textTypePrefixes = map[string]string{
	"balance":     "Account information: ",
	"transaction": "Transaction update: ",
	"security":    "Important security notice: ",
	"payment":     "Payment confirmation: ",
	"transfer":    "Transfer confirmation: ",
	"welcome":     "",
	"general":     "",
}

// FormatBankingText normalizes text for speech synthesis: currency amounts
// become spoken dollars, long digit runs are split so they are read digit by
// digit, and the message type adds its spoken prefix. Unknown types get no
// prefix.
func FormatBankingText(text, textType string) string {
	text = currencyPattern.ReplaceAllString(text, "${1} dollars")

	text = digitRunPattern.ReplaceAllStringFunc(text, func(digits string) string {
		return strings.Join(strings.Split(digits, ""), " ")
	})

	return textTypePrefixes[textType] + text
}
