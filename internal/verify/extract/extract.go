// Package extract pulls the 14-digit Egyptian national ID out of raw OCR
// text. Card scans mix Eastern Arabic, Persian, and ASCII numerals, and the
// OCR frequently splits or merges digit groups, so extraction layers several
// strategies from strict to permissive.
package extract

import (
	"regexp"
	"strings"
)

var digitFolding = strings.NewReplacer(
	"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4",
	"٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9",
	"۰", "0", "۱", "1", "۲", "2", "۳", "3", "۴", "4",
	"۵", "5", "۶", "6", "۷", "7", "۸", "8", "۹", "9",
)

// NormalizeDigits folds Eastern Arabic and Persian numerals to ASCII digits.
// All other runes pass through unchanged.
func NormalizeDigits(text string) string {
	if text == "" {
		return ""
	}
	return digitFolding.Replace(text)
}

var (
	// Issue/expiry dates on the card (2024/5/13 and friends) would
	// otherwise feed digits into the looser strategies.
	datePattern = regexp.MustCompile(`\b\d{4}/\d{1,2}(/\d{1,2})?\b`)

	// A national ID is 14 digits and starts with the century digit 2 or 3.
	strictID   = regexp.MustCompile(`\b([23]\d{13})\b`)
	digitRun   = regexp.MustCompile(`\d+`)
	embeddedID = regexp.MustCompile(`([23]\d{13})`)
)

// NationalID extracts the national ID from OCR text. It returns the ID and
// true on success, or "" and false when no candidate survives.
//
// Strategy order:
//  1. A standalone 14-digit token starting with 2 or 3, after date tokens
//     are removed.
//  2. Two adjacent 7-digit groups (the OCR often splits the number at the
//     governorate code) whose join starts with 2 or 3.
//  3. A 14-digit ID embedded in a longer digit run, checked against the
//     text before date removal so dates fused onto the ID still resolve.
func NationalID(text string) (string, bool) {
	if text == "" {
		return "", false
	}
	normalized := NormalizeDigits(text)
	cleaned := datePattern.ReplaceAllString(normalized, "")

	if m := strictID.FindStringSubmatch(cleaned); m != nil {
		return m[1], true
	}

	groups := digitRun.FindAllString(cleaned, -1)
	for i := 0; i+1 < len(groups); i++ {
		if len(groups[i]) == 7 && len(groups[i+1]) == 7 {
			joined := groups[i] + groups[i+1]
			if joined[0] == '2' || joined[0] == '3' {
				return joined, true
			}
		}
	}

	for _, run := range digitRun.FindAllString(normalized, -1) {
		if len(run) > 14 {
			if m := embeddedID.FindStringSubmatch(run); m != nil {
				return m[1], true
			}
		}
	}

	return "", false
}
