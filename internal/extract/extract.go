/**
 * Number extraction from recognized text
 *
 * Scans OCR output for digit-bearing token runs (phone numbers, IDs, codes).
 * Deliberately permissive: false positives are acceptable, missed numbers are
 * not. No normalization is applied to matched runs.
 */

package extract

import "strings"

// MinRunLength is the default minimum raw length of a candidate run,
// measured before trimming.
const MinRunLength = 8

// Numbers scans text for maximal runs over the character class
// {digit, space, '+', '-'} of length >= MinRunLength, trims surrounding
// whitespace, and keeps runs containing at least two digits. Order of
// appearance is preserved and duplicates are kept.
func Numbers(text string) []string {
	return NumbersMin(text, MinRunLength)
}

// NumbersMin is Numbers with a caller-chosen minimum run length.
func NumbersMin(text string, minRun int) []string {
	if minRun < 1 {
		minRun = 1
	}

	var tokens []string
	runStart := -1

	flush := func(end int) {
		if runStart < 0 {
			return
		}
		run := text[runStart:end]
		runStart = -1
		if len(run) < minRun {
			return
		}
		token := strings.TrimSpace(run)
		if token == "" {
			return
		}
		if digitCount(token) < 2 {
			return
		}
		tokens = append(tokens, token)
	}

	for i := 0; i < len(text); i++ {
		if isRunByte(text[i]) {
			if runStart < 0 {
				runStart = i
			}
			continue
		}
		flush(i)
	}
	flush(len(text))

	return tokens
}

// isRunByte reports membership in the run character class. The class is byte
// oriented: multi-byte characters can never join a run.
func isRunByte(b byte) bool {
	return (b >= '0' && b <= '9') || b == ' ' || b == '+' || b == '-'
}

// digitCount counts digits, ignoring embedded whitespace by construction
// (whitespace is simply not a digit).
func digitCount(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			n++
		}
	}
	return n
}
