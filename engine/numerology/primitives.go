// Package numerology implements the numerology engine and the letter and
// digit primitives it is built on.
package numerology

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// System selects the letter-value table.
type System string

const (
	SystemPythagorean System = "pythagorean"
	SystemChaldean    System = "chaldean"
)

// ParseSystem validates a raw system name, defaulting to Pythagorean.
func ParseSystem(s string) (System, error) {
	switch System(strings.ToLower(s)) {
	case SystemPythagorean, "":
		return SystemPythagorean, nil
	case SystemChaldean:
		return SystemChaldean, nil
	default:
		return "", fmt.Errorf("invalid numerology system %q", s)
	}
}

// pythagoreanValues maps A..Z to 1..9 cyclically.
var pythagoreanValues = map[rune]int{
	'A': 1, 'B': 2, 'C': 3, 'D': 4, 'E': 5, 'F': 6, 'G': 7, 'H': 8, 'I': 9,
	'J': 1, 'K': 2, 'L': 3, 'M': 4, 'N': 5, 'O': 6, 'P': 7, 'Q': 8, 'R': 9,
	'S': 1, 'T': 2, 'U': 3, 'V': 4, 'W': 5, 'X': 6, 'Y': 7, 'Z': 8,
}

// chaldeanValues is the Chaldean table; 9 is never assigned to a letter.
var chaldeanValues = map[rune]int{
	'A': 1, 'B': 2, 'C': 3, 'D': 4, 'E': 5, 'F': 8, 'G': 3, 'H': 5, 'I': 1,
	'J': 1, 'K': 2, 'L': 3, 'M': 4, 'N': 5, 'O': 7, 'P': 8, 'Q': 1, 'R': 2,
	'S': 3, 'T': 4, 'U': 6, 'V': 6, 'W': 6, 'X': 5, 'Y': 1, 'Z': 7,
}

// LetterValue looks up a letter in the selected table; non-letters are 0.
func LetterValue(r rune, system System) int {
	upper := unicode.ToUpper(r)
	if system == SystemChaldean {
		return chaldeanValues[upper]
	}
	return pythagoreanValues[upper]
}

// masterNumbers halt reduction when preservation is on.
var masterNumbers = map[int]bool{11: true, 22: true, 33: true, 44: true}

// karmicDebts flag intermediate sums carrying karmic lessons.
var karmicDebts = map[int]bool{13: true, 14: true, 16: true, 19: true}

// Reduction is the result of a digital-root reduction with the
// intermediate sums it passed through.
type Reduction struct {
	Value         int   `json:"value"`
	Intermediates []int `json:"intermediates"`
	Master        bool  `json:"master"`
	KarmicDebt    int   `json:"karmic_debt,omitempty"`
}

// Reduce sums digits repeatedly until a single digit remains. With
// preserveMaster, reduction halts early on {11, 22, 33, 44}. Karmic debt
// is flagged when any intermediate sum (including the starting value)
// falls in {13, 14, 16, 19}.
func Reduce(n int, preserveMaster bool) Reduction {
	if n < 0 {
		n = -n
	}
	r := Reduction{Value: n, Intermediates: []int{n}}
	if karmicDebts[n] {
		r.KarmicDebt = n
	}
	for r.Value > 9 {
		if preserveMaster && masterNumbers[r.Value] {
			r.Master = true
			return r
		}
		r.Value = digitSum(r.Value)
		r.Intermediates = append(r.Intermediates, r.Value)
		if karmicDebts[r.Value] && r.KarmicDebt == 0 {
			r.KarmicDebt = r.Value
		}
	}
	return r
}

func digitSum(n int) int {
	sum := 0
	for n > 0 {
		sum += n % 10
		n /= 10
	}
	return sum
}

// vowels for name splitting. Y counts as a consonant; the letter tables
// settle its numeric value either way.
var vowelSet = map[rune]bool{'A': true, 'E': true, 'I': true, 'O': true, 'U': true}

// NameParts is a name split into its letter groups.
type NameParts struct {
	Letters    []rune
	Vowels     []rune
	Consonants []rune
}

// SplitName extracts letters-only, vowels-only, and consonants-only runs
// from a full name.
func SplitName(name string) NameParts {
	parts := NameParts{}
	for _, r := range name {
		if !unicode.IsLetter(r) {
			continue
		}
		upper := unicode.ToUpper(r)
		parts.Letters = append(parts.Letters, upper)
		if vowelSet[upper] {
			parts.Vowels = append(parts.Vowels, upper)
		} else {
			parts.Consonants = append(parts.Consonants, upper)
		}
	}
	return parts
}

func sumLetters(letters []rune, system System) int {
	total := 0
	for _, r := range letters {
		total += LetterValue(r, system)
	}
	return total
}

// LifePath reduces the digits of MMDDYYYY with master preservation.
func LifePath(birthDate time.Time) Reduction {
	digits := fmt.Sprintf("%02d%02d%04d", int(birthDate.Month()), birthDate.Day(), birthDate.Year())
	return Reduce(digitStringSum(digits), true)
}

// Expression reduces the letter sum of the full birth name.
func Expression(name string, system System) Reduction {
	return Reduce(sumLetters(SplitName(name).Letters, system), true)
}

// SoulUrge reduces the vowels-only sum.
func SoulUrge(name string, system System) Reduction {
	return Reduce(sumLetters(SplitName(name).Vowels, system), true)
}

// Personality reduces the consonants-only sum.
func Personality(name string, system System) Reduction {
	return Reduce(sumLetters(SplitName(name).Consonants, system), true)
}

// Maturity reduces Life Path + Expression with master preservation.
func Maturity(lifePath, expression int) Reduction {
	return Reduce(lifePath+expression, true)
}

// PersonalYear reduces the digits of MMDD plus the target year, without
// master preservation.
func PersonalYear(birthDate time.Time, targetYear int) Reduction {
	digits := fmt.Sprintf("%02d%02d%04d", int(birthDate.Month()), birthDate.Day(), targetYear)
	return Reduce(digitStringSum(digits), false)
}

// Bridge is the absolute difference between two core numbers.
func Bridge(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}

func digitStringSum(s string) int {
	sum := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			sum += int(r - '0')
		}
	}
	return sum
}
