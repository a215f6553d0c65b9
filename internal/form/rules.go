package form

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/unicode/norm"
)

// SpanishLetters are the accented letters accepted by LettersOnly in addition
// to ASCII letters and whitespace.
const SpanishLetters = "ñÑáéíóúÁÉÍÓÚüÜ"

var (
	phonePattern = regexp.MustCompile(`^\+?[0-9]*$`)

	emailValidator = validator.New()
)

// Required fails when the trimmed value is empty.
func Required(label string) Validator {
	msg := fmt.Sprintf("%s is required.", label)
	return func(value string, _ Data) Result {
		if strings.TrimSpace(value) == "" {
			return Fail(msg)
		}
		return Pass
	}
}

// MaxLength fails when the value has more than n characters.
func MaxLength(label string, n int) Validator {
	msg := fmt.Sprintf("%s must be at most %d characters.", label, n)
	return func(value string, _ Data) Result {
		if utf8.RuneCountInString(value) > n {
			return Fail(msg)
		}
		return Pass
	}
}

// MinLength fails when the value has fewer than n characters.
func MinLength(label string, n int) Validator {
	msg := fmt.Sprintf("%s must be at least %d characters.", label, n)
	return func(value string, _ Data) Result {
		if utf8.RuneCountInString(value) < n {
			return Fail(msg)
		}
		return Pass
	}
}

// LettersOnly fails when the value holds anything other than ASCII letters,
// whitespace, or one of the extra runes. Input is NFC-normalised first so a
// decomposed "á" is treated like the precomposed one.
func LettersOnly(label, extra string) Validator {
	msg := fmt.Sprintf("%s may only contain letters and spaces.", label)
	return func(value string, _ Data) Result {
		for _, r := range norm.NFC.String(value) {
			switch {
			case r < utf8.RuneSelf && (('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z')):
			case unicode.IsSpace(r):
			case strings.ContainsRune(extra, r):
			default:
				return Fail(msg)
			}
		}
		return Pass
	}
}

// Phone accepts an empty value, or an optional leading "+" followed only by digits.
func Phone(label string) Validator {
	msg := fmt.Sprintf("%s may only contain digits and a leading '+'.", label)
	return Optional(func(value string, _ Data) Result {
		if !phonePattern.MatchString(value) {
			return Fail(msg)
		}
		return Pass
	})
}

// Email fails when the value is not a syntactically valid address.
func Email() Validator {
	return func(value string, _ Data) Result {
		if err := emailValidator.Var(value, "email"); err != nil {
			return Fail("Must be a valid email address.")
		}
		return Pass
	}
}

// EmailSuffix fails when the value does not end with suffix, e.g. "@uc.cl".
// It is independent from Email so the more specific message can be shown.
func EmailSuffix(suffix string) Validator {
	msg := fmt.Sprintf("Email must be an institutional address (%s).", suffix)
	return func(value string, _ Data) Result {
		if !strings.HasSuffix(value, suffix) {
			return Fail(msg)
		}
		return Pass
	}
}

// Matches is a cross-field rule: the value must equal the value of other byte
// for byte. An empty value passes without a note; Required reports emptiness.
// When both values are equal the result carries note.
func Matches(other, mismatch, note string) Validator {
	return func(value string, form Data) Result {
		if value == "" {
			return Pass
		}
		if value != form[other] {
			return Fail(mismatch)
		}
		return Result{Valid: true, Note: note}
	}
}

// ImageFile accepts an empty value or a path whose extension is one of exts.
func ImageFile(label string, exts ...string) Validator {
	allowed := make(map[string]bool, len(exts))
	names := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimPrefix(ext, "."))
		allowed[ext] = true
		names = append(names, strings.ToUpper(ext))
	}
	msg := fmt.Sprintf("%s must be one of: %s.", label, strings.Join(names, ", "))
	return Optional(func(value string, _ Data) Result {
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(value), "."))
		if !allowed[ext] {
			return Fail(msg)
		}
		return Pass
	})
}

// Optional skips v when the value is empty.
func Optional(v Validator) Validator {
	return func(value string, form Data) Result {
		if value == "" {
			return Pass
		}
		return v(value, form)
	}
}

// Run evaluates validators in order. The first failure wins; when all pass,
// the last non-empty note is kept.
func Run(validators []Validator, value string, form Data) Result {
	res := Pass
	for _, v := range validators {
		r := v(value, form)
		if !r.Valid {
			return r
		}
		if r.Note != "" {
			res.Note = r.Note
		}
	}
	return res
}
