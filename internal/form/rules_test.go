package form

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequired(t *testing.T) {
	v := Required("Name")

	tests := []struct {
		value string
		valid bool
	}{
		{"", false},
		{"   ", false},
		{"\t\n", false},
		{"Ana", true},
		{" Ana ", true},
	}
	for _, tt := range tests {
		r := v(tt.value, nil)
		assert.Equal(t, tt.valid, r.Valid, "value %q", tt.value)
		if !tt.valid {
			assert.Equal(t, "Name is required.", r.Message)
		}
	}
}

func TestMaxLength(t *testing.T) {
	v := MaxLength("Name", 5)

	assert.True(t, v("abcde", nil).Valid)
	assert.True(t, v("ñáéíó", nil).Valid, "length counts characters, not bytes")

	r := v("abcdef", nil)
	assert.False(t, r.Valid)
	assert.Contains(t, r.Message, "5")
}

func TestMinLength(t *testing.T) {
	v := MinLength("Password", 8)

	assert.False(t, v("1234567", nil).Valid)
	assert.True(t, v("12345678", nil).Valid)
	assert.Contains(t, v("", nil).Message, "8")
}

func TestLettersOnly(t *testing.T) {
	v := LettersOnly("Name", SpanishLetters)

	valid := []string{"", "Ana", "José María", "Ñuñoa", "Güemes", "ÁÉÍÓÚ", "Ana\tMaría"}
	for _, s := range valid {
		assert.True(t, v(s, nil).Valid, "expected %q to be valid", s)
	}

	invalid := []string{"A1", "Ana2", "Ana-María", "O'Higgins", "Ana.", "Zoë", "André!"}
	for _, s := range invalid {
		r := v(s, nil)
		assert.False(t, r.Valid, "expected %q to be invalid", s)
		assert.Equal(t, "Name may only contain letters and spaces.", r.Message)
	}
}

func TestLettersOnly_DecomposedAccents(t *testing.T) {
	v := LettersOnly("Name", SpanishLetters)

	// "José" written with a combining acute accent
	assert.True(t, v("Jose\u0301", nil).Valid)
}

func TestPhone(t *testing.T) {
	v := Phone("Phone")

	assert.True(t, v("", nil).Valid, "phone is optional")
	assert.True(t, v("+56912345678", nil).Valid)
	assert.True(t, v("56912345678", nil).Valid)
	assert.True(t, v("+", nil).Valid)

	for _, s := range []string{"56-9-1234", "++569", "569+", "phone", "+56 9 1234"} {
		assert.False(t, v(s, nil).Valid, "expected %q to be invalid", s)
	}
}

func TestEmailRules(t *testing.T) {
	format := Email()
	suffix := EmailSuffix("@uc.cl")

	assert.True(t, format("a@uc.cl", nil).Valid)
	assert.True(t, suffix("a@uc.cl", nil).Valid)

	r := format("not-an-email", nil)
	assert.False(t, r.Valid)

	r2 := suffix("a@gmail.com", nil)
	assert.False(t, r2.Valid)
	assert.True(t, format("a@gmail.com", nil).Valid)
	assert.NotEqual(t, r.Message, r2.Message, "format and suffix must have distinct messages")
	assert.Contains(t, r2.Message, "@uc.cl")
}

func TestMatches(t *testing.T) {
	v := Matches("email", "Emails do not match.", "Emails match.")

	r := v("a@uc.cl", Data{"email": "a@uc.cl"})
	assert.True(t, r.Valid)
	assert.Equal(t, "Emails match.", r.Note)

	r = v("b@uc.cl", Data{"email": "a@uc.cl"})
	assert.False(t, r.Valid)
	assert.Equal(t, "Emails do not match.", r.Message)

	r = v("", Data{"email": "a@uc.cl"})
	assert.True(t, r.Valid)
	assert.Empty(t, r.Note, "empty confirmation must not carry a match note")

	r = v("A@uc.cl", Data{"email": "a@uc.cl"})
	assert.False(t, r.Valid, "comparison is byte for byte")
}

func TestImageFile(t *testing.T) {
	v := ImageFile("Logo", "png", ".jpg", "jpeg", "gif")

	assert.True(t, v("", nil).Valid)
	assert.True(t, v("logo.png", nil).Valid)
	assert.True(t, v("/tmp/LOGO.JPG", nil).Valid)
	assert.True(t, v("a.gif", nil).Valid)

	r := v("logo.svg", nil)
	assert.False(t, r.Valid)
	assert.Equal(t, "Logo must be one of: PNG, JPG, JPEG, GIF.", r.Message)
	assert.False(t, v("logo", nil).Valid)
}

func TestRun_FirstFailureWins(t *testing.T) {
	validators := []Validator{Required("Email"), Email(), EmailSuffix("@uc.cl")}

	assert.Equal(t, "Email is required.", Run(validators, "", nil).Message)
	assert.Equal(t, "Must be a valid email address.", Run(validators, "nope", nil).Message)
	assert.Contains(t, Run(validators, "a@b.com", nil).Message, "institutional")
	assert.True(t, Run(validators, "a@uc.cl", nil).Valid)
}

func TestRun_KeepsNote(t *testing.T) {
	validators := []Validator{
		Required("Confirm"),
		Matches("password", "Passwords do not match.", "Passwords match."),
	}

	r := Run(validators, "secret123", Data{"password": "secret123"})
	assert.True(t, r.Valid)
	assert.Equal(t, "Passwords match.", r.Note)

	r = Run(validators, "", Data{"password": "secret123"})
	assert.False(t, r.Valid)
	assert.Empty(t, r.Note)
}
