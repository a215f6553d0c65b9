package flows

import "github.com/caibook/caibook/internal/form"

// Field keys of the registration flow.
const (
	FirstName       = "first_name"
	LastName        = "last_name"
	Major           = "major"
	Phone           = "phone"
	Email           = "email"
	ConfirmEmail    = "confirm_email"
	Password        = "password"
	ConfirmPassword = "confirm_password"
)

// Registration is the three step account sign-up wizard.
func Registration(suffix string) Flow {
	return Flow{
		Name:        Register,
		Title:       "Create your CAIBook account",
		SubmitLabel: "Register",
		Steps: []form.Step{
			{Index: 1, Title: "Personal", FieldKeys: []string{FirstName, LastName, Major, Phone}},
			{Index: 2, Title: "Account", FieldKeys: []string{Email, ConfirmEmail}},
			{Index: 3, Title: "Security", FieldKeys: []string{Password, ConfirmPassword}},
		},
		Fields: []form.Field{
			{
				Key: FirstName, Label: "First name", Placeholder: "Ana",
				Validators: letters("First name", 50),
			},
			{
				Key: LastName, Label: "Last name", Placeholder: "Pérez",
				Validators: letters("Last name", 50),
			},
			{
				Key: Major, Label: "Major", Placeholder: "Ingeniería",
				Validators: letters("Major", 60),
			},
			{
				Key: Phone, Label: "Phone", Kind: form.KindOptionalText, Placeholder: "+56912345678",
				Validators: []form.Validator{form.Phone("Phone")},
			},
			{
				Key: Email, Label: "Email", Placeholder: "you" + suffixOrDefault(suffix),
				Validators:  emailValidators(suffix),
				Revalidates: []string{ConfirmEmail},
			},
			{
				Key: ConfirmEmail, Label: "Confirm email",
				Validators: []form.Validator{
					form.Required("Email confirmation"),
					form.Matches(Email, "Emails do not match.", "Emails match."),
				},
			},
			{
				Key: Password, Label: "Password", Secret: true,
				Validators: []form.Validator{
					form.MinLength("Password", 8),
					form.MaxLength("Password", 100),
				},
				Revalidates: []string{ConfirmPassword},
			},
			{
				Key: ConfirmPassword, Label: "Confirm password", Secret: true,
				Validators: []form.Validator{
					form.Required("Password confirmation"),
					form.Matches(Password, "Passwords do not match.", "Passwords match."),
				},
			},
		},
		Hashed:  []string{Password},
		Dropped: []string{ConfirmEmail, ConfirmPassword},
	}
}

func letters(label string, maxLen int) []form.Validator {
	return []form.Validator{
		form.Required(label),
		form.MaxLength(label, maxLen),
		form.LettersOnly(label, form.SpanishLetters),
	}
}
