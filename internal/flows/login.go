package flows

import "github.com/caibook/caibook/internal/form"

// LogIn is the single step sign-in form. The password is sent as typed so
// the auth service can verify it; it is only masked on screen.
func LogIn(suffix string) Flow {
	return Flow{
		Name:        Login,
		Title:       "Log in",
		SubmitLabel: "Log in",
		Steps: []form.Step{
			{Index: 1, Title: "Credentials", FieldKeys: []string{Email, Password}},
		},
		Fields: []form.Field{
			{
				Key: Email, Label: "Email", Placeholder: "you" + suffixOrDefault(suffix),
				Validators: emailValidators(suffix),
			},
			{
				Key: Password, Label: "Password", Secret: true,
				Validators: []form.Validator{form.Required("Password")},
			},
		},
	}
}
