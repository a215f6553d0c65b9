package flows

import "github.com/caibook/caibook/internal/form"

// Field keys of the group creation flow.
const (
	GroupName   = "name"
	Description = "description"
	Objective   = "objective"
	Logo        = "logo"

	// GroupSlug is derived from GroupName and added to the payload.
	GroupSlug = "slug"
)

// LogoExtensions are the accepted logo file types.
var LogoExtensions = []string{"png", "jpg", "jpeg"}

// GroupCreation is the three step wizard for registering a student group.
func GroupCreation() Flow {
	return Flow{
		Name:        Group,
		Title:       "Create a group",
		SubmitLabel: "Create group",
		Steps: []form.Step{
			{Index: 1, Title: "General info", FieldKeys: []string{GroupName, Description}},
			{Index: 2, Title: "Details", FieldKeys: []string{Objective}},
			{Index: 3, Title: "Finish", FieldKeys: []string{Logo}},
		},
		Fields: []form.Field{
			{
				Key: GroupName, Label: "Group name", Placeholder: "Robotics club",
				Validators: []form.Validator{form.Required("Group name"), form.MaxLength("Group name", 80)},
			},
			{
				Key: Description, Label: "Description", Kind: form.KindLongText,
				Validators: []form.Validator{form.Required("Description"), form.MaxLength("Description", 500)},
			},
			{
				Key: Objective, Label: "Objective", Kind: form.KindLongText,
				Validators: []form.Validator{form.Required("Objective"), form.MaxLength("Objective", 1000)},
			},
			{
				Key: Logo, Label: "Logo", Kind: form.KindFile, Placeholder: "path/to/logo.png",
				Validators: []form.Validator{form.ImageFile("Logo", LogoExtensions...)},
			},
		},
		Derive: func(data form.Data) map[string]string {
			return map[string]string{GroupSlug: Slug(data[GroupName])}
		},
	}
}
