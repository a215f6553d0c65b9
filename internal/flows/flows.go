// Package flows declares the concrete wizards of the CAIBook front end:
// account registration, research group creation and login.
package flows

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gosimple/slug"
	"golang.org/x/crypto/bcrypt"

	"github.com/caibook/caibook/internal/form"
)

// Flow names. They double as NATS subject tokens.
const (
	Register = "register"
	Group    = "group"
	Login    = "login"
)

// DefaultEmailSuffix is the institutional suffix required of every email.
const DefaultEmailSuffix = "@uc.cl"

// Flow is a named wizard declaration plus the rules for turning its data
// into an outgoing payload.
type Flow struct {
	Name        string
	Title       string
	SubmitLabel string
	Steps       []form.Step
	Fields      []form.Field

	// Hashed keys are replaced by a bcrypt hash in the payload.
	Hashed []string
	// Dropped keys never leave the process, e.g. confirmation fields.
	Dropped []string
	// Derive adds computed values to the payload.
	Derive func(form.Data) map[string]string
}

// New creates a wizard session for the flow.
func (f Flow) New(opts ...form.Option) (*form.Wizard, error) {
	return form.New(f.Name, f.Steps, f.Fields, opts...)
}

// Payload converts submitted form data into the values sent to the backend.
// Dropped keys are removed and hashed keys are bcrypt hashed. Empty hashed
// values are omitted.
func (f Flow) Payload(data form.Data) (map[string]string, error) {
	out := make(map[string]string, len(data))
	for k, v := range data {
		out[k] = v
	}
	for _, k := range f.Dropped {
		delete(out, k)
	}
	for _, k := range f.Hashed {
		v, ok := out[k]
		if !ok {
			continue
		}
		if v == "" {
			delete(out, k)
			continue
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(v), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hashing %s: %w", k, err)
		}
		out[k] = string(hash)
	}
	if f.Derive != nil {
		for k, v := range f.Derive(data) {
			out[k] = v
		}
	}
	return out, nil
}

// ByName returns the flow with the given name. suffix is the required email
// suffix; an empty suffix means DefaultEmailSuffix.
func ByName(name, suffix string) (Flow, error) {
	switch name {
	case Register:
		return Registration(suffix), nil
	case Group:
		return GroupCreation(), nil
	case Login:
		return LogIn(suffix), nil
	default:
		return Flow{}, fmt.Errorf("unknown flow %q (want one of: %s)", name, strings.Join(Names(), ", "))
	}
}

// Names lists every flow name.
func Names() []string {
	names := []string{Register, Group, Login}
	sort.Strings(names)
	return names
}

// Slug returns the URL-safe identifier for a group name.
func Slug(name string) string {
	s := slug.Make(name)
	if s == "" {
		return "unnamed-group"
	}
	return s
}

func suffixOrDefault(suffix string) string {
	if suffix == "" {
		return DefaultEmailSuffix
	}
	if !strings.HasPrefix(suffix, "@") {
		return "@" + suffix
	}
	return suffix
}

func emailValidators(suffix string) []form.Validator {
	return []form.Validator{
		form.Required("Email"),
		form.Email(),
		form.EmailSuffix(suffixOrDefault(suffix)),
	}
}
