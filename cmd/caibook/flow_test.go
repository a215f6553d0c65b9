package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caibook/caibook/internal/flows"
	"github.com/caibook/caibook/internal/form"
	"github.com/caibook/caibook/internal/submission"
)

func TestParseSets(t *testing.T) {
	values, err := parseSets([]string{"name=Club", "description=a=b", " logo =x.png"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"name": "Club", "description": "a=b", "logo": "x.png"}, values)

	_, err = parseSets([]string{"novalue"})
	assert.Error(t, err)

	_, err = parseSets([]string{"=value"})
	assert.Error(t, err)
}

func TestRunHeadless_Register(t *testing.T) {
	flow := flows.Registration("@uc.cl")
	w, err := flow.New(form.WithSessionID("headless-1"))
	require.NoError(t, err)

	var got form.Data
	submit := func(_ context.Context, data form.Data) error {
		got = data
		return nil
	}

	var out bytes.Buffer
	err = runHeadless(context.Background(), &out, flow, w, submit, map[string]string{
		flows.FirstName:       "Ana",
		flows.LastName:        "Pérez",
		flows.Major:           "Ingeniería",
		flows.Email:           "ana@uc.cl",
		flows.ConfirmEmail:    "ana@uc.cl",
		flows.Password:        "secret123",
		flows.ConfirmPassword: "secret123",
	})
	require.NoError(t, err)

	assert.Equal(t, form.StatusSucceeded, w.Status())
	assert.Equal(t, "ana@uc.cl", got[flows.Email])
	assert.Contains(t, out.String(), "headless-1")
}

func TestRunHeadless_StopsAtInvalidStep(t *testing.T) {
	flow := flows.GroupCreation()
	w, err := flow.New()
	require.NoError(t, err)

	called := false
	submit := func(context.Context, form.Data) error {
		called = true
		return nil
	}

	var out bytes.Buffer
	err = runHeadless(context.Background(), &out, flow, w, submit, map[string]string{
		flows.GroupName: "Club de Ajedrez",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 1 (General info)")
	assert.Contains(t, out.String(), "Description: Description is required.")
	assert.False(t, called)
	assert.Equal(t, 1, w.CurrentStep())
}

func TestRunHeadless_UnknownField(t *testing.T) {
	flow := flows.LogIn("")
	w, err := flow.New()
	require.NoError(t, err)

	err = runHeadless(context.Background(), &bytes.Buffer{}, flow, w, func(context.Context, form.Data) error { return nil },
		map[string]string{"nickname": "x", "avatar": "y"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "avatar, nickname")
}

func TestRunHeadless_SubmissionFails(t *testing.T) {
	flow := flows.LogIn("")
	w, err := flow.New()
	require.NoError(t, err)

	submit := func(context.Context, form.Data) error { return submission.ErrAuthUnavailable }

	err = runHeadless(context.Background(), &bytes.Buffer{}, flow, w, submit, map[string]string{
		flows.Email:    "ana@uc.cl",
		flows.Password: "hunter22",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, submission.ErrAuthUnavailable))
	assert.Equal(t, form.StatusFailed, w.Status())
}

func TestFormatRecord(t *testing.T) {
	rec := submission.Record{ID: "3", Flow: "group", Session: "s1", Fields: map[string]string{"slug": "club", "name": "Club"}}

	assert.NotContains(t, formatRecord(rec, false), "slug")

	full := formatRecord(rec, true)
	assert.Contains(t, full, "[3]")
	assert.Contains(t, full, "    name: Club\n    slug: club")
}
