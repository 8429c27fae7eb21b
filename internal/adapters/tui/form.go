package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bnema/reaction-test-cli/internal/domain"
)

const (
	errNameRequired    = "Name is required."
	errConsentRequired = "You must agree to the terms to continue."
	formFieldCount     = 3
	nameInputCharLimit = 64
	nameInputWidth     = 32
)

type formField int

const (
	fieldName formField = iota
	fieldSex
	fieldConsent
)

// identificationForm collects the participant's name, sex and consent.
type identificationForm struct {
	name    textinput.Model
	sex     domain.Sex
	consent bool
	focus   formField
	err     string
}

func newIdentificationForm(name string, sex domain.Sex) identificationForm {
	input := textinput.New()
	input.Placeholder = "Enter your name"
	input.Prompt = ""
	input.CharLimit = nameInputCharLimit
	input.Width = nameInputWidth
	input.SetValue(name)
	input.Focus()

	if !sex.Valid() {
		sex = domain.SexMale
	}

	return identificationForm{name: input, sex: sex}
}

// submission is a validated form, ready for the orchestrator.
type submission struct {
	name string
	sex  domain.Sex
}

// update handles one key. It returns a submission when the form was sent and
// passes every other message to the name input while it has focus.
func (f identificationForm) update(msg tea.Msg, keys KeyMap) (identificationForm, *submission, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return f.updateInput(msg)
	}

	switch {
	case key.Matches(keyMsg, keys.Submit):
		sub := f.validate()
		if sub == nil {
			return f, nil, nil
		}
		return f, sub, nil
	case key.Matches(keyMsg, keys.NextField):
		return f.moveFocus(1), nil, nil
	case key.Matches(keyMsg, keys.PrevField):
		return f.moveFocus(-1), nil, nil
	}

	switch f.focus {
	case fieldSex:
		switch {
		case key.Matches(keyMsg, keys.Left):
			f.sex = domain.SexMale
		case key.Matches(keyMsg, keys.Right):
			f.sex = domain.SexFemale
		case key.Matches(keyMsg, keys.Toggle):
			f.sex = otherSex(f.sex)
		}
		return f, nil, nil
	case fieldConsent:
		if key.Matches(keyMsg, keys.Toggle) {
			f.consent = !f.consent
			if f.consent && f.err == errConsentRequired {
				f.err = ""
			}
		}
		return f, nil, nil
	default:
		return f.updateInput(msg)
	}
}

func (f identificationForm) updateInput(msg tea.Msg) (identificationForm, *submission, tea.Cmd) {
	if f.focus != fieldName {
		return f, nil, nil
	}
	var cmd tea.Cmd
	f.name, cmd = f.name.Update(msg)
	return f, nil, cmd
}

func (f *identificationForm) validate() *submission {
	name := strings.TrimSpace(f.name.Value())
	if name == "" {
		f.err = errNameRequired
		return nil
	}
	if !f.consent {
		f.err = errConsentRequired
		return nil
	}
	f.err = ""
	return &submission{name: name, sex: f.sex}
}

func (f identificationForm) moveFocus(delta int) identificationForm {
	f.focus = formField((int(f.focus) + delta + formFieldCount) % formFieldCount)
	if f.focus == fieldName {
		f.name.Focus()
	} else {
		f.name.Blur()
	}
	return f
}

func (f identificationForm) view(s styles) string {
	labelStyle := func(field formField) lipgloss.Style {
		if f.focus == field {
			return s.focused
		}
		return s.label
	}

	sexOptions := make([]string, 0, 2)
	for _, option := range []domain.Sex{domain.SexMale, domain.SexFemale} {
		mark := "( )"
		if f.sex == option {
			mark = "(•)"
		}
		sexOptions = append(sexOptions, mark+" "+string(option))
	}

	consentMark := "[ ]"
	if f.consent {
		consentMark = "[x]"
	}

	lines := []string{
		labelStyle(fieldName).Render("Full name"),
		f.name.View(),
		"",
		labelStyle(fieldSex).Render("Sex"),
		strings.Join(sexOptions, "   "),
		"",
		labelStyle(fieldConsent).Render(consentMark + " I agree to all the following terms (ctrl+t to read them)."),
	}
	if f.err != "" {
		lines = append(lines, "", s.errorMsg.Render(f.err))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func otherSex(sex domain.Sex) domain.Sex {
	if sex == domain.SexMale {
		return domain.SexFemale
	}
	return domain.SexMale
}
