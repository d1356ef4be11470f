// Package guards decides whether a route may render for the current session.
package guards

import (
	"fmt"
	"strings"

	"github.com/SAP-F-2025/lms-service/internal/models"
)

type Kind string

const (
	Protected  Kind = "protected"
	Instructor Kind = "instructor"
	Admin      Kind = "admin"
	Public     Kind = "public"
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case Protected, Instructor, Admin, Public:
		return k, nil
	}
	return "", fmt.Errorf("unknown guard kind %q", s)
}

type Action string

const (
	Render      Action = "render"
	Redirect    Action = "redirect"
	Placeholder Action = "placeholder"
)

// ErrorAccountDisabled is attached to redirects caused by a disabled account
const ErrorAccountDisabled = "account_disabled"

// Role homes
const (
	DefaultEntryRoute = "/login"
	StudentHome       = "/home"
	InstructorHome    = "/instructor/home"
	AdminHome         = "/admin/dashboard"
)

// State is the slice of the session a guard looks at
type State struct {
	Loading       bool            `json:"loading"`
	Authenticated bool            `json:"authenticated"`
	Disabled      bool            `json:"disabled"`
	Role          models.UserRole `json:"role,omitempty"`
}

type Decision struct {
	Action Action `json:"action"`
	Target string `json:"target,omitempty"`
	Error  string `json:"error,omitempty"`
}

func render() Decision                { return Decision{Action: Render} }
func redirect(target string) Decision { return Decision{Action: Redirect, Target: target} }
func placeholder() Decision           { return Decision{Action: Placeholder} }

// HomeFor returns the landing route of a role
func HomeFor(role models.UserRole) string {
	switch role {
	case models.RoleStudent:
		return StudentHome
	case models.RoleInstructor:
		return InstructorHome
	case models.RoleAdmin:
		return AdminHome
	}
	return StudentHome
}

// Evaluator evaluates guards against a configurable entry route
type Evaluator struct {
	EntryRoute string
}

func NewEvaluator(entryRoute string) Evaluator {
	if entryRoute == "" {
		entryRoute = DefaultEntryRoute
	}
	return Evaluator{EntryRoute: entryRoute}
}

// Evaluate uses the default entry route
func Evaluate(kind Kind, state State) Decision {
	return NewEvaluator(DefaultEntryRoute).Evaluate(kind, state)
}

func (e Evaluator) Evaluate(kind Kind, state State) Decision {
	if state.Loading {
		return placeholder()
	}

	if state.Disabled {
		if kind == Public {
			return render()
		}
		return Decision{Action: Redirect, Target: e.EntryRoute, Error: ErrorAccountDisabled}
	}

	switch kind {
	case Public:
		if state.Authenticated {
			return redirect(HomeFor(state.Role))
		}
		return render()
	case Protected:
		if !state.Authenticated {
			return redirect(e.EntryRoute)
		}
		return render()
	case Instructor:
		if !state.Authenticated {
			return redirect(e.EntryRoute)
		}
		if state.Role != models.RoleInstructor {
			return redirect(StudentHome)
		}
		return render()
	case Admin:
		if !state.Authenticated {
			return redirect(e.EntryRoute)
		}
		if state.Role != models.RoleAdmin {
			return redirect(StudentHome)
		}
		return render()
	}

	// Unknown kinds fail closed
	return redirect(e.EntryRoute)
}
