package view

import (
	"strings"

	"github.com/somesimplify/somectl/internal/errors"
	"github.com/somesimplify/somectl/internal/identity"
	"github.com/somesimplify/somectl/internal/tui/styles"
)

// Loading renders a blocking loading view.
func Loading(spinner, what string) string {
	return styles.ContentBox.Render(spinner + " " + what)
}

// Gate renders the session gate. Protected views are only shown once the
// state passes the gate, so this covers every other status.
func Gate(state identity.State, spinner string) string {
	var b strings.Builder
	switch state.Status {
	case identity.StatusPending:
		return Loading(spinner, "Checking your session…")

	case identity.StatusNeedsRegistration:
		b.WriteString(styles.Title.Render("No account yet"))
		b.WriteString("\n")
		b.WriteString("You are signed in, but no account has been set up for you.\n")
		if state.RegistrationURL != "" {
			b.WriteString("Register at " + styles.Primary.Render(state.RegistrationURL) + "\n")
		}

	case identity.StatusFailed:
		b.WriteString(styles.Title.Render("Could not sign in"))
		b.WriteString("\n")
		b.WriteString(styles.ErrorMsg.Render(errors.UserMessage(state.Err)))
		b.WriteString("\n")
		if errors.Is(state.Err, errors.ErrTokenExpired) || errors.Is(state.Err, errors.ErrUnauthenticated) {
			b.WriteString(styles.Muted.Render("Run `somectl config set auth.token <token>` with a fresh token."))
			b.WriteString("\n")
		}

	default:
		return ""
	}
	b.WriteString(HelpBar(Binding{"q", "quit"}))
	return styles.ContentBox.Render(b.String())
}
