package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
)

func (a *App) getStatus() string {
	if user := a.store.User(); user != nil {
		return fmt.Sprintf("(%s) ", user.Name)
	}
	return ""
}

// Root settles the session check, loads what history is available, and
// hands control to the REPL until the user exits.
func (a *App) Root(ctx context.Context) {

	fmt.Println("Welcome to Maker CLI (type 'help' for commands)")

	a.store.Initialize(ctx)

	if user := a.store.User(); user != nil {
		fmt.Printf("Signed in as %s.\n", user.Name)
		a.hist.Fetch(ctx, user.ID)
	} else {
		if err := a.hist.Load(ctx); err != nil {
			a.log.Warn(ctx, "could not load cached sessions", "error", err)
		}
	}

	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.getStatus, scanner)
}
