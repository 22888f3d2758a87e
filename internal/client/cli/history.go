package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/tanvir-rifat007/maker-cli/internal/client/models"
	"github.com/tanvir-rifat007/maker-cli/internal/common"
)

// History refreshes the session list from the server and prints it, newest
// first. Server trouble degrades to the locally cached list.
func (a *App) History(ctx context.Context) error {
	if user := a.store.User(); user != nil {
		a.hist.Fetch(ctx, user.ID)
	}

	records := a.hist.Records()
	if len(records) == 0 {
		fmt.Println("No generation sessions yet.")
		return nil
	}

	selected := a.hist.Selected()
	for _, rec := range records {
		printRecord(rec, rec.ID == selected)
	}
	return nil
}

func printRecord(rec models.SessionRecord, selected bool) {
	marker := " "
	if selected {
		marker = "*"
	}
	status := ""
	if rec.Pending {
		status = " (pending)"
	}
	if label := rec.TimestampLabel(); label != "" {
		fmt.Printf("%s %s  %s%s  %s\n", marker, rec.ID, rec.Title, status, label)
	} else {
		fmt.Printf("%s %s  %s%s\n", marker, rec.ID, rec.Title, status)
	}
}

// Select loads a past session's parameters into the generation form.
func (a *App) Select(ctx context.Context, id string) error {
	req, err := a.hist.Select(id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			fmt.Printf("No session with id %s.\n", id)
		}
		return err
	}

	a.form = req
	fmt.Println("Session loaded. Run 'generate' to re-run it or adjust the parameters.")
	return nil
}

// Rename prompts for a new title for the given session.
func (a *App) Rename(ctx context.Context, id string) error {
	title, err := getSimpleText(a.reader, "Enter new title", os.Stdout)
	if err != nil {
		return err
	}
	if title == "" {
		fmt.Println("Title cannot be empty.")
		return nil
	}

	if err := a.hist.Rename(ctx, id, title); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			fmt.Printf("No session with id %s.\n", id)
		}
		return err
	}

	fmt.Println("Renamed.")
	return nil
}

// Remove deletes a session. Removing the selected one also resets the
// generation form to a blank new-session state.
func (a *App) Remove(ctx context.Context, id string) error {
	wasSelected, err := a.hist.Remove(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			fmt.Printf("No session with id %s.\n", id)
		}
		return err
	}

	if wasSelected {
		a.form = models.DefaultGenerationRequest()
		fmt.Println("Removed the selected session; the form was reset.")
	} else {
		fmt.Println("Removed.")
	}
	return nil
}
