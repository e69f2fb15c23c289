package cli

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// huhConfirm asks a yes/no question in the terminal.
func huhConfirm(title string) (bool, error) {
	var ok bool
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Affirmative("Delete").
				Negative("Cancel").
				Value(&ok),
		),
	).WithShowHelp(false).Run()
	return ok, err
}

// confirmDestructive returns nil when the user agreed to title. --yes skips
// the prompt; without a terminal --yes is required.
func confirmDestructive(cmd *cobra.Command, app *App, title string) error {
	if yes, _ := cmd.Flags().GetBool("yes"); yes {
		return nil
	}
	if app.IsInteractive == nil || !app.IsInteractive() {
		return fmt.Errorf("refusing to %s without --yes", title)
	}
	confirm := app.Confirm
	if confirm == nil {
		confirm = huhConfirm
	}
	ok, err := confirm(title + "?")
	if err != nil {
		return err
	}
	if !ok {
		return errCancelled
	}
	return nil
}

var errCancelled = errors.New("cancelled")

func addYesFlag(cmd *cobra.Command) {
	cmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
}

// changedString returns the flag's value only when the user set it, so an
// explicit empty string can be told apart from an omitted flag.
func changedString(fs *pflag.FlagSet, name string) *string {
	if !fs.Changed(name) {
		return nil
	}
	v, err := fs.GetString(name)
	if err != nil {
		return nil
	}
	return &v
}

func changedInt(fs *pflag.FlagSet, name string) *int {
	if !fs.Changed(name) {
		return nil
	}
	v, err := fs.GetInt(name)
	if err != nil {
		return nil
	}
	return &v
}
