package cli

import (
	"github.com/alexanderramin/kickoff/internal/engine"
	"github.com/alexanderramin/kickoff/internal/service"
	"github.com/spf13/cobra"
)

// App holds the services CLI commands call into.
type App struct {
	Directory service.DirectoryService
	Templates service.TemplateService
	Processes service.ProcessService
	Status    service.StatusService
	Overdue   service.OverdueService
	Inbox     service.InboxService
	Agenda    service.AgendaService
	Clock     engine.Clock

	// IsInteractive reports whether stdin is a terminal. Destructive
	// commands prompt for confirmation only when it returns true.
	IsInteractive func() bool
	// Confirm asks a yes/no question. Tests replace it.
	Confirm func(title string) (bool, error)
}

func (a *App) now() engine.Clock {
	if a.Clock == nil {
		return engine.SystemClock{}
	}
	return a.Clock
}

// NewRootCmd creates the top-level "kickoff" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "kickoff",
		Short:         "Onboarding checklists for new hires",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newUserCmd(app),
		newEntityCmd(app),
		newTemplateCmd(app),
		newProcessCmd(app),
		newTaskCmd(app),
		newInboxCmd(app),
		newOverdueCmd(app),
		newAgendaCmd(app),
	)

	return root
}
