package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/kickoff/internal/domain"
	"github.com/google/uuid"
)

// HireParams describes the new hire a process is created for.
type HireParams struct {
	EmployeeName string
	Email        string
	Department   string
	Position     string
	StartDate    time.Time
	Notes        string
	CreatedBy    *string
}

func (p HireParams) Validate() error {
	if strings.TrimSpace(p.EmployeeName) == "" {
		return &domain.ValidationError{Field: "employee_name", Message: "is required"}
	}
	if p.StartDate.IsZero() {
		return &domain.ValidationError{Field: "start_date", Message: "is required"}
	}
	return nil
}

// Instantiator clones a TemplateGraph into a fresh TaskGraph.
type Instantiator struct {
	clock Clock
	newID func() string
}

func NewInstantiator(clock Clock) *Instantiator {
	return &Instantiator{
		clock: clock,
		newID: func() string { return uuid.New().String() },
	}
}

// Instantiate builds the process and its tasks in memory. Tasks without
// dependencies start ready and have their ready rules dispatched through
// notifier; all others start pending. Any failure is returned as a
// *domain.InstantiationError and no graph is produced.
func (in *Instantiator) Instantiate(tg *TemplateGraph, params HireParams, notifier Notifier) (*TaskGraph, error) {
	g, err := in.build(tg, params)
	if err != nil {
		return nil, &domain.InstantiationError{TemplateID: tg.Template.ID, Err: err}
	}

	for _, t := range g.Tasks() {
		if len(g.edges.DependenciesOf(t.ID)) == 0 {
			t.Status = domain.TaskReady
			notifier.Notify(g, t, domain.TaskReady)
		}
	}
	return g, nil
}

func (in *Instantiator) build(tg *TemplateGraph, params HireParams) (*TaskGraph, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	now := in.clock.Now()
	start := dateOf(params.StartDate)
	templateID := tg.Template.ID

	g := newTaskGraph(&domain.Process{
		ID:           in.newID(),
		TemplateID:   &templateID,
		EmployeeName: strings.TrimSpace(params.EmployeeName),
		Email:        params.Email,
		Department:   params.Department,
		Position:     params.Position,
		StartDate:    start,
		Notes:        params.Notes,
		CreatedBy:    params.CreatedBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	})

	taskFor := make(map[string]string, tg.Len())
	for _, node := range tg.Nodes() {
		t, err := in.taskFromNode(g.Process.ID, node, start, now)
		if err != nil {
			return nil, err
		}
		taskFor[node.ID] = t.ID
		g.add(t)
	}

	for _, e := range tg.Edges() {
		if err := g.edges.AddEdge(taskFor[e.NodeID], taskFor[e.DependsOnID]); err != nil {
			return nil, fmt.Errorf("copying dependency %s -> %s: %w", e.NodeID, e.DependsOnID, err)
		}
	}
	return g, nil
}

func (in *Instantiator) taskFromNode(processID string, node *domain.TemplateNode, start, now time.Time) (*domain.Task, error) {
	if node.Entity == nil {
		return nil, fmt.Errorf("template node %s has no entity loaded", node.ID)
	}
	nodeID := node.ID
	entityID := node.Entity.ID

	t := &domain.Task{
		ID:           in.newID(),
		ProcessID:    processID,
		SourceNodeID: &nodeID,
		EntityID:     &entityID,
		Name:         node.Entity.Name,
		Description:  node.Entity.Description,
		Status:       domain.TaskPending,
		AssigneeID:   copyStr(node.DefaultAssigneeID),
		SortOrder:    node.SortOrder,
		CreatedAt:    now,
	}

	if node.DaysBeforeStart != nil {
		if *node.DaysBeforeStart < 0 {
			return nil, fmt.Errorf("template node %s has negative days_before_start", node.ID)
		}
		d := start.AddDate(0, 0, -*node.DaysBeforeStart)
		t.Deadline = &d
	}

	for _, def := range node.Entity.Fields {
		fv := domain.SeedFieldValue(def)
		fv.ID = in.newID()
		fv.TaskID = t.ID
		t.Fields = append(t.Fields, fv)
	}

	for _, r := range node.Rules {
		r.ID = in.newID()
		r.NotifyUserID = copyStr(r.NotifyUserID)
		t.Rules = append(t.Rules, r)
	}
	return t, nil
}

func copyStr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
