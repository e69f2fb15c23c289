package importer

import (
	"strings"
	"time"

	"github.com/alexanderramin/kickoff/internal/domain"
	"github.com/google/uuid"
)

// Refs resolves document names to stored IDs. Keys are lower-cased entity
// names and email addresses.
type Refs struct {
	Entities map[string]string
	Users    map[string]string
}

// NewRefs indexes stored entities and users for Convert.
func NewRefs(entities []*domain.Entity, users []*domain.User) Refs {
	r := Refs{
		Entities: make(map[string]string, len(entities)),
		Users:    make(map[string]string, len(users)),
	}
	for _, e := range entities {
		r.Entities[nameKey(e.Name)] = e.ID
	}
	for _, u := range users {
		r.Users[nameKey(u.Email)] = u.ID
	}
	return r
}

// Generated holds the rows an import creates. Entities lists only entities
// that were not already stored.
type Generated struct {
	Template     *domain.Template
	Entities     []*domain.Entity
	Nodes        []*domain.TemplateNode
	Dependencies []domain.Dependency
}

// Convert turns a validated document into domain objects ready for
// persistence. Call Validate first; Convert only reports unresolved
// entities and users.
func Convert(doc *TemplateDocument, refs Refs, now time.Time) (*Generated, error) {
	gen := &Generated{
		Template: &domain.Template{
			ID:          uuid.New().String(),
			Name:        strings.TrimSpace(doc.Template.Name),
			Description: doc.Template.Description,
			Active:      true,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	}

	entityIDs := make(map[string]*domain.Entity)
	for _, ei := range doc.Entities {
		key := nameKey(ei.Name)
		if _, ok := refs.Entities[key]; ok {
			continue
		}
		e := convertEntity(ei, now)
		entityIDs[key] = e
		gen.Entities = append(gen.Entities, e)
	}
	entity := func(name string) (*domain.Entity, string, error) {
		key := nameKey(name)
		if e, ok := entityIDs[key]; ok {
			return e, e.ID, nil
		}
		if id, ok := refs.Entities[key]; ok {
			return nil, id, nil
		}
		return nil, "", &domain.NotFoundError{Kind: "entity", ID: name}
	}
	user := func(email string) (*string, error) {
		if email == "" {
			return nil, nil
		}
		id, ok := refs.Users[nameKey(email)]
		if !ok {
			return nil, &domain.NotFoundError{Kind: "user", ID: email}
		}
		return &id, nil
	}

	refMap := make(map[string]string, len(doc.Nodes))
	for i, ni := range doc.Nodes {
		e, entityID, err := entity(ni.Entity)
		if err != nil {
			return nil, err
		}
		assignee, err := user(ni.Assignee)
		if err != nil {
			return nil, err
		}
		n := &domain.TemplateNode{
			ID:                uuid.New().String(),
			TemplateID:        gen.Template.ID,
			EntityID:          entityID,
			Entity:            e,
			DaysBeforeStart:   ni.DaysBeforeStart,
			DefaultAssigneeID: assignee,
			SortOrder:         ni.Order,
		}
		if n.SortOrder == 0 {
			n.SortOrder = i
		}
		for _, ri := range ni.Rules {
			notifyUser, err := user(ri.NotifyUser)
			if err != nil {
				return nil, err
			}
			inApp := true
			if ri.InApp != nil {
				inApp = *ri.InApp
			}
			n.Rules = append(n.Rules, domain.NotificationRule{
				ID:                       uuid.New().String(),
				NotifyUserID:             notifyUser,
				NotifyAssignee:           ri.NotifyAssignee,
				NotifyDependentAssignees: ri.NotifyDependents,
				Trigger:                  domain.TaskStatus(ri.On),
				SendEmail:                ri.Email,
				SendInApp:                inApp,
			})
		}
		refMap[ni.Ref] = n.ID
		gen.Nodes = append(gen.Nodes, n)
	}

	for _, d := range doc.Dependencies {
		gen.Dependencies = append(gen.Dependencies, domain.Dependency{
			NodeID:      refMap[d.Node],
			DependsOnID: refMap[d.DependsOn],
		})
	}
	return gen, nil
}

func convertEntity(ei EntityImport, now time.Time) *domain.Entity {
	e := &domain.Entity{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(ei.Name),
		Description: ei.Description,
		Category:    ei.Category,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for i, fi := range ei.Fields {
		e.Fields = append(e.Fields, domain.FieldDefinition{
			ID:           uuid.New().String(),
			EntityID:     e.ID,
			Name:         strings.TrimSpace(fi.Name),
			Type:         domain.FieldType(fi.Type),
			Required:     fi.Required,
			DefaultValue: fi.Default,
			SortOrder:    i,
		})
	}
	return e
}
