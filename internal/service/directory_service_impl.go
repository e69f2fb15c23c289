package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/alexanderramin/kickoff/internal/db"
	"github.com/alexanderramin/kickoff/internal/domain"
	"github.com/alexanderramin/kickoff/internal/repository"
	"github.com/google/uuid"
)

type directoryService struct {
	users    repository.UserRepo
	entities repository.EntityRepo
	rt       Runtime
}

func NewDirectoryService(users repository.UserRepo, entities repository.EntityRepo, rt Runtime) DirectoryService {
	return &directoryService{users: users, entities: entities, rt: rt.withDefaults()}
}

func (s *directoryService) CreateUser(ctx context.Context, name, email string) (u *domain.User, err error) {
	defer observe(ctx, s.rt.Observer, "create_user", time.Now(), &err, nil)

	if err := requireName("name", name); err != nil {
		return nil, err
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, &domain.ValidationError{Field: "email", Message: fmt.Sprintf("%q is not an email address", email)}
	}
	u = &domain.User{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(name),
		Email:     strings.TrimSpace(email),
		Active:    true,
		CreatedAt: s.rt.Clock.Now(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *directoryService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *directoryService) ListUsers(ctx context.Context, includeInactive bool) ([]*domain.User, error) {
	return s.users.List(ctx, includeInactive)
}

// DeactivateUser hides the user from listings. Existing assignments stay.
func (s *directoryService) DeactivateUser(ctx context.Context, id string) (err error) {
	defer observe(ctx, s.rt.Observer, "deactivate_user", time.Now(), &err, map[string]any{"user_id": id})

	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	u.Active = false
	return s.users.Update(ctx, u)
}

// CreateEntity stores the entity together with its field definitions.
func (s *directoryService) CreateEntity(ctx context.Context, e *domain.Entity) (err error) {
	defer observe(ctx, s.rt.Observer, "create_entity", time.Now(), &err, nil)

	if err := requireName("name", e.Name); err != nil {
		return err
	}
	for i := range e.Fields {
		if err := validateField(&e.Fields[i]); err != nil {
			return err
		}
		e.Fields[i].ID = uuid.New().String()
		if e.Fields[i].SortOrder == 0 {
			e.Fields[i].SortOrder = i
		}
	}
	now := s.rt.Clock.Now()
	e.ID = uuid.New().String()
	e.Name = strings.TrimSpace(e.Name)
	e.CreatedAt, e.UpdatedAt = now, now

	return s.rt.UoW.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return repository.NewSQLiteEntityRepo(tx).Create(ctx, e)
	})
}

func (s *directoryService) GetEntity(ctx context.Context, id string) (*domain.Entity, error) {
	return s.entities.GetByID(ctx, id)
}

func (s *directoryService) ListEntities(ctx context.Context) ([]*domain.Entity, error) {
	return s.entities.List(ctx)
}

// AddField appends a field definition. Tasks already created from the entity
// keep the fields they were seeded with.
func (s *directoryService) AddField(ctx context.Context, entityID string, f *domain.FieldDefinition) (err error) {
	defer observe(ctx, s.rt.Observer, "add_field", time.Now(), &err, map[string]any{"entity_id": entityID})

	if err := validateField(f); err != nil {
		return err
	}
	e, err := s.entities.GetByID(ctx, entityID)
	if err != nil {
		return err
	}
	f.ID = uuid.New().String()
	f.EntityID = entityID
	if f.SortOrder == 0 {
		f.SortOrder = len(e.Fields)
	}
	return s.entities.AddField(ctx, f)
}

func (s *directoryService) RemoveField(ctx context.Context, fieldID string) (err error) {
	defer observe(ctx, s.rt.Observer, "remove_field", time.Now(), &err, map[string]any{"field_id": fieldID})
	return s.entities.RemoveField(ctx, fieldID)
}

// DeleteEntity fails while a template node still references the entity.
func (s *directoryService) DeleteEntity(ctx context.Context, id string) (err error) {
	defer observe(ctx, s.rt.Observer, "delete_entity", time.Now(), &err, map[string]any{"entity_id": id})
	return s.entities.Delete(ctx, id)
}

func validateField(f *domain.FieldDefinition) error {
	if err := requireName("field name", f.Name); err != nil {
		return err
	}
	if !domain.ValidFieldTypes[f.Type] {
		return &domain.ValidationError{Field: "field type", Message: fmt.Sprintf("%q is not a field type", f.Type)}
	}
	return nil
}
