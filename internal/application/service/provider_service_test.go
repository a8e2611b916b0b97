package service

import (
	"context"
	"testing"

	"github.com/breakretail/backoffice-api/internal/domain/entity"
	"github.com/breakretail/backoffice-api/pkg/apperror"
	"github.com/google/uuid"
)

type fakeProviderRepo struct {
	providers map[uuid.UUID]*entity.Provider
}

func newFakeProviderRepo() *fakeProviderRepo {
	return &fakeProviderRepo{providers: make(map[uuid.UUID]*entity.Provider)}
}

func (r *fakeProviderRepo) Create(ctx context.Context, provider *entity.Provider) error {
	if provider.ID == uuid.Nil {
		provider.ID = uuid.New()
	}
	r.providers[provider.ID] = provider
	return nil
}

func (r *fakeProviderRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Provider, error) {
	return r.providers[id], nil
}

func (r *fakeProviderRepo) GetAll(ctx context.Context) ([]entity.Provider, error) {
	result := make([]entity.Provider, 0, len(r.providers))
	for _, provider := range r.providers {
		result = append(result, *provider)
	}
	return result, nil
}

func (r *fakeProviderRepo) Update(ctx context.Context, provider *entity.Provider) error {
	r.providers[provider.ID] = provider
	return nil
}

func (r *fakeProviderRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.providers, id)
	return nil
}

func TestCreateProviderRequiresName(t *testing.T) {
	svc := NewProviderService(newFakeProviderRepo())

	_, err := svc.CreateProvider(context.Background(), &ProviderInput{ContactName: "Juan"})
	if err == nil {
		t.Fatalf("expected failure for nameless provider")
	}
	appErr := apperror.GetAppError(err)
	if appErr == nil || appErr.Code != 400 {
		t.Fatalf("expected a bad request error, got %v", err)
	}
}

func TestCreateAndGetProvider(t *testing.T) {
	svc := NewProviderService(newFakeProviderRepo())

	created, err := svc.CreateProvider(context.Background(), &ProviderInput{
		Name:        "Distribuidora Norte",
		ContactName: "Juan Perez",
		Phone:       "+54 11 4000 0000",
		Email:       "ventas@norte.example",
		Address:     "Av. Siempreviva 123",
	})
	if err != nil {
		t.Fatalf("create provider: %v", err)
	}

	got, err := svc.GetProvider(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("get provider: %v", err)
	}
	if got.Name != "Distribuidora Norte" || got.Email != "ventas@norte.example" {
		t.Fatalf("unexpected provider: %+v", got)
	}
}

func TestUpdateProviderReplacesContactRecord(t *testing.T) {
	svc := NewProviderService(newFakeProviderRepo())

	created, err := svc.CreateProvider(context.Background(), &ProviderInput{
		Name:        "Distribuidora Norte",
		ContactName: "Juan Perez",
		Phone:       "+54 11 4000 0000",
	})
	if err != nil {
		t.Fatalf("create provider: %v", err)
	}

	updated, err := svc.UpdateProvider(context.Background(), created.ID, &ProviderInput{
		Name:        "Distribuidora Norte SA",
		ContactName: "Maria Gomez",
	})
	if err != nil {
		t.Fatalf("update provider: %v", err)
	}

	if updated.Name != "Distribuidora Norte SA" || updated.ContactName != "Maria Gomez" {
		t.Fatalf("unexpected provider after update: %+v", updated)
	}
	// Whole-record replacement, omitted fields clear
	if updated.Phone != "" {
		t.Fatalf("expected phone cleared by replacement, got %q", updated.Phone)
	}
}

func TestUpdateProviderUnknownID(t *testing.T) {
	svc := NewProviderService(newFakeProviderRepo())

	_, err := svc.UpdateProvider(context.Background(), uuid.New(), &ProviderInput{Name: "x"})
	if err == nil {
		t.Fatalf("expected failure for unknown provider")
	}
	appErr := apperror.GetAppError(err)
	if appErr == nil || appErr.Code != 404 {
		t.Fatalf("expected a not found error, got %v", err)
	}
}

func TestDeleteProvider(t *testing.T) {
	repo := newFakeProviderRepo()
	svc := NewProviderService(repo)

	created, err := svc.CreateProvider(context.Background(), &ProviderInput{Name: "Distribuidora Norte"})
	if err != nil {
		t.Fatalf("create provider: %v", err)
	}

	if err := svc.DeleteProvider(context.Background(), created.ID); err != nil {
		t.Fatalf("delete provider: %v", err)
	}
	if _, err := svc.GetProvider(context.Background(), created.ID); err == nil {
		t.Fatalf("expected deleted provider to be gone")
	}
}
