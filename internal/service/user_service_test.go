package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"underwriter/internal/domain"
	"underwriter/internal/service"
	"underwriter/mocks"
)

func TestUserService_Create(t *testing.T) {
	repo := new(mocks.MockUserRepo)
	svc := service.NewUserService(repo)

	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)

	user, err := svc.Create(context.Background(), service.CreateUserInput{
		Email:    "admin@example.com",
		Password: "supersecret",
		FullName: "Admin",
		Role:     domain.RoleAdmin,
	})

	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, user.Role)
	assert.True(t, user.IsActive)
	assert.NotEqual(t, "supersecret", user.PasswordHash)
	repo.AssertExpectations(t)
}

func TestUserService_Create_InvalidRole(t *testing.T) {
	repo := new(mocks.MockUserRepo)
	svc := service.NewUserService(repo)

	_, err := svc.Create(context.Background(), service.CreateUserInput{
		Email:    "x@example.com",
		Password: "supersecret",
		FullName: "X",
		Role:     domain.UserRole("superuser"),
	})

	assert.ErrorIs(t, err, domain.ErrForbidden)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUserService_Update_PartialFields(t *testing.T) {
	repo := new(mocks.MockUserRepo)
	svc := service.NewUserService(repo)

	userID := uuid.New()
	existing := &domain.User{
		ID:       userID,
		Email:    "old@example.com",
		FullName: "Old Name",
		Role:     domain.RoleAnalyst,
		IsActive: true,
	}
	repo.On("GetByID", mock.Anything, userID).Return(existing, nil)
	repo.On("Update", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)

	newName := "New Name"
	inactive := false
	user, err := svc.Update(context.Background(), userID, service.UpdateUserInput{
		FullName: &newName,
		IsActive: &inactive,
	})

	require.NoError(t, err)
	assert.Equal(t, "New Name", user.FullName)
	assert.Equal(t, "old@example.com", user.Email)
	assert.False(t, user.IsActive)
}

func TestUserService_Update_InvalidRole(t *testing.T) {
	repo := new(mocks.MockUserRepo)
	svc := service.NewUserService(repo)

	userID := uuid.New()
	repo.On("GetByID", mock.Anything, userID).Return(&domain.User{ID: userID}, nil)

	badRole := domain.UserRole("root")
	_, err := svc.Update(context.Background(), userID, service.UpdateUserInput{Role: &badRole})

	assert.ErrorIs(t, err, domain.ErrForbidden)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}
