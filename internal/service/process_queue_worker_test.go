package service_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"underwriter/internal/domain"
	"underwriter/internal/service"
	"underwriter/mocks"
)

func workerConfig() service.ProcessQueueConfig {
	return service.ProcessQueueConfig{
		PollInterval: 10 * time.Millisecond,
		MaxRetries:   3,
		Concurrency:  2,
	}
}

func TestProcessQueueWorker_DispatchesClaimedDocuments(t *testing.T) {
	docRepo := new(mocks.MockDocumentRepo)
	docService := new(mocks.MockDocumentService)

	claimed := []domain.Document{
		{ID: uuid.New(), Status: domain.DocumentStatusProcessing, ProcessAttempts: 1},
		{ID: uuid.New(), Status: domain.DocumentStatusProcessing, ProcessAttempts: 2},
	}
	docRepo.On("ClaimPending", mock.Anything, 2, 3).Return(claimed, nil).Once()
	docRepo.On("ClaimPending", mock.Anything, mock.AnythingOfType("int"), 3).
		Return([]domain.Document{}, nil).Maybe()

	var processed int32
	docService.On("ProcessDocument", mock.Anything, mock.AnythingOfType("*domain.Document")).
		Run(func(args mock.Arguments) { atomic.AddInt32(&processed, 1) }).
		Return()

	w := service.NewProcessQueueWorker(docRepo, docService, workerConfig())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&processed) == 2
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not shut down")
	}

	docRepo.AssertExpectations(t)
}

// Claim failures are logged and retried on the next tick, never fatal.
func TestProcessQueueWorker_SurvivesClaimError(t *testing.T) {
	docRepo := new(mocks.MockDocumentRepo)
	docService := new(mocks.MockDocumentService)

	docRepo.On("ClaimPending", mock.Anything, 2, 3).
		Return(nil, errors.New("db connection lost")).Once()
	docRepo.On("ClaimPending", mock.Anything, 2, 3).
		Return([]domain.Document{{ID: uuid.New(), ProcessAttempts: 1}}, nil).Once()
	docRepo.On("ClaimPending", mock.Anything, mock.AnythingOfType("int"), 3).
		Return([]domain.Document{}, nil).Maybe()

	var processed int32
	docService.On("ProcessDocument", mock.Anything, mock.AnythingOfType("*domain.Document")).
		Run(func(args mock.Arguments) { atomic.AddInt32(&processed, 1) }).
		Return()

	w := service.NewProcessQueueWorker(docRepo, docService, workerConfig())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&processed) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done

	docRepo.AssertExpectations(t)
}

// Shutdown must wait for in-flight processing before returning.
func TestProcessQueueWorker_DrainsInFlightOnShutdown(t *testing.T) {
	docRepo := new(mocks.MockDocumentRepo)
	docService := new(mocks.MockDocumentService)

	started := make(chan struct{})
	release := make(chan struct{})
	var finished int32

	docRepo.On("ClaimPending", mock.Anything, 2, 3).
		Return([]domain.Document{{ID: uuid.New(), ProcessAttempts: 1}}, nil).Once()
	docRepo.On("ClaimPending", mock.Anything, mock.AnythingOfType("int"), 3).
		Return([]domain.Document{}, nil).Maybe()

	docService.On("ProcessDocument", mock.Anything, mock.AnythingOfType("*domain.Document")).
		Run(func(args mock.Arguments) {
			close(started)
			<-release
			atomic.StoreInt32(&finished, 1)
		}).
		Return()

	w := service.NewProcessQueueWorker(docRepo, docService, workerConfig())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	<-started
	cancel()

	select {
	case <-done:
		t.Fatal("worker returned while a job was still in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not shut down after draining")
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&finished))
}
