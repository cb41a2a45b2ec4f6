package application

import (
	"context"
	"sync"
	"testing"

	"github.com/fulfillment/order-system/order-service/domain"
	"github.com/fulfillment/order-system/order-service/mocks"
	"github.com/fulfillment/order-system/shared/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// fakeSagaCanceller records cancellation requests
type fakeSagaCanceller struct {
	mu           sync.Mutex
	cancelled    []models.ID
	cancelledAll bool
}

func (f *fakeSagaCanceller) Cancel(orderID models.ID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, orderID)
	return true
}

func (f *fakeSagaCanceller) CancelAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelledAll = true
}

func (f *fakeSagaCanceller) cancelledIDs() []models.ID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.ID(nil), f.cancelled...)
}

func TestDeleteOrder_Execute(t *testing.T) {
	validOrderID := "550e8400-e29b-41d4-a716-446655440020"

	storedOrder := &domain.Order{
		ID:         models.ID(validOrderID),
		CustomerID: "customer-1",
		Amount:     models.NewMoney(5000, "USD"),
		Status:     domain.OrderStatusCreated,
		Timestamps: models.NewTimestamps(),
	}

	tests := []struct {
		name          string
		cmd           *DeleteOrderCommand
		setupMocks    func(*mocks.MockOrderRepository, *mocks.MockPublisher)
		expectedError string
		expectCancel  bool
	}{
		{
			name: "successful deletion cancels the saga first",
			cmd:  &DeleteOrderCommand{OrderID: validOrderID},
			setupMocks: func(repo *mocks.MockOrderRepository, pub *mocks.MockPublisher) {
				repo.EXPECT().Delete(mock.Anything, models.ID(validOrderID)).
					Return(storedOrder, nil).Once()
				pub.EXPECT().Publish(mock.Anything, mock.Anything).Return(nil).Once()
			},
			expectCancel: true,
		},
		{
			name:          "missing order ID",
			cmd:           &DeleteOrderCommand{},
			setupMocks:    func(repo *mocks.MockOrderRepository, pub *mocks.MockPublisher) {},
			expectedError: "order ID is required",
		},
		{
			name:          "invalid order ID",
			cmd:           &DeleteOrderCommand{OrderID: "not-a-uuid"},
			setupMocks:    func(repo *mocks.MockOrderRepository, pub *mocks.MockPublisher) {},
			expectedError: "invalid order ID",
		},
		{
			name: "order not found",
			cmd:  &DeleteOrderCommand{OrderID: validOrderID},
			setupMocks: func(repo *mocks.MockOrderRepository, pub *mocks.MockPublisher) {
				repo.EXPECT().Delete(mock.Anything, models.ID(validOrderID)).
					Return(nil, domain.ErrOrderNotFound).Once()
			},
			expectedError: "order not found",
			expectCancel:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := mocks.NewMockOrderRepository(t)
			mockPublisher := mocks.NewMockPublisher(t)
			sagas := &fakeSagaCanceller{}
			tt.setupMocks(mockRepo, mockPublisher)

			useCase := NewDeleteOrder(mockRepo, mockPublisher, sagas)

			result, err := useCase.Execute(context.Background(), tt.cmd)

			if tt.expectedError != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				assert.Nil(t, result)
			} else {
				assert.NoError(t, err)
				require.NotNil(t, result)
				assert.Equal(t, validOrderID, result.OrderID)
			}

			if tt.expectCancel {
				cancelled := sagas.cancelledIDs()
				require.Len(t, cancelled, 1)
				assert.Equal(t, models.ID(validOrderID), cancelled[0])
			} else {
				assert.Empty(t, sagas.cancelledIDs())
			}
		})
	}
}

func TestDeleteAllOrders_Execute(t *testing.T) {
	orders := []*domain.Order{
		{
			ID:         models.GenerateUUID(),
			CustomerID: "customer-1",
			Amount:     models.NewMoney(5000, "USD"),
			Status:     domain.OrderStatusCreated,
		},
		{
			ID:         models.GenerateUUID(),
			CustomerID: "customer-2",
			Amount:     models.NewMoney(2500, "USD"),
			Status:     domain.OrderStatusApproved,
		},
	}

	t.Run("deletes everything and reports the count", func(t *testing.T) {
		mockRepo := mocks.NewMockOrderRepository(t)
		mockPublisher := mocks.NewMockPublisher(t)
		sagas := &fakeSagaCanceller{}

		mockRepo.EXPECT().List(mock.Anything).Return(orders, nil).Once()
		mockRepo.EXPECT().DeleteAll(mock.Anything).Return(nil).Once()
		mockPublisher.EXPECT().Publish(mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

		useCase := NewDeleteAllOrders(mockRepo, mockPublisher, sagas)

		result, err := useCase.Execute(context.Background())

		assert.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, 2, result.Deleted)
		assert.True(t, sagas.cancelledAll)
	})

	t.Run("empty store publishes nothing", func(t *testing.T) {
		mockRepo := mocks.NewMockOrderRepository(t)
		mockPublisher := mocks.NewMockPublisher(t)
		sagas := &fakeSagaCanceller{}

		mockRepo.EXPECT().List(mock.Anything).Return(nil, nil).Once()
		mockRepo.EXPECT().DeleteAll(mock.Anything).Return(nil).Once()

		useCase := NewDeleteAllOrders(mockRepo, mockPublisher, sagas)

		result, err := useCase.Execute(context.Background())

		assert.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, 0, result.Deleted)
	})

	t.Run("store failure surfaces", func(t *testing.T) {
		mockRepo := mocks.NewMockOrderRepository(t)
		mockPublisher := mocks.NewMockPublisher(t)
		sagas := &fakeSagaCanceller{}

		mockRepo.EXPECT().List(mock.Anything).Return(nil, errors.New("store offline")).Once()

		useCase := NewDeleteAllOrders(mockRepo, mockPublisher, sagas)

		result, err := useCase.Execute(context.Background())

		assert.Error(t, err)
		assert.Nil(t, result)
	})
}
