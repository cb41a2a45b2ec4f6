package application

import (
	"context"
	"testing"

	"github.com/fulfillment/order-system/order-service/domain"
	"github.com/fulfillment/order-system/order-service/mocks"
	"github.com/fulfillment/order-system/shared/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testOrderID = "550e8400-e29b-41d4-a716-446655440020"

func createdOrder() *domain.Order {
	return &domain.Order{
		ID:         models.ID(testOrderID),
		CustomerID: "customer-1",
		Amount:     models.NewMoney(5000, "USD"),
		Status:     domain.OrderStatusCreated,
		Timestamps: models.NewTimestamps(),
		Version:    models.NewVersion(),
	}
}

func TestApproveOrder_Execute(t *testing.T) {
	tests := []struct {
		name          string
		cmd           *ApproveOrderCommand
		setupMocks    func(*mocks.MockOrderRepository, *mocks.MockPublisher)
		expectedError string
	}{
		{
			name: "successful approval",
			cmd:  &ApproveOrderCommand{OrderID: testOrderID},
			setupMocks: func(repo *mocks.MockOrderRepository, pub *mocks.MockPublisher) {
				approved := createdOrder()
				approved.Status = domain.OrderStatusApproved

				repo.EXPECT().Get(mock.Anything, models.ID(testOrderID)).
					Return(createdOrder(), nil).Once()
				repo.EXPECT().UpdateStatus(mock.Anything, models.ID(testOrderID), domain.OrderStatusApproved).
					Return(approved, nil).Once()
				pub.EXPECT().Publish(mock.Anything, mock.Anything).Return(nil).Once()
			},
		},
		{
			name:          "missing order ID",
			cmd:           &ApproveOrderCommand{},
			setupMocks:    func(repo *mocks.MockOrderRepository, pub *mocks.MockPublisher) {},
			expectedError: "order ID is required",
		},
		{
			name: "order not found",
			cmd:  &ApproveOrderCommand{OrderID: testOrderID},
			setupMocks: func(repo *mocks.MockOrderRepository, pub *mocks.MockPublisher) {
				repo.EXPECT().Get(mock.Anything, models.ID(testOrderID)).
					Return(nil, domain.ErrOrderNotFound).Once()
			},
			expectedError: "order not found",
		},
		{
			name: "already approved order cannot be approved again",
			cmd:  &ApproveOrderCommand{OrderID: testOrderID},
			setupMocks: func(repo *mocks.MockOrderRepository, pub *mocks.MockPublisher) {
				approved := createdOrder()
				approved.Status = domain.OrderStatusApproved

				repo.EXPECT().Get(mock.Anything, models.ID(testOrderID)).
					Return(approved, nil).Once()
			},
			expectedError: "order can only be approved from created status",
		},
		{
			name: "rejected order cannot be approved",
			cmd:  &ApproveOrderCommand{OrderID: testOrderID},
			setupMocks: func(repo *mocks.MockOrderRepository, pub *mocks.MockPublisher) {
				rejected := createdOrder()
				rejected.Status = domain.OrderStatusRejected

				repo.EXPECT().Get(mock.Anything, models.ID(testOrderID)).
					Return(rejected, nil).Once()
			},
			expectedError: "order can only be approved from created status",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := mocks.NewMockOrderRepository(t)
			mockPublisher := mocks.NewMockPublisher(t)
			sagas := &fakeSagaCanceller{}
			tt.setupMocks(mockRepo, mockPublisher)

			useCase := NewApproveOrder(mockRepo, mockPublisher, sagas)

			result, err := useCase.Execute(context.Background(), tt.cmd)

			if tt.expectedError != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				assert.Nil(t, result)
			} else {
				assert.NoError(t, err)
				require.NotNil(t, result)
				assert.Equal(t, "approved", result.Status)
				assert.Equal(t, []models.ID{models.ID(testOrderID)}, sagas.cancelledIDs(),
					"any in-flight saga must be cancelled before the status changes")
			}
		})
	}
}

func TestRejectOrder_Execute(t *testing.T) {
	tests := []struct {
		name          string
		cmd           *RejectOrderCommand
		setupMocks    func(*mocks.MockOrderRepository, *mocks.MockPublisher)
		expectedError string
	}{
		{
			name: "successful rejection",
			cmd:  &RejectOrderCommand{OrderID: testOrderID, Reason: "fraud check failed"},
			setupMocks: func(repo *mocks.MockOrderRepository, pub *mocks.MockPublisher) {
				rejected := createdOrder()
				rejected.Status = domain.OrderStatusRejected

				repo.EXPECT().Get(mock.Anything, models.ID(testOrderID)).
					Return(createdOrder(), nil).Once()
				repo.EXPECT().UpdateStatus(mock.Anything, models.ID(testOrderID), domain.OrderStatusRejected).
					Return(rejected, nil).Once()
				pub.EXPECT().Publish(mock.Anything, mock.Anything).Return(nil).Once()
			},
		},
		{
			name: "rejection without reason gets a default",
			cmd:  &RejectOrderCommand{OrderID: testOrderID},
			setupMocks: func(repo *mocks.MockOrderRepository, pub *mocks.MockPublisher) {
				rejected := createdOrder()
				rejected.Status = domain.OrderStatusRejected

				repo.EXPECT().Get(mock.Anything, models.ID(testOrderID)).
					Return(createdOrder(), nil).Once()
				repo.EXPECT().UpdateStatus(mock.Anything, models.ID(testOrderID), domain.OrderStatusRejected).
					Return(rejected, nil).Once()
				pub.EXPECT().Publish(mock.Anything, mock.Anything).Return(nil).Once()
			},
		},
		{
			name:          "missing order ID",
			cmd:           &RejectOrderCommand{},
			setupMocks:    func(repo *mocks.MockOrderRepository, pub *mocks.MockPublisher) {},
			expectedError: "order ID is required",
		},
		{
			name: "approved order cannot be rejected",
			cmd:  &RejectOrderCommand{OrderID: testOrderID},
			setupMocks: func(repo *mocks.MockOrderRepository, pub *mocks.MockPublisher) {
				approved := createdOrder()
				approved.Status = domain.OrderStatusApproved

				repo.EXPECT().Get(mock.Anything, models.ID(testOrderID)).
					Return(approved, nil).Once()
			},
			expectedError: "order can only be rejected from created status",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := mocks.NewMockOrderRepository(t)
			mockPublisher := mocks.NewMockPublisher(t)
			sagas := &fakeSagaCanceller{}
			tt.setupMocks(mockRepo, mockPublisher)

			useCase := NewRejectOrder(mockRepo, mockPublisher, sagas)

			result, err := useCase.Execute(context.Background(), tt.cmd)

			if tt.expectedError != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				assert.Nil(t, result)
			} else {
				assert.NoError(t, err)
				require.NotNil(t, result)
				assert.Equal(t, "rejected", result.Status)
				assert.Equal(t, []models.ID{models.ID(testOrderID)}, sagas.cancelledIDs(),
					"any in-flight saga must be cancelled before the status changes")
			}
		})
	}
}
