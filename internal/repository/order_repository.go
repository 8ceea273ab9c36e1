package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/wavecart/order-ledger/internal/domain"
)

// OrderRepository persists Order aggregates on DynamoDB. Writes are guarded
// by a condition on the version attribute, so a stale writer loses with a
// conflict error rather than clobbering a newer state.
type OrderRepository struct {
	client    *dynamodb.Client
	tableName string
}

func NewOrderRepository(client *dynamodb.Client, tableName string) *OrderRepository {
	return &OrderRepository{
		client:    client,
		tableName: tableName,
	}
}

// Ping confirms the orders table is reachable.
func (r *OrderRepository) Ping(ctx context.Context) error {
	_, err := r.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(r.tableName),
	})
	return err
}

type orderItemRecord struct {
	ProductID    string    `dynamodbav:"productId"`
	ProductName  string    `dynamodbav:"productName"`
	ProductImage string    `dynamodbav:"productImage,omitempty"`
	SellerID     string    `dynamodbav:"sellerId"`
	Quantity     int       `dynamodbav:"quantity"`
	UnitPrice    moneyAttr `dynamodbav:"unitPrice"`
	Total        moneyAttr `dynamodbav:"total"`
}

type statusHistoryRecord struct {
	Status    string    `dynamodbav:"status"`
	Actor     string    `dynamodbav:"actor"`
	Note      string    `dynamodbav:"note,omitempty"`
	Timestamp time.Time `dynamodbav:"timestamp"`
}

type paymentHistoryRecord struct {
	Status        string    `dynamodbav:"status"`
	TransactionID string    `dynamodbav:"transactionId,omitempty"`
	Details       string    `dynamodbav:"details,omitempty"`
	Timestamp     time.Time `dynamodbav:"timestamp"`
}

type orderRecord struct {
	PK              string                 `dynamodbav:"PK"`
	SK              string                 `dynamodbav:"SK"`
	GSI1PK          string                 `dynamodbav:"GSI1PK"`
	GSI1SK          string                 `dynamodbav:"GSI1SK"`
	OrderID         string                 `dynamodbav:"orderId"`
	OrderNumber     string                 `dynamodbav:"orderNumber"`
	BuyerID         string                 `dynamodbav:"buyerId"`
	SellerID        string                 `dynamodbav:"sellerId"`
	Items           []orderItemRecord      `dynamodbav:"items"`
	Subtotal        moneyAttr              `dynamodbav:"subtotal"`
	Shipping        moneyAttr              `dynamodbav:"shipping"`
	Tax             moneyAttr              `dynamodbav:"tax"`
	TotalAmount     moneyAttr              `dynamodbav:"totalAmount"`
	Status          string                 `dynamodbav:"status"`
	PaymentStatus   string                 `dynamodbav:"paymentStatus"`
	PaymentMethod   string                 `dynamodbav:"paymentMethod"`
	ShippingAddress domain.Address         `dynamodbav:"shippingAddress"`
	BillingAddress  domain.Address         `dynamodbav:"billingAddress"`
	AffiliateCode   string                 `dynamodbav:"affiliateCode,omitempty"`
	StatusHistory   []statusHistoryRecord  `dynamodbav:"statusHistory"`
	PaymentHistory  []paymentHistoryRecord `dynamodbav:"paymentHistory"`
	Version         int64                  `dynamodbav:"version"`
	CreatedAt       time.Time              `dynamodbav:"createdAt"`
	UpdatedAt       time.Time              `dynamodbav:"updatedAt"`
	CompletedAt     *time.Time             `dynamodbav:"completedAt,omitempty"`
}

func toOrderRecord(order *domain.Order) orderRecord {
	rec := orderRecord{
		PK:              orderPK(order.OrderID),
		SK:              "METADATA",
		GSI1PK:          fmt.Sprintf("BUYER#%s", order.BuyerID),
		GSI1SK:          fmt.Sprintf("ORDER#%s", order.CreatedAt.UTC().Format(time.RFC3339)),
		OrderID:         order.OrderID,
		OrderNumber:     order.OrderNumber,
		BuyerID:         order.BuyerID,
		SellerID:        order.SellerID,
		Subtotal:        moneyAttr{order.Subtotal},
		Shipping:        moneyAttr{order.Shipping},
		Tax:             moneyAttr{order.Tax},
		TotalAmount:     moneyAttr{order.TotalAmount},
		Status:          string(order.Status),
		PaymentStatus:   string(order.PaymentStatus),
		PaymentMethod:   order.PaymentMethod,
		ShippingAddress: order.ShippingAddress,
		BillingAddress:  order.BillingAddress,
		AffiliateCode:   order.AffiliateCode,
		Version:         order.Version,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
		CompletedAt:     order.CompletedAt,
	}

	for _, item := range order.Items {
		rec.Items = append(rec.Items, orderItemRecord{
			ProductID:    item.ProductID,
			ProductName:  item.ProductName,
			ProductImage: item.ProductImage,
			SellerID:     item.SellerID,
			Quantity:     item.Quantity,
			UnitPrice:    moneyAttr{item.UnitPrice},
			Total:        moneyAttr{item.Total},
		})
	}
	for _, entry := range order.StatusHistory {
		rec.StatusHistory = append(rec.StatusHistory, statusHistoryRecord{
			Status:    string(entry.Status),
			Actor:     entry.Actor,
			Note:      entry.Note,
			Timestamp: entry.Timestamp,
		})
	}
	for _, entry := range order.PaymentHistory {
		rec.PaymentHistory = append(rec.PaymentHistory, paymentHistoryRecord{
			Status:        string(entry.Status),
			TransactionID: entry.TransactionID,
			Details:       entry.Details,
			Timestamp:     entry.Timestamp,
		})
	}

	return rec
}

func (r orderRecord) toDomain() *domain.Order {
	order := &domain.Order{
		OrderID:         r.OrderID,
		OrderNumber:     r.OrderNumber,
		BuyerID:         r.BuyerID,
		SellerID:        r.SellerID,
		Subtotal:        r.Subtotal.Decimal,
		Shipping:        r.Shipping.Decimal,
		Tax:             r.Tax.Decimal,
		TotalAmount:     r.TotalAmount.Decimal,
		Status:          domain.OrderStatus(r.Status),
		PaymentStatus:   domain.PaymentStatus(r.PaymentStatus),
		PaymentMethod:   r.PaymentMethod,
		ShippingAddress: r.ShippingAddress,
		BillingAddress:  r.BillingAddress,
		AffiliateCode:   r.AffiliateCode,
		Version:         r.Version,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
		CompletedAt:     r.CompletedAt,
	}

	for _, item := range r.Items {
		order.Items = append(order.Items, domain.OrderItem{
			ProductID:    item.ProductID,
			ProductName:  item.ProductName,
			ProductImage: item.ProductImage,
			SellerID:     item.SellerID,
			Quantity:     item.Quantity,
			UnitPrice:    item.UnitPrice.Decimal,
			Total:        item.Total.Decimal,
		})
	}
	for _, entry := range r.StatusHistory {
		order.StatusHistory = append(order.StatusHistory, domain.StatusHistoryEntry{
			Status:    domain.OrderStatus(entry.Status),
			Actor:     entry.Actor,
			Note:      entry.Note,
			Timestamp: entry.Timestamp,
		})
	}
	for _, entry := range r.PaymentHistory {
		order.PaymentHistory = append(order.PaymentHistory, domain.PaymentHistoryEntry{
			Status:        domain.PaymentStatus(entry.Status),
			TransactionID: entry.TransactionID,
			Details:       entry.Details,
			Timestamp:     entry.Timestamp,
		})
	}

	return order
}

func orderPK(orderID string) string {
	return fmt.Sprintf("ORDER#%s", orderID)
}

func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	av, err := attributevalue.MarshalMap(toOrderRecord(order))
	if err != nil {
		return fmt.Errorf("failed to marshal order: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		return fmt.Errorf("failed to put order: %w", err)
	}

	return nil
}

func (r *OrderRepository) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: orderPK(orderID)},
			"SK": &types.AttributeValueMemberS{Value: "METADATA"},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Item) == 0 {
		return nil, domain.NewNotFoundError(domain.CodeOrderNotFound, "order %s not found", orderID)
	}

	var rec orderRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, err
	}

	return rec.toDomain(), nil
}

// Update writes the full aggregate, bumping the version, on the condition
// that the stored version still matches expectedVersion.
func (r *OrderRepository) Update(ctx context.Context, order *domain.Order, expectedVersion int64) error {
	order.Version = expectedVersion + 1
	order.UpdatedAt = time.Now().UTC()

	av, err := attributevalue.MarshalMap(toOrderRecord(order))
	if err != nil {
		return fmt.Errorf("failed to marshal order: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("version = :expected"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":expected": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", expectedVersion)},
		},
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return domain.NewConflictError("order %s was modified concurrently", order.OrderID)
		}
		return fmt.Errorf("failed to update order: %w", err)
	}

	return nil
}
