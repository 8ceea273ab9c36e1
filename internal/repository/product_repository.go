package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/wavecart/order-ledger/internal/domain"
)

// ProductRepository is the catalog adapter. Stock moves only through
// conditional update expressions, so concurrent checkouts can never drive
// stock negative or lose an update.
type ProductRepository struct {
	client    *dynamodb.Client
	tableName string
}

func NewProductRepository(client *dynamodb.Client, tableName string) *ProductRepository {
	return &ProductRepository{
		client:    client,
		tableName: tableName,
	}
}

type productRecord struct {
	PK        string    `dynamodbav:"PK"`
	SK        string    `dynamodbav:"SK"`
	ProductID string    `dynamodbav:"productId"`
	SellerID  string    `dynamodbav:"sellerId"`
	Name      string    `dynamodbav:"name"`
	Price     moneyAttr `dynamodbav:"price"`
	Status    string    `dynamodbav:"status"`
	Stock     int       `dynamodbav:"stock"`
	SoldCount int       `dynamodbav:"soldCount"`
	Images    []string  `dynamodbav:"images,omitempty"`
	UpdatedAt time.Time `dynamodbav:"updatedAt"`
}

func productPK(productID string) string {
	return fmt.Sprintf("PRODUCT#%s", productID)
}

func productKey(productID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: productPK(productID)},
		"SK": &types.AttributeValueMemberS{Value: "METADATA"},
	}
}

func (r *ProductRepository) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            productKey(productID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Item) == 0 {
		return nil, domain.NewNotFoundError(domain.CodeProductNotFound, "product %s not found", productID)
	}

	var rec productRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, err
	}

	return &domain.Product{
		ProductID: rec.ProductID,
		SellerID:  rec.SellerID,
		Name:      rec.Name,
		Price:     rec.Price.Decimal,
		Status:    domain.ProductStatus(rec.Status),
		Stock:     rec.Stock,
		SoldCount: rec.SoldCount,
		Images:    rec.Images,
		UpdatedAt: rec.UpdatedAt,
	}, nil
}

// ReserveStock decrements stock and increments soldCount in one conditional
// write; the condition "stock >= quantity" makes the reservation atomic.
func (r *ProductRepository) ReserveStock(ctx context.Context, productID string, quantity int) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 productKey(productID),
		UpdateExpression:    aws.String("SET stock = stock - :q, soldCount = soldCount + :q, updatedAt = :now"),
		ConditionExpression: aws.String("stock >= :q"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":q":   &types.AttributeValueMemberN{Value: strconv.Itoa(quantity)},
			":now": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)},
		},
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return domain.NewBusinessRuleError(domain.CodeInsufficientStock,
				"insufficient stock for product %s", productID)
		}
		return fmt.Errorf("failed to reserve stock for product %s: %w", productID, err)
	}

	return nil
}

// RestoreStock returns previously reserved stock after a cancel or refund.
func (r *ProductRepository) RestoreStock(ctx context.Context, productID string, quantity int) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(r.tableName),
		Key:              productKey(productID),
		UpdateExpression: aws.String("SET stock = stock + :q, soldCount = soldCount - :q, updatedAt = :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":q":   &types.AttributeValueMemberN{Value: strconv.Itoa(quantity)},
			":now": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to restore stock for product %s: %w", productID, err)
	}

	return nil
}
