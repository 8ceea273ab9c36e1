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

// RevenueRepository is the append-only revenue ledger. A record's facts are
// written once and never rewritten; only the status of the commission record
// moves when its referral is resolved.
type RevenueRepository struct {
	client    *dynamodb.Client
	tableName string
}

func NewRevenueRepository(client *dynamodb.Client, tableName string) *RevenueRepository {
	return &RevenueRepository{
		client:    client,
		tableName: tableName,
	}
}

type revenueRecord struct {
	PK            string    `dynamodbav:"PK"`
	SK            string    `dynamodbav:"SK"`
	RecordID      string    `dynamodbav:"recordId"`
	Type          string    `dynamodbav:"type"`
	OrderID       string    `dynamodbav:"orderId"`
	SellerID      string    `dynamodbav:"sellerId"`
	AffiliateCode string    `dynamodbav:"affiliateCode,omitempty"`
	Amount        moneyAttr `dynamodbav:"amount"`
	Status        string    `dynamodbav:"status"`
	CreatedAt     time.Time `dynamodbav:"createdAt"`
}

func revenueSK(t domain.RevenueType) string {
	return fmt.Sprintf("REVENUE#%s", t)
}

// Append writes one immutable revenue fact. One record per order and type;
// a duplicate append is rejected by the key condition and dropped.
func (r *RevenueRepository) Append(ctx context.Context, record *domain.RevenueRecord) error {
	av, err := attributevalue.MarshalMap(revenueRecord{
		PK:            orderPK(record.OrderID),
		SK:            revenueSK(record.Type),
		RecordID:      record.RecordID,
		Type:          string(record.Type),
		OrderID:       record.OrderID,
		SellerID:      record.SellerID,
		AffiliateCode: record.AffiliateCode,
		Amount:        moneyAttr{record.Amount},
		Status:        string(record.Status),
		CreatedAt:     record.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal revenue record: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(SK)"),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return nil
		}
		return fmt.Errorf("failed to append revenue record: %w", err)
	}

	return nil
}

func (r *RevenueRepository) ListByOrder(ctx context.Context, orderID string) ([]domain.RevenueRecord, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: orderPK(orderID)},
			":prefix": &types.AttributeValueMemberS{Value: "REVENUE#"},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}

	records := make([]domain.RevenueRecord, 0, len(out.Items))
	for _, item := range out.Items {
		var rec revenueRecord
		if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
			return nil, err
		}
		records = append(records, domain.RevenueRecord{
			RecordID:      rec.RecordID,
			Type:          domain.RevenueType(rec.Type),
			OrderID:       rec.OrderID,
			SellerID:      rec.SellerID,
			AffiliateCode: rec.AffiliateCode,
			Amount:        rec.Amount.Decimal,
			Status:        domain.RevenueStatus(rec.Status),
			CreatedAt:     rec.CreatedAt,
		})
	}

	return records, nil
}

// UpdateCommissionStatus moves the commission record for the order to the
// given status. The facts of the record stay untouched.
func (r *RevenueRepository) UpdateCommissionStatus(ctx context.Context, orderID string, status domain.RevenueStatus) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: orderPK(orderID)},
			"SK": &types.AttributeValueMemberS{Value: revenueSK(domain.RevenueTypeAffiliateCommission)},
		},
		UpdateExpression:    aws.String("SET #st = :status"),
		ConditionExpression: aws.String("attribute_exists(PK)"),
		ExpressionAttributeNames: map[string]string{
			"#st": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status": &types.AttributeValueMemberS{Value: string(status)},
		},
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return nil
		}
		return fmt.Errorf("failed to update commission status for order %s: %w", orderID, err)
	}

	return nil
}
