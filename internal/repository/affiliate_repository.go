package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"

	"github.com/wavecart/order-ledger/internal/domain"
)

// AffiliateRepository keeps the affiliate registry. Earnings counters move
// only through ADD update expressions and referral status moves only behind
// a condition on its current value, so concurrent resolutions of the same
// referral collapse to exactly one effect.
type AffiliateRepository struct {
	client    *dynamodb.Client
	tableName string
}

func NewAffiliateRepository(client *dynamodb.Client, tableName string) *AffiliateRepository {
	return &AffiliateRepository{
		client:    client,
		tableName: tableName,
	}
}

type referralRecord struct {
	OrderID    string     `dynamodbav:"orderId"`
	SellerID   string     `dynamodbav:"sellerId"`
	Commission moneyAttr  `dynamodbav:"commission"`
	Status     string     `dynamodbav:"status"`
	CreatedAt  time.Time  `dynamodbav:"createdAt"`
	ResolvedAt *time.Time `dynamodbav:"resolvedAt,omitempty"`
}

type affiliateRecord struct {
	PK              string                    `dynamodbav:"PK"`
	SK              string                    `dynamodbav:"SK"`
	Code            string                    `dynamodbav:"code"`
	UserID          string                    `dynamodbav:"userId"`
	Active          bool                      `dynamodbav:"active"`
	CommissionRate  moneyAttr                 `dynamodbav:"commissionRate"`
	PendingEarnings moneyAttr                 `dynamodbav:"pendingEarnings"`
	PaidEarnings    moneyAttr                 `dynamodbav:"paidEarnings"`
	Referrals       map[string]referralRecord `dynamodbav:"referrals"`
}

func affiliateKey(code string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("AFFILIATE#%s", code)},
		"SK": &types.AttributeValueMemberS{Value: "METADATA"},
	}
}

func (r *AffiliateRepository) GetByCode(ctx context.Context, code string) (*domain.Affiliate, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            affiliateKey(code),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Item) == 0 {
		return nil, domain.NewNotFoundError(domain.CodeAffiliateNotFound, "affiliate %s not found", code)
	}

	var rec affiliateRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, err
	}

	affiliate := &domain.Affiliate{
		Code:            rec.Code,
		UserID:          rec.UserID,
		Active:          rec.Active,
		CommissionRate:  rec.CommissionRate.Decimal,
		PendingEarnings: rec.PendingEarnings.Decimal,
		PaidEarnings:    rec.PaidEarnings.Decimal,
		Referrals:       make(map[string]domain.AffiliateReferral, len(rec.Referrals)),
	}
	for orderID, ref := range rec.Referrals {
		affiliate.Referrals[orderID] = domain.AffiliateReferral{
			OrderID:    ref.OrderID,
			SellerID:   ref.SellerID,
			Commission: ref.Commission.Decimal,
			Status:     domain.ReferralStatus(ref.Status),
			CreatedAt:  ref.CreatedAt,
			ResolvedAt: ref.ResolvedAt,
		}
	}

	return affiliate, nil
}

// AddReferral appends a pending referral under the order id and adds its
// commission to pendingEarnings in the same write.
func (r *AffiliateRepository) AddReferral(ctx context.Context, code string, referral domain.AffiliateReferral) error {
	refAV, err := attributevalue.Marshal(referralRecord{
		OrderID:    referral.OrderID,
		SellerID:   referral.SellerID,
		Commission: moneyAttr{referral.Commission},
		Status:     string(referral.Status),
		CreatedAt:  referral.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal referral: %w", err)
	}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 affiliateKey(code),
		UpdateExpression:    aws.String("SET referrals.#oid = :ref ADD pendingEarnings :c"),
		ConditionExpression: aws.String("attribute_not_exists(referrals.#oid)"),
		ExpressionAttributeNames: map[string]string{
			"#oid": referral.OrderID,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ref": refAV,
			":c":   numberAttr(referral.Commission),
		},
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			// A referral already exists for this order; creation is once-only.
			return nil
		}
		return fmt.Errorf("failed to add referral for affiliate %s: %w", code, err)
	}

	return nil
}

// ResolveReferral moves a pending referral to approved or cancelled and
// applies the matching earnings adjustment in one conditional write.
// Resolving a referral that is no longer pending reports changed=false.
func (r *AffiliateRepository) ResolveReferral(ctx context.Context, code, orderID string, target domain.ReferralStatus) (decimal.Decimal, bool, error) {
	affiliate, err := r.GetByCode(ctx, code)
	if err != nil {
		return decimal.Zero, false, err
	}

	referral, ok := affiliate.Referrals[orderID]
	if !ok {
		return decimal.Zero, false, nil
	}
	if referral.Status != domain.ReferralStatusPending {
		return referral.Commission, false, nil
	}

	update := "SET referrals.#oid.#st = :target, referrals.#oid.resolvedAt = :now ADD pendingEarnings :neg"
	values := map[string]types.AttributeValue{
		":target":  &types.AttributeValueMemberS{Value: string(target)},
		":now":     &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)},
		":neg":     numberAttr(referral.Commission.Neg()),
		":pending": &types.AttributeValueMemberS{Value: string(domain.ReferralStatusPending)},
	}
	if target == domain.ReferralStatusApproved {
		update = "SET referrals.#oid.#st = :target, referrals.#oid.resolvedAt = :now ADD pendingEarnings :neg, paidEarnings :c"
		values[":c"] = numberAttr(referral.Commission)
	}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 affiliateKey(code),
		UpdateExpression:    aws.String(update),
		ConditionExpression: aws.String("referrals.#oid.#st = :pending"),
		ExpressionAttributeNames: map[string]string{
			"#oid": orderID,
			"#st":  "status",
		},
		ExpressionAttributeValues: values,
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			// Lost the race to a concurrent resolution; treat as a no-op.
			return referral.Commission, false, nil
		}
		return decimal.Zero, false, fmt.Errorf("failed to resolve referral for affiliate %s: %w", code, err)
	}

	return referral.Commission, true, nil
}
