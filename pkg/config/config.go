package config

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port               string `envconfig:"PORT" default:"8080"`
	AWSRegion          string `envconfig:"AWS_REGION" default:"eu-west-1"`
	OrdersTableName    string `envconfig:"ORDERS_TABLE_NAME" default:"orders"`
	ProductsTableName  string `envconfig:"PRODUCTS_TABLE_NAME" default:"products"`
	AffiliateTableName string `envconfig:"AFFILIATES_TABLE_NAME" default:"affiliates"`
	RevenueTableName   string `envconfig:"REVENUE_TABLE_NAME" default:"revenue"`
	KafkaBrokers       string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	LogLevel           string `envconfig:"LOG_LEVEL" default:"info"`
	DynamoDBEndpoint   string `envconfig:"DYNAMODB_ENDPOINT" default:""` // DynamoDB Local endpoint
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
