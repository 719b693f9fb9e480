package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/equilux/gridtalk/internal/database"
	"github.com/equilux/gridtalk/internal/domain"
)

// UserRepo reads the externally-owned user table. Only the public
// projection is ever fetched.
type UserRepo struct {
	db    database.API
	table string
}

func NewUserRepo(db database.API, table string) *UserRepo {
	return &UserRepo{db: db, table: table}
}

func (r *UserRepo) ListExcept(ctx context.Context, selfID string) ([]domain.User, error) {
	input := &dynamodb.ScanInput{
		TableName:        aws.String(r.table),
		FilterExpression: aws.String("id <> :userId"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":userId": &types.AttributeValueMemberS{Value: selfID},
		},
		ProjectionExpression:     aws.String("id, username, #status"),
		ExpressionAttributeNames: map[string]string{"#status": "status"},
	}

	users := []domain.User{}
	for {
		out, err := r.db.Scan(ctx, input)
		if err != nil {
			return nil, storeErr("scanning users", err)
		}

		var page []domain.User
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, fmt.Errorf("unmarshaling users: %w", err)
		}
		users = append(users, page...)

		if len(out.LastEvaluatedKey) == 0 {
			return users, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}
