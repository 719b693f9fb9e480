package dynamo

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/equilux/gridtalk/internal/database"
	"github.com/equilux/gridtalk/internal/domain"
	"github.com/equilux/gridtalk/internal/repository"
)

const (
	senderIndex   = "senderId-timestamp-index"
	receiverIndex = "receiverId-timestamp-index"
)

// MessageRepo stores messages in a single wide-column table: partition key
// conversationId, sort key timestamp, with GSIs on senderId and receiverId
// (both sorted by timestamp).
type MessageRepo struct {
	db     database.API
	table  string
	window int
}

// NewMessageRepo creates a repo over the given table. window bounds how many
// recent sent/received messages feed the conversation summary grouping.
func NewMessageRepo(db database.API, table string, window int) *MessageRepo {
	if window <= 0 {
		window = 100
	}
	return &MessageRepo{db: db, table: table, window: window}
}

func (r *MessageRepo) Create(ctx context.Context, msg *domain.Message) error {
	item, err := attributevalue.MarshalMap(msg)
	if err != nil {
		return fmt.Errorf("marshaling message: %w", err)
	}

	_, err = r.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      item,
	})
	if err != nil {
		return storeErr("putting message", err)
	}
	return nil
}

func (r *MessageRepo) Between(ctx context.Context, userA, userB string, limit int, cursor string, oldestFirst bool) (*repository.Page, error) {
	startKey, err := decodeCursor(cursor)
	if err != nil {
		return nil, err
	}

	return r.queryPage(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.table),
		KeyConditionExpression: aws.String("conversationId = :conversationId"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":conversationId": &types.AttributeValueMemberS{Value: domain.ConversationID(userA, userB)},
		},
		ScanIndexForward:  aws.Bool(oldestFirst),
		Limit:             aws.Int32(int32(limit)),
		ExclusiveStartKey: startKey,
	})
}

func (r *MessageRepo) SentBy(ctx context.Context, userID string, limit int, cursor string) (*repository.Page, error) {
	return r.byParticipant(ctx, senderIndex, "senderId", userID, limit, cursor)
}

func (r *MessageRepo) ReceivedBy(ctx context.Context, userID string, limit int, cursor string) (*repository.Page, error) {
	return r.byParticipant(ctx, receiverIndex, "receiverId", userID, limit, cursor)
}

func (r *MessageRepo) byParticipant(ctx context.Context, index, keyAttr, userID string, limit int, cursor string) (*repository.Page, error) {
	startKey, err := decodeCursor(cursor)
	if err != nil {
		return nil, err
	}

	return r.queryPage(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.table),
		IndexName:              aws.String(index),
		KeyConditionExpression: aws.String(keyAttr + " = :userId"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":userId": &types.AttributeValueMemberS{Value: userID},
		},
		ScanIndexForward:  aws.Bool(false), // newest first
		Limit:             aws.Int32(int32(limit)),
		ExclusiveStartKey: startKey,
	})
}

func (r *MessageRepo) queryPage(ctx context.Context, input *dynamodb.QueryInput) (*repository.Page, error) {
	out, err := r.db.Query(ctx, input)
	if err != nil {
		return nil, storeErr("querying messages", err)
	}

	var msgs []domain.Message
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &msgs); err != nil {
		return nil, fmt.Errorf("unmarshaling messages: %w", err)
	}

	cursor, err := encodeCursor(out.LastEvaluatedKey)
	if err != nil {
		return nil, err
	}

	return &repository.Page{Messages: msgs, Cursor: cursor}, nil
}

// lookupStrategy is one way to resolve a message id, ordered cheapest first.
// The table scan is an explicit last resort and is logged whenever reached.
type lookupStrategy struct {
	name       string
	lastResort bool
	run        func(ctx context.Context, messageID string) (*domain.Message, error)
}

func (r *MessageRepo) lookupChain() []lookupStrategy {
	return []lookupStrategy{
		{
			name: "sender index scan",
			run: func(ctx context.Context, id string) (*domain.Message, error) {
				return r.scanForMessage(ctx, aws.String(senderIndex), id)
			},
		},
		{
			name: "receiver index scan",
			run: func(ctx context.Context, id string) (*domain.Message, error) {
				return r.scanForMessage(ctx, aws.String(receiverIndex), id)
			},
		},
		{
			name:       "full table scan",
			lastResort: true,
			run: func(ctx context.Context, id string) (*domain.Message, error) {
				return r.scanForMessage(ctx, nil, id)
			},
		},
	}
}

// FindByID resolves a message by its id. The table has no GSI keyed on
// messageId, so this walks the strategy chain until one hits.
func (r *MessageRepo) FindByID(ctx context.Context, messageID string) (*domain.Message, error) {
	for _, strategy := range r.lookupChain() {
		if strategy.lastResort {
			log.Printf("message lookup: falling back to %s for %s", strategy.name, messageID)
		}
		msg, err := strategy.run(ctx, messageID)
		if err != nil {
			return nil, storeErr(strategy.name, err)
		}
		if msg != nil {
			return msg, nil
		}
	}
	return nil, fmt.Errorf("%w: message %s", domain.ErrNotFound, messageID)
}

func (r *MessageRepo) scanForMessage(ctx context.Context, index *string, messageID string) (*domain.Message, error) {
	input := &dynamodb.ScanInput{
		TableName:        aws.String(r.table),
		IndexName:        index,
		FilterExpression: aws.String("messageId = :messageId"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":messageId": &types.AttributeValueMemberS{Value: messageID},
		},
	}

	for {
		out, err := r.db.Scan(ctx, input)
		if err != nil {
			return nil, err
		}
		if len(out.Items) > 0 {
			var msg domain.Message
			if err := attributevalue.UnmarshalMap(out.Items[0], &msg); err != nil {
				return nil, fmt.Errorf("unmarshaling message: %w", err)
			}
			return &msg, nil
		}
		if len(out.LastEvaluatedKey) == 0 {
			return nil, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

// RecentConversations approximates the user's latest conversations from a
// bounded window of their most recent sent and received messages. A
// conversation whose latest message has aged out of both windows is missed;
// the window size is tunable, the approximation is deliberate.
func (r *MessageRepo) RecentConversations(ctx context.Context, userID string, limit int) ([]domain.ConversationSummary, error) {
	sent, err := r.SentBy(ctx, userID, r.window, "")
	if err != nil {
		return nil, err
	}
	received, err := r.ReceivedBy(ctx, userID, r.window, "")
	if err != nil {
		return nil, err
	}

	all := append(sent.Messages, received.Messages...)
	return summarize(all, userID, limit), nil
}

// summarize groups messages by conversation, keeps the latest per group and
// returns the groups newest-first, truncated to limit.
func summarize(msgs []domain.Message, userID string, limit int) []domain.ConversationSummary {
	latest := make(map[string]domain.ConversationSummary)
	for _, msg := range msgs {
		if cur, ok := latest[msg.ConversationID]; ok && cur.Timestamp >= msg.Timestamp {
			continue
		}
		otherUserID := msg.SenderID
		if msg.SenderID == userID {
			otherUserID = msg.ReceiverID
		}
		latest[msg.ConversationID] = domain.ConversationSummary{Message: msg, OtherUserID: otherUserID}
	}

	summaries := make([]domain.ConversationSummary, 0, len(latest))
	for _, s := range latest {
		summaries = append(summaries, s)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Timestamp > summaries[j].Timestamp
	})

	if len(summaries) > limit {
		summaries = summaries[:limit]
	}
	return summaries
}

func (r *MessageRepo) TradeOffers(ctx context.Context, userID string, filter repository.TradeOfferFilter) ([]domain.Message, error) {
	offers := []domain.Message{}

	if filter.Role == domain.RoleSender || filter.Role == domain.RoleBoth {
		sent, err := r.queryTradeOffers(ctx, senderIndex, "senderId", userID, filter)
		if err != nil {
			return nil, err
		}
		offers = append(offers, sent...)
	}

	if filter.Role == domain.RoleReceiver || filter.Role == domain.RoleBoth {
		received, err := r.queryTradeOffers(ctx, receiverIndex, "receiverId", userID, filter)
		if err != nil {
			return nil, err
		}
		offers = append(offers, received...)
	}

	sort.Slice(offers, func(i, j int) bool {
		return offers[i].Timestamp > offers[j].Timestamp
	})
	return offers, nil
}

func (r *MessageRepo) queryTradeOffers(ctx context.Context, index, keyAttr, userID string, filter repository.TradeOfferFilter) ([]domain.Message, error) {
	filterExpr := "messageType = :messageType"
	values := map[string]types.AttributeValue{
		":userId":      &types.AttributeValueMemberS{Value: userID},
		":messageType": &types.AttributeValueMemberS{Value: string(domain.MessageTypeTradeOffer)},
	}
	var names map[string]string

	if filter.Status != "" {
		filterExpr += " AND #status = :status"
		values[":status"] = &types.AttributeValueMemberS{Value: string(filter.Status)}
		names = map[string]string{"#status": "status"}
	}
	if filter.Kind != "" {
		filterExpr += " AND tradeType = :tradeType"
		values[":tradeType"] = &types.AttributeValueMemberS{Value: string(filter.Kind)}
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.table),
		IndexName:                 aws.String(index),
		KeyConditionExpression:    aws.String(keyAttr + " = :userId"),
		FilterExpression:          aws.String(filterExpr),
		ExpressionAttributeValues: values,
		ExpressionAttributeNames:  names,
		ScanIndexForward:          aws.Bool(false),
	}

	var offers []domain.Message
	for {
		out, err := r.db.Query(ctx, input)
		if err != nil {
			return nil, storeErr("querying trade offers", err)
		}

		var page []domain.Message
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, fmt.Errorf("unmarshaling trade offers: %w", err)
		}
		offers = append(offers, page...)

		if len(out.LastEvaluatedKey) == 0 {
			return offers, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

// ApplyResponse merges a negotiation transition into the stored offer. The
// update is keyed on (conversationId, timestamp) and guarded by a status
// precondition, so two concurrent responses cannot both settle the offer.
func (r *MessageRepo) ApplyResponse(ctx context.Context, msg *domain.Message, upd repository.ResponseUpdate) (*domain.Message, error) {
	updateExpr := "SET #status = :status, updatedAt = :updatedAt, responseTimestamp = :responseTimestamp"
	values := map[string]types.AttributeValue{
		":status":            &types.AttributeValueMemberS{Value: string(upd.Status)},
		":updatedAt":         &types.AttributeValueMemberS{Value: upd.UpdatedAt},
		":responseTimestamp": &types.AttributeValueMemberS{Value: upd.ResponseTimestamp},
		":pending":           &types.AttributeValueMemberS{Value: string(domain.StatusPending)},
		":negotiating":       &types.AttributeValueMemberS{Value: string(domain.StatusNegotiating)},
	}

	if upd.AcceptedAt != "" {
		updateExpr += ", acceptedAt = :acceptedAt"
		values[":acceptedAt"] = &types.AttributeValueMemberS{Value: upd.AcceptedAt}
	}
	if upd.RejectedAt != "" {
		updateExpr += ", rejectedAt = :rejectedAt"
		values[":rejectedAt"] = &types.AttributeValueMemberS{Value: upd.RejectedAt}
	}

	if upd.HistoryEntry != nil {
		counter, err := attributevalue.Marshal(upd.CounterOffer)
		if err != nil {
			return nil, fmt.Errorf("marshaling counter offer: %w", err)
		}
		current, err := attributevalue.Marshal(upd.CurrentProposal)
		if err != nil {
			return nil, fmt.Errorf("marshaling current proposal: %w", err)
		}
		entry, err := attributevalue.Marshal(upd.HistoryEntry)
		if err != nil {
			return nil, fmt.Errorf("marshaling history entry: %w", err)
		}

		updateExpr += ", counterOffer = :counterOffer, currentProposal = :currentProposal" +
			", negotiationHistory = list_append(if_not_exists(negotiationHistory, :emptyList), :historyEntry)"
		values[":counterOffer"] = counter
		values[":currentProposal"] = current
		values[":historyEntry"] = &types.AttributeValueMemberL{Value: []types.AttributeValue{entry}}
		values[":emptyList"] = &types.AttributeValueMemberL{Value: []types.AttributeValue{}}
	}

	out, err := r.db.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.table),
		Key: map[string]types.AttributeValue{
			"conversationId": &types.AttributeValueMemberS{Value: msg.ConversationID},
			"timestamp":      &types.AttributeValueMemberS{Value: msg.Timestamp},
		},
		UpdateExpression:          aws.String(updateExpr),
		ConditionExpression:       aws.String("#status IN (:pending, :negotiating)"),
		ExpressionAttributeNames:  map[string]string{"#status": "status"},
		ExpressionAttributeValues: values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		var condFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condFailed) {
			return nil, fmt.Errorf("%w: offer was settled concurrently", domain.ErrInvalidTransition)
		}
		return nil, storeErr("updating trade offer", err)
	}

	var updated domain.Message
	if err := attributevalue.UnmarshalMap(out.Attributes, &updated); err != nil {
		return nil, fmt.Errorf("unmarshaling updated offer: %w", err)
	}
	return &updated, nil
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
}
