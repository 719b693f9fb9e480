package dynamo

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"

	"github.com/equilux/gridtalk/internal/domain"
)

// fakeStore emulates the slice of DynamoDB the repositories exercise:
// key-equality queries with limits and continuation keys, filtered scans
// and conditional merge updates. It interprets the exact expression shapes
// the repositories build, nothing more.
type fakeStore struct {
	items []map[string]types.AttributeValue

	// hidden lists message ids that are invisible through a given index.
	hidden map[string][]string

	// scanPageSize forces scans to page, exercising continuation handling.
	scanPageSize int

	// scannedIndexes records the index of every Scan call, "" for the table.
	scannedIndexes []string

	queryErr, putErr, scanErr, updateErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{hidden: map[string][]string{}}
}

func (f *fakeStore) seed(t *testing.T, msgs ...domain.Message) {
	t.Helper()
	for _, msg := range msgs {
		item, err := attributevalue.MarshalMap(msg)
		require.NoError(t, err)
		f.items = append(f.items, item)
	}
}

func (f *fakeStore) seedUsers(t *testing.T, users ...domain.User) {
	t.Helper()
	for _, u := range users {
		item, err := attributevalue.MarshalMap(u)
		require.NoError(t, err)
		f.items = append(f.items, item)
	}
}

func strAttr(item map[string]types.AttributeValue, name string) string {
	if s, ok := item[name].(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func (f *fakeStore) hiddenFrom(index string, item map[string]types.AttributeValue) bool {
	if index == "" {
		return false
	}
	id := strAttr(item, "messageId")
	for _, hidden := range f.hidden[index] {
		if hidden == id {
			return true
		}
	}
	return false
}

func (f *fakeStore) PutItem(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	conv := strAttr(params.Item, "conversationId")
	ts := strAttr(params.Item, "timestamp")
	for i, item := range f.items {
		if strAttr(item, "conversationId") == conv && strAttr(item, "timestamp") == ts {
			f.items[i] = params.Item
			return &dynamodb.PutItemOutput{}, nil
		}
	}
	f.items = append(f.items, params.Item)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeStore) Query(_ context.Context, params *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}

	parts := strings.SplitN(*params.KeyConditionExpression, " = ", 2)
	keyAttr, placeholder := parts[0], parts[1]
	keyVal := params.ExpressionAttributeValues[placeholder].(*types.AttributeValueMemberS).Value

	index := ""
	if params.IndexName != nil {
		index = *params.IndexName
	}

	var candidates []map[string]types.AttributeValue
	for _, item := range f.items {
		if strAttr(item, keyAttr) == keyVal && !f.hiddenFrom(index, item) {
			candidates = append(candidates, item)
		}
	}

	forward := params.ScanIndexForward == nil || *params.ScanIndexForward
	sort.SliceStable(candidates, func(i, j int) bool {
		if forward {
			return strAttr(candidates[i], "timestamp") < strAttr(candidates[j], "timestamp")
		}
		return strAttr(candidates[i], "timestamp") > strAttr(candidates[j], "timestamp")
	})

	start := 0
	if len(params.ExclusiveStartKey) > 0 {
		after := strAttr(params.ExclusiveStartKey, "timestamp")
		for i, item := range candidates {
			if strAttr(item, "timestamp") == after {
				start = i + 1
				break
			}
		}
	}

	out := &dynamodb.QueryOutput{}
	evaluated := 0
	for i := start; i < len(candidates); i++ {
		if params.Limit != nil && evaluated == int(*params.Limit) {
			out.LastEvaluatedKey = map[string]types.AttributeValue{
				"conversationId": candidates[i-1]["conversationId"],
				"timestamp":      candidates[i-1]["timestamp"],
			}
			break
		}
		evaluated++
		if params.FilterExpression != nil && !matchesMessageFilter(candidates[i], params.ExpressionAttributeValues) {
			continue
		}
		out.Items = append(out.Items, candidates[i])
	}
	return out, nil
}

func matchesMessageFilter(item map[string]types.AttributeValue, values map[string]types.AttributeValue) bool {
	checks := map[string]string{
		":messageType": "messageType",
		":status":      "status",
		":tradeType":   "tradeType",
	}
	for placeholder, attr := range checks {
		want, ok := values[placeholder]
		if !ok {
			continue
		}
		if strAttr(item, attr) != want.(*types.AttributeValueMemberS).Value {
			return false
		}
	}
	return true
}

func (f *fakeStore) Scan(_ context.Context, params *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	if f.scanErr != nil {
		return nil, f.scanErr
	}

	index := ""
	if params.IndexName != nil {
		index = *params.IndexName
	}
	f.scannedIndexes = append(f.scannedIndexes, index)

	var candidates []map[string]types.AttributeValue
	for _, item := range f.items {
		if !f.hiddenFrom(index, item) {
			candidates = append(candidates, item)
		}
	}

	start := 0
	if pos, ok := params.ExclusiveStartKey["pos"].(*types.AttributeValueMemberN); ok {
		start, _ = strconv.Atoi(pos.Value)
	}
	end := len(candidates)
	if f.scanPageSize > 0 && start+f.scanPageSize < end {
		end = start + f.scanPageSize
	}

	out := &dynamodb.ScanOutput{}
	for _, item := range candidates[start:end] {
		if matchesScanFilter(*params.FilterExpression, item, params.ExpressionAttributeValues) {
			out.Items = append(out.Items, item)
		}
	}
	if end < len(candidates) {
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			"pos": &types.AttributeValueMemberN{Value: strconv.Itoa(end)},
		}
	}
	return out, nil
}

func matchesScanFilter(expr string, item, values map[string]types.AttributeValue) bool {
	if strings.Contains(expr, "<>") {
		return strAttr(item, "id") != values[":userId"].(*types.AttributeValueMemberS).Value
	}
	return strAttr(item, "messageId") == values[":messageId"].(*types.AttributeValueMemberS).Value
}

func (f *fakeStore) UpdateItem(_ context.Context, params *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}

	conv := strAttr(params.Key, "conversationId")
	ts := strAttr(params.Key, "timestamp")
	values := params.ExpressionAttributeValues

	for _, item := range f.items {
		if strAttr(item, "conversationId") != conv || strAttr(item, "timestamp") != ts {
			continue
		}

		status := strAttr(item, "status")
		if status != strAttr(values, ":pending") && status != strAttr(values, ":negotiating") {
			return nil, &types.ConditionalCheckFailedException{}
		}

		sets := map[string]string{
			":status":            "status",
			":updatedAt":         "updatedAt",
			":responseTimestamp": "responseTimestamp",
			":acceptedAt":        "acceptedAt",
			":rejectedAt":        "rejectedAt",
			":counterOffer":      "counterOffer",
			":currentProposal":   "currentProposal",
		}
		for placeholder, attr := range sets {
			if v, ok := values[placeholder]; ok {
				item[attr] = v
			}
		}

		if entry, ok := values[":historyEntry"].(*types.AttributeValueMemberL); ok {
			history := []types.AttributeValue{}
			if prev, ok := item["negotiationHistory"].(*types.AttributeValueMemberL); ok {
				history = append(history, prev.Value...)
			}
			history = append(history, entry.Value...)
			item["negotiationHistory"] = &types.AttributeValueMemberL{Value: history}
		}

		updated := make(map[string]types.AttributeValue, len(item))
		for k, v := range item {
			updated[k] = v
		}
		return &dynamodb.UpdateItemOutput{Attributes: updated}, nil
	}
	return nil, &types.ConditionalCheckFailedException{}
}
