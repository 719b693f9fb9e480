package dynamo

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equilux/gridtalk/internal/domain"
)

func TestCursorRoundTrip(t *testing.T) {
	key := map[string]types.AttributeValue{
		"conversationId": &types.AttributeValueMemberS{Value: "alice_bob"},
		"timestamp":      &types.AttributeValueMemberS{Value: "2024-03-01T10:00:00.000Z"},
	}

	cursor, err := encodeCursor(key)
	require.NoError(t, err)
	require.NotEmpty(t, cursor)

	decoded, err := decodeCursor(cursor)
	require.NoError(t, err)
	assert.Equal(t, key, decoded)
}

func TestCursorEmpty(t *testing.T) {
	cursor, err := encodeCursor(nil)
	require.NoError(t, err)
	assert.Empty(t, cursor)

	key, err := decodeCursor("")
	require.NoError(t, err)
	assert.Nil(t, key)
}

func TestCursorMalformed(t *testing.T) {
	for name, cursor := range map[string]string{
		"not base64": "%%%not-base64%%%",
		"not json":   "bm90IGpzb24",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := decodeCursor(cursor)
			assert.ErrorIs(t, err, domain.ErrInvalidPayload)
		})
	}
}
