// Package repository persists conversation transcripts in DynamoDB, one item
// per conversation. Writes replace the whole line sequence; last write wins.
// Races between concurrent turns on the same conversation are accepted.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"groovyfox-agent/internal/domain"
)

const (
	skTranscript = "TRANSCRIPT#"
	ttlDuration  = 30 * 24 * time.Hour // 30-day TTL
)

// dynamodbAPI is the minimal DynamoDB interface required by Client.
// Defined here for testability.
type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// Client wraps a DynamoDB table holding one transcript item per conversation.
type Client struct {
	api       dynamodbAPI
	tableName string
}

// New creates a new repository Client.
func New(api dynamodbAPI, tableName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Client{api: api, tableName: tableName}, nil
}

// chatPK returns the partition key for a conversation's transcript.
func chatPK(conversationID string) string {
	return "CHAT#" + conversationID
}

// ttlValue returns a Unix timestamp 30 days in the future.
func ttlValue() int64 {
	return time.Now().Add(ttlDuration).Unix()
}

// Find reads the transcript for a conversation. A missing item yields
// found=false with no error.
func (c *Client) Find(ctx context.Context, conversationID string) (domain.Transcript, bool, error) {
	if strings.TrimSpace(conversationID) == "" {
		return domain.Transcript{}, false, errors.New("repository: Find: conversation id is required")
	}

	out, err := c.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(c.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: chatPK(conversationID)},
			"SK": &types.AttributeValueMemberS{Value: skTranscript},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return domain.Transcript{}, false, fmt.Errorf("repository: Find get item: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return domain.Transcript{}, false, nil
	}

	lines, err := lineAttr(out.Item, "lines")
	if err != nil {
		return domain.Transcript{}, false, fmt.Errorf("repository: Find decode lines: %w", err)
	}
	return domain.Transcript{ConversationID: conversationID, Lines: lines}, true, nil
}

// Upsert creates or replaces the stored line sequence for a conversation.
func (c *Client) Upsert(ctx context.Context, conversationID string, lines []string) error {
	if strings.TrimSpace(conversationID) == "" {
		return errors.New("repository: Upsert: conversation id is required")
	}

	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item:      transcriptItem(conversationID, lines),
	})
	if err != nil {
		return fmt.Errorf("repository: Upsert: %w", err)
	}
	return nil
}

func transcriptItem(conversationID string, lines []string) map[string]types.AttributeValue {
	members := make([]types.AttributeValue, 0, len(lines))
	for _, line := range lines {
		members = append(members, &types.AttributeValueMemberS{Value: line})
	}
	return map[string]types.AttributeValue{
		"PK":             &types.AttributeValueMemberS{Value: chatPK(conversationID)},
		"SK":             &types.AttributeValueMemberS{Value: skTranscript},
		"conversationId": &types.AttributeValueMemberS{Value: conversationID},
		"lines":          &types.AttributeValueMemberL{Value: members},
		"ttl":            &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", ttlValue())},
	}
}

func lineAttr(item map[string]types.AttributeValue, key string) ([]string, error) {
	v, ok := item[key]
	if !ok {
		return nil, fmt.Errorf("repository: missing attribute %q", key)
	}
	list, ok := v.(*types.AttributeValueMemberL)
	if !ok {
		return nil, fmt.Errorf("repository: attribute %q is not a list", key)
	}
	lines := make([]string, 0, len(list.Value))
	for i, member := range list.Value {
		s, ok := member.(*types.AttributeValueMemberS)
		if !ok {
			return nil, fmt.Errorf("repository: attribute %q element %d is not a string", key, i)
		}
		lines = append(lines, s.Value)
	}
	return lines, nil
}
