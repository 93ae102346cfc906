// internal/store/search/transcripts.go
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/josephinoo/agent-bg/internal/common/logger"
	"github.com/josephinoo/agent-bg/internal/models"
)

var ErrIndexWriteFailed = errors.New("INDEX_WRITE_FAILED")

const DefaultTranscriptIndex = "conversation-transcripts"

const transcriptMapping = `{
	"mappings": {
		"properties": {
			"session_id": {"type": "keyword"},
			"campaign_id": {"type": "keyword"},
			"phone": {"type": "keyword"},
			"product_type": {"type": "keyword"},
			"previous_step": {"type": "keyword"},
			"step": {"type": "keyword"},
			"intent": {"type": "keyword"},
			"user_text": {"type": "text"},
			"response_text": {"type": "text"},
			"fallback": {"type": "boolean"},
			"data_completeness": {"type": "integer"},
			"timestamp": {"type": "date"}
		}
	}
}`

// TranscriptIndexer writes one document per processed turn.
type TranscriptIndexer struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewTranscriptIndexer(client *elasticsearch.Client, index string, log logger.Logger) *TranscriptIndexer {
	if index == "" {
		index = DefaultTranscriptIndex
	}
	return &TranscriptIndexer{
		client: client,
		index:  index,
		logger: logger.ForComponent(log, "transcript-indexer"),
	}
}

// EnsureIndex creates the transcript index with its mapping when missing.
func (ix *TranscriptIndexer) EnsureIndex(ctx context.Context) error {
	res, err := esapi.IndicesExistsRequest{Index: []string{ix.index}}.Do(ctx, ix.client)
	if err != nil {
		return fmt.Errorf("%w: exists check failed: %v", ErrIndexWriteFailed, err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("%w: exists check returned %s", ErrIndexWriteFailed, res.Status())
	}

	res, err = esapi.IndicesCreateRequest{
		Index: ix.index,
		Body:  strings.NewReader(transcriptMapping),
	}.Do(ctx, ix.client)
	if err != nil {
		return fmt.Errorf("%w: create failed: %v", ErrIndexWriteFailed, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("%w: create failed: %s", ErrIndexWriteFailed, res.String())
	}

	ix.logger.Info("Transcript index created", map[string]interface{}{"index": ix.index})
	return nil
}

func (ix *TranscriptIndexer) IndexTurn(ctx context.Context, entry models.TranscriptEntry) error {
	body, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIndexWriteFailed, err)
	}

	req := esapi.IndexRequest{
		Index:      ix.index,
		DocumentID: fmt.Sprintf("%s-%d", entry.SessionID, entry.Timestamp.UnixNano()),
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, ix.client)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIndexWriteFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("%w: %s", ErrIndexWriteFailed, res.String())
	}
	return nil
}
