// internal/common/database/report_archive.go
package database

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// ReportArchive indexes bias audit documents into one Elasticsearch index.
type ReportArchive struct {
	client *elasticsearch.Client
	index  string
}

func NewReportArchive(client *elasticsearch.Client, index string) *ReportArchive {
	return &ReportArchive{client: client, index: index}
}

// Index returns the target index name.
func (a *ReportArchive) Index() string {
	return a.index
}

// Store indexes doc under auditID. Re-storing the same id overwrites it.
func (a *ReportArchive) Store(ctx context.Context, auditID string, doc interface{}) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode audit document: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      a.index,
		DocumentID: auditID,
		Body:       bytes.NewReader(body),
	}

	res, err := req.Do(ctx, a.client)
	if err != nil {
		return fmt.Errorf("index audit document: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index audit document: %s", res.Status())
	}
	return nil
}
