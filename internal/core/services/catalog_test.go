package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragsense/ragsense/internal/core/domain"
	"github.com/ragsense/ragsense/internal/core/ports/driven/mocks"
)

var testCatalog = []domain.SourceInfo{
	{Name: "jira", Type: domain.SourceTypeJira, Available: true, Embeddings: true},
	{Name: "wiki", Type: domain.SourceTypeConfluence, Available: true, Embeddings: true},
	{Name: "files", Type: domain.SourceTypeNetworkDrive, Available: true, Embeddings: false},
	{Name: "archive", Type: domain.SourceTypeJira, Available: false, Embeddings: true},
}

func TestCatalogService_Sources(t *testing.T) {
	svc := NewCatalogService(mocks.NewMockDocumentStore(), testCatalog)

	sources := svc.Sources(context.Background())
	require.Len(t, sources, 4)
	assert.Equal(t, "jira", sources[0].Name)

	// Callers get a copy
	sources[0].Name = "changed"
	assert.Equal(t, "jira", svc.Sources(context.Background())[0].Name)
}

func TestCatalogService_EmbeddingCollections(t *testing.T) {
	svc := NewCatalogService(mocks.NewMockDocumentStore(), testCatalog)

	assert.Equal(t, []string{"jira", "wiki"}, svc.EmbeddingCollections(context.Background()))
	assert.Empty(t, NewCatalogService(mocks.NewMockDocumentStore(), nil).EmbeddingCollections(context.Background()))
}

func TestCatalogService_Health(t *testing.T) {
	store := mocks.NewMockDocumentStore()
	svc := NewCatalogService(store, testCatalog)

	require.NoError(t, svc.Health(context.Background()))

	store.PingErr = errors.New("connection refused")
	err := svc.Health(context.Background())
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Contains(t, err.Error(), "connection refused")
}
