package elasticsearch

import (
	"github.com/ragsense/ragsense/internal/core/domain"
	"github.com/ragsense/ragsense/internal/core/ports/driven"
)

const (
	cosineScript = "cosineSimilarity(params.query_vector, 'embedding') + 1.0"

	hybridScript = "double bm25 = _score;" +
		"double emb = cosineSimilarity(params.query_vector, 'embedding') + 1.0;" +
		"return params.bm25_weight * bm25 + params.embedding_weight * emb;"

	// attachmentType marks documents excluded from vector ranking
	attachmentType = "Attachment"
)

type object = map[string]any

// searchBody builds the request body for a ranked query
func searchBody(q driven.StoreQuery) object {
	var query object
	switch q.Mode {
	case domain.SearchModeVector:
		query = vectorQuery(q.Vector)
	case domain.SearchModeHybrid:
		query = hybridQuery(q.Text, q.Vector, q.Weights)
	default:
		query = keywordQuery(q.Text)
	}
	return object{
		"size":  q.Size,
		"query": query,
	}
}

func keywordQuery(text string) object {
	return object{
		"query_string": object{"query": text},
	}
}

func withoutAttachments(clauses object) object {
	clauses["must_not"] = object{"term": object{"Type": attachmentType}}
	return object{"bool": clauses}
}

func vectorQuery(vector []float32) object {
	return object{
		"script_score": object{
			"query": withoutAttachments(object{
				"must": object{"match_all": object{}},
			}),
			"script": object{
				"source": cosineScript,
				"params": object{"query_vector": vector},
			},
		},
	}
}

func hybridQuery(text string, vector []float32, w domain.FusionWeights) object {
	return object{
		"script_score": object{
			"query": withoutAttachments(object{
				"should": []any{
					keywordQuery(text),
					object{"match_all": object{}},
				},
			}),
			"script": object{
				"source": hybridScript,
				"params": object{
					"query_vector":     vector,
					"bm25_weight":      w.BM25,
					"embedding_weight": w.Embedding,
				},
			},
		},
	}
}

// scanBody selects every document of a collection
func scanBody() object {
	return object{"query": object{"match_all": object{}}}
}
