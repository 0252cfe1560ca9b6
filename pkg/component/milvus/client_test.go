package milvus

import (
	"context"
	"testing"

	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/stretchr/testify/assert"

	"github.com/kart-io/astramed/pkg/component/storage"
	milvusopts "github.com/kart-io/astramed/pkg/options/milvus"
)

func TestMetricType(t *testing.T) {
	assert.Equal(t, entity.L2, MetricType("l2"))
	assert.Equal(t, entity.IP, MetricType("IP"))
	assert.Equal(t, entity.COSINE, MetricType("COSINE"))
	assert.Equal(t, entity.COSINE, MetricType("unknown"))
}

func TestNewWithContext_InvalidOptions(t *testing.T) {
	_, err := NewWithContext(context.Background(), nil)
	assert.Error(t, err)

	opts := milvusopts.NewOptions()
	opts.MetricType = "HAMMING"
	_, err = NewWithContext(context.Background(), opts)
	assert.ErrorIs(t, err, storage.ErrInvalidConfig)
}
