package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	options "github.com/kart-io/astramed/pkg/options/sqlite"
)

type note struct {
	ID   uint `gorm:"primaryKey"`
	Body string
}

func TestNew_InMemory(t *testing.T) {
	opts := options.NewOptions()
	opts.Path = ":memory:"

	client, err := New(context.Background(), opts)
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, "sqlite", client.Name())
	assert.NoError(t, client.Ping(context.Background()))

	db := client.DB()
	require.NoError(t, db.AutoMigrate(&note{}))
	require.NoError(t, db.Create(&note{Body: "hello"}).Error)

	var got note
	require.NoError(t, db.First(&got).Error)
	assert.Equal(t, "hello", got.Body)

	stats, err := client.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.MaxOpenConnections)
}

func TestNew_InvalidOptions(t *testing.T) {
	_, err := New(context.Background(), &options.Options{})
	assert.Error(t, err)

	_, err = New(context.Background(), nil)
	assert.Error(t, err)
}
