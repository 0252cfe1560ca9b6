package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	options "github.com/kart-io/astramed/pkg/options/postgres"
)

func TestBuildDSN(t *testing.T) {
	opts := options.NewOptions()
	opts.Host = "db.local"
	opts.Password = "secret"

	dsn := BuildDSN(opts)
	for _, part := range []string{
		"host=db.local",
		"port=5432",
		"user=postgres",
		"password=secret",
		"dbname=astramed",
		"sslmode=disable",
	} {
		assert.Contains(t, dsn, part)
	}

	assert.Empty(t, BuildDSN(nil))
}

func TestQuoteValue(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "''"},
		{"plain", "plain"},
		{"with space", "'with space'"},
		{"it's", `'it\'s'`},
		{`back\slash`, `'back\\slash'`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, quoteValue(tt.in))
		})
	}
}

func TestNewWithContext_InvalidOptions(t *testing.T) {
	opts := options.NewOptions()
	opts.Database = ""
	_, err := NewWithContext(t.Context(), opts)
	assert.Error(t, err)
}
