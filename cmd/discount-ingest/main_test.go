package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/domain/discount"
)

func writeFeed(t *testing.T, dir, name string, rows ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := pgzip.NewWriter(f)
	_, err = gz.Write([]byte(strings.Join(rows, "\n") + "\n"))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())
	return path
}

func codesOf(codes []discount.Code) []string {
	out := make([]string, len(codes))
	for i, c := range codes {
		out[i] = c.Code
	}
	return out
}

func TestParseRow(t *testing.T) {
	tests := []struct {
		name    string
		rec     []string
		want    discount.Code
		wantErr bool
	}{
		{
			name: "percentage with minimum",
			rec:  []string{" save15 ", "percentage", "15", "100", "15% off"},
			want: discount.Code{
				Code: "SAVE15", Type: discount.TypePercentage, Value: decimal.NewFromInt(15),
				MinAmount: decimal.NewFromInt(100), Active: true, Description: "15% off",
			},
		},
		{
			name: "fixed without optional fields",
			rec:  []string{"TAKE5", "FIXED", "5"},
			want: discount.Code{Code: "TAKE5", Type: discount.TypeFixed, Value: decimal.NewFromInt(5), Active: true},
		},
		{name: "header", rec: []string{"code", "type", "value"}, wantErr: true},
		{name: "too few fields", rec: []string{"X", "fixed"}, wantErr: true},
		{name: "empty code", rec: []string{" ", "fixed", "1"}, wantErr: true},
		{name: "bad value", rec: []string{"X", "fixed", "abc"}, wantErr: true},
		{name: "percentage over 100", rec: []string{"X", "percentage", "150"}, wantErr: true},
		{name: "negative", rec: []string{"X", "fixed", "-1"}, wantErr: true},
		{name: "bad minimum", rec: []string{"X", "fixed", "1", "lots"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseRow(tt.rec)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want.Code, got.Code)
			assert.Equal(t, tt.want.Type, got.Type)
			assert.True(t, tt.want.Value.Equal(got.Value))
			assert.True(t, tt.want.MinAmount.Equal(got.MinAmount))
			assert.Equal(t, tt.want.Description, got.Description)
			assert.True(t, got.Active)
		})
	}
}

func TestCollect(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeFeed(t, dir, "a.csv.gz",
			"code,type,value,min_amount,description",
			"ALPHA,percentage,10,,from a",
			"BRAVO,fixed,5",
			"ONLYA,fixed,1",
			"broken row",
		),
		writeFeed(t, dir, "b.csv.gz",
			"ALPHA,percentage,20,,from b",
			"CHARLIE,free_shipping,0,500",
		),
		writeFeed(t, dir, "c.csv.gz",
			"bravo,fixed,7",
			"charlie,free_shipping,0",
			"alpha,fixed,1",
		),
	}
	ctx := context.Background()

	t.Run("two sources", func(t *testing.T) {
		got, err := collect(ctx, files, 2, 1000)
		require.NoError(t, err)
		assert.Equal(t, []string{"ALPHA", "BRAVO", "CHARLIE"}, codesOf(got))
		assert.Equal(t, "from a", got[0].Description, "first feed wins")
		assert.True(t, got[1].Value.Equal(decimal.NewFromInt(5)))
		assert.True(t, got[2].MinAmount.Equal(decimal.NewFromInt(500)))
	})
	t.Run("three sources", func(t *testing.T) {
		got, err := collect(ctx, files, 3, 1000)
		require.NoError(t, err)
		assert.Equal(t, []string{"ALPHA"}, codesOf(got))
	})
	t.Run("single source", func(t *testing.T) {
		got, err := collect(ctx, files, 1, 1000)
		require.NoError(t, err)
		assert.Equal(t, []string{"ALPHA", "BRAVO", "CHARLIE", "ONLYA"}, codesOf(got))
	})
	t.Run("missing feed", func(t *testing.T) {
		_, err := collect(ctx, []string{filepath.Join(dir, "nope.gz")}, 1, 1000)
		require.Error(t, err)
	})
}

func TestMerge_IgnoresFilterFalsePositives(t *testing.T) {
	ghost := discount.Code{Code: "GHOST"}
	results := []map[string]candidate{
		{"GHOST": {code: ghost, feed: 0}},
		{},
	}
	assert.Empty(t, merge(results, 2))
}

type recordingUpserter struct {
	batches [][]discount.Code
	err     error
}

func (r *recordingUpserter) Upsert(_ context.Context, codes ...discount.Code) error {
	if r.err != nil {
		return r.err
	}
	r.batches = append(r.batches, codes)
	return nil
}

func TestWrite(t *testing.T) {
	codes := make([]discount.Code, batchSize+3)
	for i := range codes {
		codes[i] = discount.Code{Code: "C" + decimal.NewFromInt(int64(i)).String()}
	}

	rec := &recordingUpserter{}
	require.NoError(t, write(context.Background(), rec, codes))
	require.Len(t, rec.batches, 2)
	assert.Len(t, rec.batches[0], batchSize)
	assert.Len(t, rec.batches[1], 3)

	failing := &recordingUpserter{err: errors.New("boom")}
	require.Error(t, write(context.Background(), failing, codes))
}
