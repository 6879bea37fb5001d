// Command discount-ingest imports discount codes from partner feeds.
//
// Each feed is a gzip-compressed CSV file with rows of
// code,type,value,min_amount,description. A code is imported only when it
// is listed by at least --min-sources feeds; the definition from the first
// feed that lists it is used.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"io"
	"log/slog"
	"math/bits"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/storefront/internal/domain/discount"
	"github.com/xenking/storefront/internal/storage/postgres"
)

const (
	bloomFPR      = 0.001
	progressEvery = 1_000_000
	batchSize     = 500
	maxFeeds      = 64
)

// Upserter stores discount codes.
type Upserter interface {
	Upsert(ctx context.Context, codes ...discount.Code) error
}

// candidate is a code listed by a feed and reported present by enough
// other feeds' filters.
type candidate struct {
	code discount.Code
	feed int
}

func main() {
	var (
		pattern     string
		databaseURL string
		minSources  int
		capacity    uint
	)

	flag.StringVar(&pattern, "feeds", "data/discounts*.csv.gz", "glob of gzipped CSV feeds")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.IntVar(&minSources, "min-sources", 2, "number of feeds that must list a code")
	flag.UintVar(&capacity, "expected-codes", 10_000_000, "expected codes per feed, sizes the bloom filters")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, pattern, databaseURL, minSources, capacity); err != nil {
		slog.Error("discount ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("discount ingest completed successfully")
}

func run(ctx context.Context, pattern, databaseURL string, minSources int, capacity uint) error {
	files, err := filepath.Glob(pattern)
	if err != nil {
		return errors.Wrap(err, "match feeds")
	}
	slices.Sort(files)
	if len(files) == 0 {
		return errors.Errorf("no feeds match %q", pattern)
	}
	if len(files) > maxFeeds {
		return errors.Errorf("%d feeds exceed the limit of %d", len(files), maxFeeds)
	}
	if minSources < 1 || minSources > len(files) {
		return errors.Errorf("min-sources %d out of range [1, %d]", minSources, len(files))
	}

	codes, err := collect(ctx, files, minSources, capacity)
	if err != nil {
		return err
	}

	slog.Info("codes confirmed", slog.Int("count", len(codes)))
	if len(codes) == 0 {
		slog.Info("no codes to import")
		return nil
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := write(ctx, postgres.NewDiscountRepository(pool), codes); err != nil {
		return errors.Wrap(err, "write discount codes")
	}
	return nil
}

// collect returns the codes listed by at least minSources feeds.
func collect(ctx context.Context, files []string, minSources int, capacity uint) ([]discount.Code, error) {
	if minSources == 1 {
		// Every listed code qualifies; the filters are not needed.
		return confirmed(ctx, files, nil, 1)
	}

	slog.Info("pass 1: building bloom filters", slog.Int("feeds", len(files)))

	filters, err := buildFilters(ctx, files, capacity)
	if err != nil {
		return nil, errors.Wrap(err, "build bloom filters")
	}

	slog.Info("pass 2: confirming codes")

	return confirmed(ctx, files, filters, minSources)
}

// buildFilters creates one bloom filter of codes per feed, concurrently.
func buildFilters(ctx context.Context, files []string, capacity uint) ([]*bloom.BloomFilter, error) {
	filters := make([]*bloom.BloomFilter, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(func() error {
			filter := bloom.NewWithEstimates(capacity, bloomFPR)
			var count uint64

			if err := streamFeed(ctx, f, func(c discount.Code) {
				filter.AddString(c.Code)
				count++
				if count%progressEvery == 0 {
					slog.Info("pass 1 progress", slog.String("feed", f), slog.Uint64("codes", count))
				}
			}); err != nil {
				return errors.Wrapf(err, "build filter for %s", f)
			}

			slog.Info("pass 1 complete", slog.String("feed", f), slog.Uint64("total_codes", count))
			filters[i] = filter
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return filters, nil
}

// confirmed re-streams each feed and marks codes that other feeds' filters
// report as present. Codes whose combined mask covers minSources feeds are
// returned, sorted by code. With nil filters every code qualifies.
func confirmed(ctx context.Context, files []string, filters []*bloom.BloomFilter, minSources int) ([]discount.Code, error) {
	results := make([]map[string]candidate, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(func() error {
			found := make(map[string]candidate)
			bit := uint64(1) << uint(i)

			if err := streamFeed(ctx, f, func(c discount.Code) {
				mask := bit
				for j, other := range filters {
					if j != i && other.TestString(c.Code) {
						mask |= uint64(1) << uint(j)
					}
				}
				if bits.OnesCount64(mask) < minSources {
					return
				}
				if _, dup := found[c.Code]; !dup {
					found[c.Code] = candidate{code: c, feed: i}
				}
			}); err != nil {
				return errors.Wrapf(err, "scan %s", f)
			}

			slog.Info("pass 2 complete", slog.String("feed", f), slog.Int("candidates", len(found)))
			results[i] = found
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return merge(results, minSources), nil
}

// merge combines per-feed candidates. A code counts once per feed that
// actually listed it, so bloom false positives alone never confirm a code.
func merge(results []map[string]candidate, minSources int) []discount.Code {
	type entry struct {
		candidate
		feeds int
	}
	merged := make(map[string]entry)
	for _, found := range results {
		for code, c := range found {
			e, ok := merged[code]
			if !ok || c.feed < e.feed {
				e.candidate = c
			}
			e.feeds++
			merged[code] = e
		}
	}

	var out []discount.Code
	for _, e := range merged {
		if e.feeds < minSources {
			continue
		}
		out = append(out, e.code)
	}
	slices.SortFunc(out, func(a, b discount.Code) int { return strings.Compare(a.Code, b.Code) })
	return out
}

// streamFeed opens a gzipped CSV feed and calls fn for each valid row.
// Malformed rows are logged and skipped.
func streamFeed(ctx context.Context, path string, fn func(discount.Code)) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	r := csv.NewReader(gz)
	r.FieldsPerRecord = -1
	r.ReuseRecord = true
	r.TrimLeadingSpace = true

	for line := 1; ; line++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return errors.Wrapf(err, "read %s", path)
		}
		c, err := parseRow(rec)
		if err != nil {
			if line > 1 {
				slog.Warn("skipping row", slog.String("feed", path), slog.Int("line", line), slog.String("error", err.Error()))
			}
			continue
		}
		fn(c)
	}
}

// parseRow converts code,type,value,min_amount,description into an active
// discount code. min_amount and description are optional.
func parseRow(rec []string) (discount.Code, error) {
	if len(rec) < 3 {
		return discount.Code{}, errors.Errorf("want at least 3 fields, got %d", len(rec))
	}

	code := discount.Normalize(rec[0])
	if code == "" {
		return discount.Code{}, errors.New("empty code")
	}

	typ := discount.Type(strings.ToLower(strings.TrimSpace(rec[1])))
	switch typ {
	case discount.TypePercentage, discount.TypeFixed, discount.TypeFreeShipping:
	default:
		return discount.Code{}, errors.Errorf("unknown type %q", rec[1])
	}

	value, err := decimal.NewFromString(strings.TrimSpace(rec[2]))
	if err != nil {
		return discount.Code{}, errors.Wrap(err, "parse value")
	}
	if value.IsNegative() || (typ == discount.TypePercentage && value.GreaterThan(decimal.NewFromInt(100))) {
		return discount.Code{}, errors.Errorf("value %s out of range", value)
	}

	c := discount.Code{Code: code, Type: typ, Value: value, Active: true}
	if len(rec) > 3 && strings.TrimSpace(rec[3]) != "" {
		if c.MinAmount, err = decimal.NewFromString(strings.TrimSpace(rec[3])); err != nil {
			return discount.Code{}, errors.Wrap(err, "parse min_amount")
		}
	}
	if len(rec) > 4 {
		c.Description = strings.TrimSpace(rec[4])
	}
	return c, nil
}

// write upserts codes in batches.
func write(ctx context.Context, repo Upserter, codes []discount.Code) error {
	slog.Info("writing discount codes to database", slog.Int("count", len(codes)))

	for start := 0; start < len(codes); start += batchSize {
		end := min(start+batchSize, len(codes))
		if err := repo.Upsert(ctx, codes[start:end]...); err != nil {
			return errors.Wrapf(err, "upsert batch at %d", start)
		}
		slog.Info("write progress", slog.Int("written", end), slog.Int("total", len(codes)))
	}
	return nil
}
