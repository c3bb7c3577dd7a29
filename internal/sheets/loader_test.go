package sheets_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/shujifujiki-cultech/music-quiz-bot/internal/sheets"
)

type stubFetcher struct {
	mu    sync.Mutex
	rows  map[string][]sheets.Row
	err   error
	calls int
}

func (f *stubFetcher) FetchRows(_ context.Context, sheet string) ([]sheets.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.rows[sheet], nil
}

var _ = Describe("Loader", func() {
	var (
		fetcher *stubFetcher
		loader  *sheets.Loader
		ctx     context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		fetcher = &stubFetcher{rows: map[string][]sheets.Row{
			"quiz": {{"id": "1"}, {"id": "2"}},
		}}
		loader = sheets.NewLoader(fetcher, sheets.NewMemoryCache(), time.Minute)
	})

	It("serves repeated reads from the cache", func() {
		first, err := loader.Rows(ctx, "quiz")
		Expect(err).NotTo(HaveOccurred())
		second, err := loader.Rows(ctx, "quiz")
		Expect(err).NotTo(HaveOccurred())

		Expect(second).To(Equal(first))
		Expect(fetcher.calls).To(Equal(1))
	})

	It("always fetches for FreshRows", func() {
		_, _ = loader.Rows(ctx, "quiz")
		_, err := loader.FreshRows(ctx, "quiz")
		Expect(err).NotTo(HaveOccurred())
		Expect(fetcher.calls).To(Equal(2))
	})

	It("wraps an empty sheet in DataFetchError and does not cache it", func() {
		_, err := loader.Rows(ctx, "empty")
		var dfe *sheets.DataFetchError
		Expect(errors.As(err, &dfe)).To(BeTrue())
		Expect(dfe.Sheet).To(Equal("empty"))
		Expect(err).To(MatchError(sheets.ErrNoRows))

		_, _ = loader.Rows(ctx, "empty")
		Expect(fetcher.calls).To(Equal(2))
	})

	It("wraps fetch failures in DataFetchError", func() {
		fetcher.err = sheets.ErrSheetNotFound

		_, err := loader.Rows(ctx, "quiz")
		var dfe *sheets.DataFetchError
		Expect(errors.As(err, &dfe)).To(BeTrue())
		Expect(err).To(MatchError(sheets.ErrSheetNotFound))
	})

	It("tags its log lines with the sheets component", func() {
		var buf bytes.Buffer
		prev := slog.Default()
		slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
		DeferCleanup(func() { slog.SetDefault(prev) })

		fetcher.err = sheets.ErrSheetNotFound
		_, _ = sheets.NewLoader(fetcher, nil, time.Minute).Rows(ctx, "quiz")

		Expect(buf.String()).To(ContainSubstring(`"component":"sheets"`))
		Expect(buf.String()).To(ContainSubstring(`"msg":"fetch failed"`))
	})
})
