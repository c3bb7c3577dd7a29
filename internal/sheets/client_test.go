package sheets_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/shujifujiki-cultech/music-quiz-bot/internal/sheets"
)

var _ = Describe("Client", func() {
	var (
		server   *httptest.Server
		status   int
		body     string
		lastPath string
		client   *sheets.Client
	)

	BeforeEach(func() {
		status = http.StatusOK
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lastPath = r.URL.EscapedPath()
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(body))
		}))
		client = sheets.NewClient(server.Client(), "sheet-id").WithBaseURL(server.URL)
	})

	AfterEach(func() {
		server.Close()
	})

	It("maps the header row onto each data row", func() {
		body = `{"range":"quiz!A1:D4","values":[
			["id","text","option_1",""],
			["1","Q1","a","ignored"],
			[],
			["2","Q2"]
		]}`

		rows, err := client.FetchRows(context.Background(), "quiz")
		Expect(err).NotTo(HaveOccurred())
		Expect(lastPath).To(Equal("/sheet-id/values/quiz"))
		Expect(rows).To(HaveLen(2))
		Expect(rows[0]).To(Equal(sheets.Row{"id": "1", "text": "Q1", "option_1": "a"}))
		Expect(rows[1]).To(Equal(sheets.Row{"id": "2", "text": "Q2", "option_1": ""}))
	})

	It("returns no rows for a header-only sheet", func() {
		body = `{"values":[["id","text"]]}`

		rows, err := client.FetchRows(context.Background(), "quiz")
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(BeEmpty())
	})

	It("escapes sheet names with spaces", func() {
		body = `{"values":[]}`

		_, err := client.FetchRows(context.Background(), "music quiz")
		Expect(err).NotTo(HaveOccurred())
		Expect(lastPath).To(Equal("/sheet-id/values/music%20quiz"))
	})

	It("reports an unknown tab as ErrSheetNotFound", func() {
		status = http.StatusBadRequest
		body = `{"error":{"code":400,"message":"Unable to parse range: nope","status":"INVALID_ARGUMENT"}}`

		_, err := client.FetchRows(context.Background(), "nope")
		Expect(err).To(MatchError(sheets.ErrSheetNotFound))
	})

	It("surfaces other API errors with their message", func() {
		status = http.StatusForbidden
		body = `{"error":{"code":403,"message":"The caller does not have permission"}}`

		_, err := client.FetchRows(context.Background(), "quiz")
		Expect(err).To(HaveOccurred())
		Expect(err).NotTo(MatchError(sheets.ErrSheetNotFound))
		Expect(strings.Contains(err.Error(), "does not have permission")).To(BeTrue())
	})
})
