package sheets_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestSheets(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Sheets Suite")
}
