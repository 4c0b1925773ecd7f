package replcmder

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestReplCmd(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "REPL Command Suite")
}
