package versioncmder

import (
	"bytes"
	"encoding/json"
	"runtime"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Version Command", func() {
	var out *bytes.Buffer

	execute := func(args ...string) error {
		cmd := NewVersionCmd()
		cmd.SetOut(out)
		cmd.SetArgs(args)
		return cmd.Execute()
	}

	BeforeEach(func() {
		out = &bytes.Buffer{}
	})

	It("prints an aligned table", func() {
		Expect(execute()).To(Succeed())
		Expect(out.String()).To(ContainSubstring("gitVersion: " + gitVersion))
		Expect(out.String()).To(ContainSubstring("goVersion: " + runtime.Version()))
		Expect(out.String()).NotTo(ContainSubstring("gitCommit:"))
	})

	It("prints the version only with --short", func() {
		Expect(execute("--short")).To(Succeed())
		Expect(out.String()).To(Equal(gitVersion + "\n"))
	})

	It("prints JSON with --json", func() {
		Expect(execute("--json")).To(Succeed())
		var info Info
		Expect(json.Unmarshal(out.Bytes(), &info)).To(Succeed())
		Expect(info).To(Equal(Get()))
	})

	It("includes the commit when one is injected", func() {
		gitCommit = "0123abcd"
		DeferCleanup(func() { gitCommit = "" })
		Expect(strings.Contains(Get().Text(), "gitCommit: 0123abcd")).To(BeTrue())
	})
})
