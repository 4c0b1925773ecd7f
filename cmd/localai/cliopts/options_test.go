package cliopts

import (
	"bytes"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	localai "github.com/Paranoid-AF/localai"
)

var _ = Describe("Options", func() {
	It("prefers the --config flag", func() {
		opts := &Options{ConfigPath: "/etc/localai.toml"}
		Expect(opts.Path()).To(Equal("/etc/localai.toml"))
	})

	It("falls back to the default config location", func() {
		GinkgoT().Setenv("LOCALAI_CONFIG_DIR", "/tmp/localai-cfg")
		opts := &Options{}
		Expect(opts.Path()).To(Equal(filepath.Join("/tmp/localai-cfg", "config.toml")))
	})

	DescribeTable("guesses the language from the extension",
		func(path, want string) {
			Expect(LanguageFor(path)).To(Equal(want))
		},
		Entry("go", "main.go", "go"),
		Entry("upper case", "SCRIPT.SH", "shellscript"),
		Entry("tsx", "src/App.tsx", "typescriptreact"),
		Entry("unknown", "notes.xyz", "xyz"),
		Entry("none", "Makefile", ""),
	)
})

var _ = Describe("Printer", func() {
	It("prints plain messages when the output is not a terminal", func() {
		var buf bytes.Buffer
		p := NewPrinter(&buf)
		p.Notices([]localai.Notice{
			{Severity: localai.SeverityInfo, Message: "ok"},
			{Severity: localai.SeverityError, Message: "broken"},
		})
		Expect(buf.String()).To(Equal("ok\nbroken\n"))
	})

	It("detects failures", func() {
		Expect(HasFailure([]localai.Notice{{Severity: localai.SeverityWarning}})).To(BeFalse())
		Expect(HasFailure([]localai.Notice{{Severity: localai.SeverityError}})).To(BeTrue())
	})
})

var _ = Describe("RenderMarkdown", func() {
	It("renders headings and code for a non-terminal writer", func() {
		var buf bytes.Buffer
		out, err := RenderMarkdown(&buf, "# Result\n\n```go\nreturn nil\n```\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Result"))
		Expect(out).To(ContainSubstring("return nil"))
	})
})
