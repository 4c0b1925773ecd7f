package completecmder

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	localai "github.com/Paranoid-AF/localai"
	"github.com/Paranoid-AF/localai/cmd/localai/cliopts"
)

var _ = Describe("Complete Command", func() {
	var (
		upstream *httptest.Server
		prompts  chan string
		reply    string
		tmpDir   string
		opts     *cliopts.Options
		out      *bytes.Buffer
	)

	BeforeEach(func() {
		os.Unsetenv("LOCALAI_ENDPOINT")
		prompts = make(chan string, 1)
		reply = "```go\nreturn nil\n```"
		upstream = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Prompt string `json:"prompt"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			prompts <- req.Prompt
			json.NewEncoder(w).Encode(map[string]any{
				"choices": []map[string]string{{"text": reply}},
			})
		}))

		tmpDir = GinkgoT().TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")
		cfg := localai.DefaultConfig()
		cfg.Server.Endpoint = upstream.URL
		Expect(localai.SaveConfigFile(configPath, cfg)).To(Succeed())

		opts = &cliopts.Options{ConfigPath: configPath}
		out = &bytes.Buffer{}
	})

	AfterEach(func() {
		upstream.Close()
	})

	execute := func(args ...string) error {
		cmd := NewCompleteCmd(opts)
		cmd.SetOut(out)
		cmd.SetErr(io.Discard)
		cmd.SetArgs(args)
		return cmd.ExecuteContext(context.Background())
	}

	It("prints the cleaned suggestion", func() {
		src := filepath.Join(tmpDir, "main.go")
		Expect(os.WriteFile(src, []byte("func run() error {\n\t\n}\n"), 0644)).To(Succeed())

		Expect(execute(src, "--line", "1", "--char", "1")).To(Succeed())
		Expect(out.String()).To(Equal("return nil\n"))

		var sent string
		Eventually(prompts).Should(Receive(&sent))
		Expect(sent).To(HavePrefix("# Language: go\n# File: main.go\n\n"))
		Expect(sent).To(ContainSubstring("func run() error {\n\t<CURSOR>"))
	})

	It("prints nothing without a suggestion", func() {
		reply = "   \n\n"
		src := filepath.Join(tmpDir, "notes.txt")
		Expect(os.WriteFile(src, []byte("todo"), 0644)).To(Succeed())

		Expect(execute(src)).To(Succeed())
		Expect(out.String()).To(BeEmpty())
	})

	It("fails on a missing file", func() {
		Expect(execute(filepath.Join(tmpDir, "missing.go"))).To(MatchError(ContainSubstring("could not read")))
	})
})
