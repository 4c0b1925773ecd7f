package chatcmder

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	localai "github.com/Paranoid-AF/localai"
	"github.com/Paranoid-AF/localai/cmd/localai/cliopts"
	"github.com/Paranoid-AF/localai/prompt"
)

var _ = Describe("Chat Command", func() {
	var (
		upstream *httptest.Server
		bodies   chan string
		opts     *cliopts.Options
		tmpDir   string
		out      *bytes.Buffer
	)

	BeforeEach(func() {
		os.Unsetenv("LOCALAI_ENDPOINT")
		bodies = make(chan string, 4)
		upstream = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/v1/models":
				w.WriteHeader(http.StatusOK)
			case "/v1/chat/completions":
				body, _ := io.ReadAll(r.Body)
				bodies <- string(body)
				if strings.Contains(string(body), `"stream":true`) {
					for _, s := range []string{"# Answer\n\n", "Use ", "`slices.Reverse`."} {
						fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", s)
					}
					io.WriteString(w, "data: [DONE]\n\n")
					return
				}
				io.WriteString(w, `{"choices":[{"message":{"content":"sync reply"}}]}`)
			default:
				http.NotFound(w, r)
			}
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
		cmd := NewChatCmd(opts)
		cmd.SetOut(out)
		cmd.SetErr(io.Discard)
		cmd.SetArgs(args)
		return cmd.ExecuteContext(context.Background())
	}

	It("streams the reply to stdout", func() {
		Expect(execute("how", "do", "I", "reverse", "a", "slice?")).To(Succeed())
		Expect(out.String()).To(Equal("# Answer\n\nUse `slices.Reverse`.\n"))
		Expect(<-bodies).To(ContainSubstring(`"content":"how do I reverse a slice?"`))
	})

	It("waits for the whole reply with --no-stream", func() {
		Expect(execute("--no-stream", "hello")).To(Succeed())
		Expect(out.String()).To(Equal("sync reply\n"))
	})

	It("renders markdown once the reply is complete", func() {
		Expect(execute("--markdown", "hello")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("Answer"))
		Expect(out.String()).To(ContainSubstring("slices.Reverse"))
	})

	It("applies a command template to the selection file", func() {
		src := filepath.Join(tmpDir, "main.go")
		Expect(os.WriteFile(src, []byte("package main"), 0644)).To(Succeed())

		Expect(execute("--command", "explain", "--selection-file", src)).To(Succeed())
		Expect(<-bodies).To(ContainSubstring("Explain the following go code"))
	})

	It("warns when a command has no selection", func() {
		err := execute("--no-stream", "--command", "fix")
		Expect(err).To(MatchError(prompt.ErrNoSelection))
		Expect(out.String()).To(ContainSubstring("Please select some code first."))
		Consistently(bodies).ShouldNot(Receive())
	})

	It("rejects unknown commands before contacting the server", func() {
		Expect(execute("--command", "rewrite")).To(MatchError(ContainSubstring("unknown command")))
		Expect(execute()).To(MatchError(ContainSubstring("a prompt or --command is required")))
	})
})
