package actioncmder

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	localai "github.com/Paranoid-AF/localai"
	"github.com/Paranoid-AF/localai/cmd/localai/cliopts"
)

var _ = Describe("Action Commands", func() {
	var (
		upstream   *httptest.Server
		healthy    bool
		configPath string
		opts       *cliopts.Options
		out        *bytes.Buffer
	)

	BeforeEach(func() {
		os.Unsetenv("LOCALAI_ENDPOINT")
		healthy = true
		upstream = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/v1/models" && healthy {
				w.WriteHeader(http.StatusOK)
				return
			}
			w.WriteHeader(http.StatusBadGateway)
		}))

		configPath = filepath.Join(GinkgoT().TempDir(), "config.toml")
		cfg := localai.DefaultConfig()
		cfg.Server.Endpoint = upstream.URL
		Expect(localai.SaveConfigFile(configPath, cfg)).To(Succeed())

		opts = &cliopts.Options{ConfigPath: configPath}
		out = &bytes.Buffer{}
	})

	AfterEach(func() {
		upstream.Close()
	})

	execute := func(cmd *cobra.Command, args ...string) error {
		cmd.SetOut(out)
		cmd.SetErr(out)
		cmd.SetArgs(args)
		return cmd.ExecuteContext(context.Background())
	}

	It("reports a successful connection", func() {
		Expect(execute(NewTestConnectionCmd(opts))).To(Succeed())
		Expect(out.String()).To(ContainSubstring("✓ Successfully connected to LocalAI"))
	})

	It("fails when the server is unhealthy", func() {
		healthy = false
		err := execute(NewTestConnectionCmd(opts))
		Expect(err).To(MatchError(errConnection))
		Expect(out.String()).To(ContainSubstring("✗ Failed to connect to LocalAI at " + upstream.URL))
	})

	It("persists a new endpoint and probes it", func() {
		second := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer second.Close()

		Expect(execute(NewConfigureEndpointCmd(opts), second.URL)).To(Succeed())
		Expect(out.String()).To(ContainSubstring("LocalAI endpoint updated to: " + second.URL))
		Expect(out.String()).To(ContainSubstring("✓ Successfully connected to LocalAI"))

		cfg, err := localai.LoadConfigFile(configPath)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Server.Endpoint).To(Equal(second.URL))
	})

	It("requires an endpoint argument", func() {
		Expect(execute(NewConfigureEndpointCmd(opts))).NotTo(Succeed())
	})

	It("toggles completion on disk", func() {
		Expect(execute(NewToggleCompletionCmd(opts))).To(Succeed())
		Expect(out.String()).To(ContainSubstring("LocalAI code completion disabled"))

		cfg, err := localai.LoadConfigFile(configPath)
		Expect(err).NotTo(HaveOccurred())
		Expect(localai.CompletionEnabled(cfg)).To(BeFalse())

		out.Reset()
		Expect(execute(NewToggleCompletionCmd(opts))).To(Succeed())
		Expect(out.String()).To(ContainSubstring("LocalAI code completion enabled"))
	})
})
