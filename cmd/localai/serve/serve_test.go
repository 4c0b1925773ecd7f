package servecmder

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	localai "github.com/Paranoid-AF/localai"
	"github.com/Paranoid-AF/localai/cmd/localai/cliopts"
)

var socketCounter atomic.Int64

var _ = Describe("Serve Command", func() {
	var (
		upstream   *httptest.Server
		configPath string
		sockPath   string
		cancel     context.CancelFunc
		done       chan error
	)

	BeforeEach(func() {
		os.Unsetenv("LOCALAI_ENDPOINT")
		upstream = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		configPath = filepath.Join(GinkgoT().TempDir(), "config.toml")
		cfg := localai.DefaultConfig()
		cfg.Server.Endpoint = upstream.URL
		Expect(localai.SaveConfigFile(configPath, cfg)).To(Succeed())

		// Use /tmp directly to avoid macOS 104-char Unix socket path limit
		sockPath = fmt.Sprintf("/tmp/localai-cmd-%d-%d.sock", os.Getpid(), socketCounter.Add(1))

		var ctx context.Context
		ctx, cancel = context.WithCancel(context.Background())
		done = make(chan error, 1)

		cmd := NewServeCmd(&cliopts.Options{ConfigPath: configPath})
		cmd.SetOut(io.Discard)
		cmd.SetErr(io.Discard)
		cmd.SetArgs([]string{"--socket", sockPath})
		go func(ch chan<- error) { ch <- cmd.ExecuteContext(ctx) }(done)

		Eventually(func() error {
			conn, err := net.Dial("unix", sockPath)
			if err == nil {
				conn.Close()
			}
			return err
		}).Should(Succeed())
	})

	AfterEach(func() {
		cancel()
		if done != nil {
			Eventually(done).WithTimeout(5 * time.Second).Should(Receive())
		}
		upstream.Close()
	})

	request := func(req *localai.Request) localai.ConfigResponse {
		conn, err := net.Dial("unix", sockPath)
		Expect(err).NotTo(HaveOccurred())
		defer conn.Close()
		conn.SetDeadline(time.Now().Add(5 * time.Second))

		data, err := json.Marshal(req)
		Expect(err).NotTo(HaveOccurred())
		_, err = conn.Write(append(data, '\n'))
		Expect(err).NotTo(HaveOccurred())

		scanner := bufio.NewScanner(conn)
		Expect(scanner.Scan()).To(BeTrue())
		var resp localai.ConfigResponse
		Expect(json.Unmarshal(scanner.Bytes(), &resp)).To(Succeed())
		return resp
	}

	It("answers config requests on the socket", func() {
		resp := request(&localai.Request{Type: localai.TypeConfig, RequestID: 3, Config: &localai.ConfigRequest{Action: "get"}})
		Expect(resp.RequestID).To(Equal(3))
		Expect(resp.Config).NotTo(BeNil())
		Expect(resp.Config.Server.Endpoint).To(Equal(upstream.URL))
	})

	It("picks up config file changes", func() {
		cfg := localai.DefaultConfig()
		cfg.Server.Endpoint = "http://127.0.0.1:9"
		Expect(localai.SaveConfigFile(configPath, cfg)).To(Succeed())

		Eventually(func() string {
			resp := request(&localai.Request{Type: localai.TypeConfig, Config: &localai.ConfigRequest{Action: "get"}})
			return resp.Config.Server.Endpoint
		}).WithTimeout(5 * time.Second).Should(Equal("http://127.0.0.1:9"))
	})

	It("shuts down and removes the socket when the context ends", func() {
		cancel()
		Eventually(done).WithTimeout(5 * time.Second).Should(Receive(BeNil()))
		done = nil
		_, err := os.Stat(sockPath)
		Expect(os.IsNotExist(err)).To(BeTrue())
	})
})
