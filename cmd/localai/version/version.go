// Package versioncmder prints build information injected with -ldflags:
//
//	go build -ldflags "-X github.com/Paranoid-AF/localai/cmd/localai/version.gitVersion=v1.2.0"
package versioncmder

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
)

var (
	// gitVersion is the semantic version, vMAJOR.MINOR.PATCH[-PRERELEASE][+BUILD]
	gitVersion = "v0.0.0-dev"
	// gitCommit is the output of $(git rev-parse HEAD)
	gitCommit = ""
	// buildDate is ISO8601, $(date -u +'%Y-%m-%dT%H:%M:%SZ')
	buildDate = "1970-01-01T00:00:00Z"
)

// Info describes the running binary.
type Info struct {
	GitVersion string `json:"gitVersion"`
	GitCommit  string `json:"gitCommit,omitempty"`
	BuildDate  string `json:"buildDate"`
	GoVersion  string `json:"goVersion"`
	Platform   string `json:"platform"`
}

// Get returns the build information of this binary.
func Get() Info {
	return Info{
		GitVersion: gitVersion,
		GitCommit:  gitCommit,
		BuildDate:  buildDate,
		GoVersion:  runtime.Version(),
		Platform:   fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// Text renders info as an aligned two-column table.
func (info Info) Text() string {
	table := uitable.New()
	table.RightAlign(0)
	table.MaxColWidth = 80
	table.Separator = " "
	table.AddRow("gitVersion:", info.GitVersion)
	if info.GitCommit != "" {
		table.AddRow("gitCommit:", info.GitCommit)
	}
	table.AddRow("buildDate:", info.BuildDate)
	table.AddRow("goVersion:", info.GoVersion)
	table.AddRow("platform:", info.Platform)
	return table.String()
}

const versionShortDesc string = "Print version information"

type versionCommander struct {
	asJSON bool
	short  bool
}

func NewVersionCmd() *cobra.Command {
	cmder := &versionCommander{}

	cmd := &cobra.Command{
		Use:   "version",
		Short: versionShortDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	cmd.Flags().BoolVar(&cmder.asJSON, "json", false, "Print as JSON")
	cmd.Flags().BoolVar(&cmder.short, "short", false, "Print the version number only")

	return cmd
}

func (c *versionCommander) run(cmd *cobra.Command) error {
	info := Get()
	out := cmd.OutOrStdout()
	switch {
	case c.short:
		fmt.Fprintln(out, info.GitVersion)
	case c.asJSON:
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal version info: %w", err)
		}
		fmt.Fprintln(out, string(data))
	default:
		fmt.Fprintln(out, info.Text())
	}
	return nil
}
