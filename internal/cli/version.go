package cli

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/cobra"

	"github.com/zoneai/zoneai/internal/protocol"
)

// Version, GitCommit, and BuildTime are injected at build time via
// -ldflags.
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// BuildInfo is the JSON shape of `zoned version --json`.
type BuildInfo struct {
	Version         string `json:"version"`
	ProtocolVersion string `json:"protocol_version"`
	GitCommit       string `json:"git_commit"`
	BuildTime       string `json:"build_time"`
	GoVersion       string `json:"go_version"`
	OS              string `json:"os"`
	Arch            string `json:"arch"`
}

// NewVersionCmd builds the version command. It parses both the build's
// own version and the wire protocol's default version (SPEC_FULL.md §2.5)
// as semver, so a malformed embedded version string fails loudly at
// build-info time rather than silently during a HELLO handshake.
func NewVersionCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			buildVersion, err := semver.NewVersion(Version)
			if err != nil {
				return fmt.Errorf("invalid build version %q: %w", Version, err)
			}
			protoVersion, err := semver.NewVersion(protocol.DefaultProtocolVersion)
			if err != nil {
				return fmt.Errorf("invalid protocol version %q: %w", protocol.DefaultProtocolVersion, err)
			}

			info := BuildInfo{
				Version:         buildVersion.String(),
				ProtocolVersion: protoVersion.String(),
				GitCommit:       GitCommit,
				BuildTime:       BuildTime,
				GoVersion:       runtime.Version(),
				OS:              runtime.GOOS,
				Arch:            runtime.GOARCH,
			}

			if jsonOutput {
				data, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}

			fmt.Printf("zoned %s (wire protocol %s)\n", info.Version, info.ProtocolVersion)
			fmt.Printf("  Git commit: %s\n", info.GitCommit)
			fmt.Printf("  Built:      %s\n", info.BuildTime)
			fmt.Printf("  Go version: %s\n", info.GoVersion)
			fmt.Printf("  OS/Arch:    %s/%s\n", info.OS, info.Arch)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	return cmd
}
