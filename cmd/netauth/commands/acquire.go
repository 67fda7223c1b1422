package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/netauth/internal/cli/output"
	"github.com/marmos91/netauth/pkg/netauth"
)

var (
	acquireFlags   contextFlags
	acquireIndex   int
	acquireTimeout time.Duration
	acquireLabel   string
)

// acquireResult is the serializable outcome of one acquisition.
type acquireResult struct {
	Mechanism    string `json:"mechanism" yaml:"mechanism"`
	Client       string `json:"client" yaml:"client"`
	Server       string `json:"server" yaml:"server"`
	Label        string `json:"label,omitempty" yaml:"label,omitempty"`
	ReferenceKey string `json:"reference_key,omitempty" yaml:"reference_key,omitempty"`
}

var acquireCmd = &cobra.Command{
	Use:   "acquire HOSTNAME SERVICE",
	Short: "Acquire the credential for one candidate",
	Long: `Generate the candidates for SERVICE on HOSTNAME, pick the one at
--index (default: the first), acquire its credential, and print the
canonicalized outcome with its persistent reference key.

With --hold-label, the acquired credential is additionally pinned and
tagged with the given identifier, the way a mounter pins a credential
for the lifetime of a mount.

Examples:
  netauth acquire fileserver.corp.example.com cifs -u 'CORP\bob' -p secret --server-mech NTLM
  netauth acquire myserver.local afpserver -u alice -p secret --index 1`,
	Args: cobra.ExactArgs(2),
	RunE: runAcquire,
}

func init() {
	addContextFlags(acquireCmd, &acquireFlags)
	acquireCmd.Flags().IntVar(&acquireIndex, "index", 0, "candidate index from 'netauth candidates'")
	acquireCmd.Flags().DurationVar(&acquireTimeout, "timeout", 30*time.Second, "acquisition timeout")
	acquireCmd.Flags().StringVar(&acquireLabel, "hold-label", "", "pin the credential and tag it with this identifier")
}

func runAcquire(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store := netauth.NewMemoryCredentialStore()
	na, err := buildContext(cfg, args[0], args[1], &acquireFlags, store)
	if err != nil {
		return err
	}
	defer func() {
		na.Cancel()
		na.Wait()
	}()

	selections := na.Generate().Selections()
	if acquireIndex < 0 || acquireIndex >= len(selections) {
		return fmt.Errorf("candidate index %d out of range (%d candidates)", acquireIndex, len(selections))
	}
	sel := selections[acquireIndex]

	ctx, cancel := context.WithTimeout(cmd.Context(), acquireTimeout)
	defer cancel()

	if err := sel.Acquire(ctx); err != nil {
		return fmt.Errorf("acquire %s candidate: %w", sel.Mech(), err)
	}

	result := acquireResult{
		Mechanism: sel.Mechanism(),
		Client:    sel.ClientPrincipal(),
		Server:    sel.ServerPrincipal(),
		Label:     sel.InferredLabel(),
	}
	if key, ok := sel.ReferenceKey(); ok {
		result.ReferenceKey = key
	}

	if acquireLabel != "" {
		if err := sel.AddReferenceAndLabel(acquireLabel); err != nil {
			return fmt.Errorf("pin credential: %w", err)
		}
	}

	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return err
	}
	if format == output.FormatTable {
		p := output.NewPrinter(os.Stdout, format, false)
		return output.SimpleTable(p.Writer(), [][2]string{
			{"Mechanism", result.Mechanism},
			{"Client", result.Client},
			{"Server", result.Server},
			{"Label", result.Label},
			{"Reference", result.ReferenceKey},
		})
	}
	return output.NewPrinter(os.Stdout, format, false).Print(result)
}
