package commands

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/netauth/internal/cli/output"
	"github.com/marmos91/netauth/pkg/netauth"
)

var (
	candidatesFlags contextFlags
	candidatesWait  time.Duration
)

// candidateRow is the serializable view of one selection.
type candidateRow struct {
	Index     int    `json:"index" yaml:"index"`
	Mechanism string `json:"mechanism" yaml:"mechanism"`
	Inner     string `json:"inner_mechanism" yaml:"inner_mechanism"`
	State     string `json:"state" yaml:"state"`
	Client    string `json:"client" yaml:"client"`
	Server    string `json:"server" yaml:"server"`
	HaveCred  bool   `json:"have_credential" yaml:"have_credential"`
}

type candidateList []candidateRow

func (l candidateList) Headers() []string {
	return []string{"#", "MECH", "INNER", "STATE", "CLIENT", "SERVER", "CRED"}
}

func (l candidateList) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, r := range l {
		cred := ""
		if r.HaveCred {
			cred = "yes"
		}
		rows = append(rows, []string{
			strconv.Itoa(r.Index), r.Mechanism, r.Inner, r.State, r.Client, r.Server, cred,
		})
	}
	return rows
}

var candidatesCmd = &cobra.Command{
	Use:   "candidates HOSTNAME SERVICE",
	Short: "Enumerate authentication candidates for a host and service",
	Long: `Enumerate the candidate identities for authenticating against SERVICE
on HOSTNAME, in priority order. Pending candidates wait up to --wait for
their background discovery lookup before being listed as pending.

Examples:
  netauth candidates fileserver.corp.example.com cifs --username 'CORP\bob' --password secret --server-mech NTLM
  netauth candidates myserver.local afpserver --username alice --lkdc-realm 'LKDC:SHA1.ABCDEF'`,
	Args: cobra.ExactArgs(2),
	RunE: runCandidates,
}

func init() {
	addContextFlags(candidatesCmd, &candidatesFlags)
	candidatesCmd.Flags().DurationVar(&candidatesWait, "wait", 2*time.Second, "how long to wait for pending candidates to resolve")
}

// addContextFlags registers the shared target/identity flags.
func addContextFlags(cmd *cobra.Command, cf *contextFlags) {
	cmd.Flags().StringVarP(&cf.username, "username", "u", "", "account name, possibly qualified (user@DOMAIN or DOMAIN\\user)")
	cmd.Flags().StringVarP(&cf.password, "password", "p", "", "password enabling password-based candidates")
	cmd.Flags().BoolVar(&cf.askPassword, "ask-password", false, "prompt for the password instead of taking it from a flag")
	cmd.Flags().StringArrayVar(&cf.serverMechs, "server-mech", nil, "server-advertised mechanism, NAME or NAME=hint (repeatable)")
	cmd.Flags().StringVar(&cf.serverHintName, "server-hint-name", "", "acceptor name from the server's negotiation hints")
	cmd.Flags().StringVar(&cf.lkdcRealm, "lkdc-realm", "", "answer discovery lookups with this fixed realm")
}

func runCandidates(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	na, err := buildContext(cfg, args[0], args[1], &candidatesFlags, netauth.NewMemoryCredentialStore())
	if err != nil {
		return err
	}
	defer func() {
		na.Cancel()
		na.Wait()
	}()

	selections := na.Generate().Selections()

	// Give pending discovery lookups a bounded chance to finish.
	deadline := time.Now().Add(candidatesWait)
	for _, sel := range selections {
		if sel.State() != netauth.StatePending {
			continue
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), remaining)
		_ = sel.WaitContext(ctx)
		cancel()
	}

	list := make(candidateList, 0, len(selections))
	for i, sel := range selections {
		row := candidateRow{
			Index: i,
			State: stateString(sel.State()),
			Inner: sel.Mech().String(),
		}
		if sel.State() == netauth.StateResolved {
			row.Mechanism = sel.Mechanism()
			row.Client = sel.ClientPrincipal()
			row.Server = sel.ServerPrincipal()
			row.HaveCred = sel.HaveCredential()
		} else {
			row.Mechanism = sel.Mech().String()
		}
		list = append(list, row)
	}

	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return err
	}
	return output.NewPrinter(os.Stdout, format, false).Print(list)
}
