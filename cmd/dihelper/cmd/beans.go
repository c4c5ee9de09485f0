package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/GoCodeAlone/dihelper"
	"github.com/spf13/cobra"
)

type beanRow struct {
	Name  string               `json:"name"`
	Type  string               `json:"type"`
	Init  dihelper.InitConfig  `json:"init"`
	Run   dihelper.RunConfig   `json:"run"`
	Close dihelper.CloseConfig `json:"close"`
}

// NewBeansCommand creates the beans command
func NewBeansCommand(opts *globalOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "beans",
		Short: "List the registered beans",
		Long: `Build the container with the effective configuration and list every bean
with its declared type and lifecycle settings. The container is initialized
and shut down again right after the listing.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			zl, err := opts.newLogger()
			if err != nil {
				return err
			}
			defer func() { _ = zl.Sync() }()

			p, err := opts.newProvider(zl)
			if err != nil {
				return err
			}

			rows, err := listBeans(cmd.Context(), p)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}
			return writeTable(cmd, rows)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print beans as JSON")

	return cmd
}

// listBeans initializes p, snapshots its beans and shuts it down.
func listBeans(ctx context.Context, p *dihelper.BeanProvider) ([]beanRow, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := p.Init(ctx); err != nil {
		return nil, err
	}

	defs := p.Beans()
	rows := make([]beanRow, 0, len(defs))
	for _, def := range defs {
		rows = append(rows, beanRow{
			Name:  def.Name(),
			Type:  def.Type().String(),
			Init:  def.InitConfig(),
			Run:   def.RunConfig(),
			Close: def.CloseConfig(),
		})
	}

	if err := p.Shutdown(ctx); err != nil {
		return nil, err
	}
	return rows, nil
}

func writeTable(cmd *cobra.Command, rows []beanRow) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTYPE\tINIT\tRUN\tCLOSE")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.Name, r.Type, phase(r.Init.Enabled, r.Init.Order), schedule(r.Run), phase(r.Close.Enabled, r.Close.Order))
	}
	return w.Flush()
}

func phase(enabled bool, order int) string {
	if !enabled {
		return "disabled"
	}
	return fmt.Sprintf("order %d", order)
}

func schedule(c dihelper.RunConfig) string {
	switch {
	case !c.Enabled:
		return "disabled"
	case c.Recurring():
		return fmt.Sprintf("every %s after %s", c.Period(), c.InitialDelay())
	default:
		return fmt.Sprintf("once after %s", c.InitialDelay())
	}
}
