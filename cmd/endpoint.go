package cmd

import (
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/s0up4200/szuru/szurubooru"
)

var endpointCmd = &cobra.Command{
	Use:   "endpoint",
	Short: "Inspect or save the resolved server endpoint",
}

var endpointShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show where requests go and which headers they carry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e := client.Endpoint()
		fmt.Println(e)
		fmt.Printf("Site: %s://%s%s\n", e.URLScheme, e.URLNetLocation, e.URLPathPrefix)
		fmt.Printf("API:  %s://%s%s\n", e.APIScheme, e.APINetLocation, e.APIPathPrefix)
		fmt.Println("Headers:")
		for _, name := range slices.Sorted(maps.Keys(e.Headers)) {
			value := e.Headers[name]
			if name == "Authorization" {
				value = "<redacted>"
			}
			fmt.Printf("  %s: %s\n", name, value)
		}
		return nil
	},
}

var endpointSaveCmd = &cobra.Command{
	Use:   "save [PATH]",
	Short: "Save the endpoint so later runs can skip the server section",
	Long: `Save the resolved endpoint, including its Authorization header, to PATH
(default: server.endpoint_file from the config). Files ending in .json are
written as JSON, anything else as YAML.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.Server.EndpointFile
		if len(args) == 1 {
			path = args[0]
		}
		if path == "" {
			return fmt.Errorf("no path given and server.endpoint_file is not set")
		}
		if err := szurubooru.SaveEndpoint(appFs, path, client.Endpoint()); err != nil {
			return err
		}
		fmt.Printf("Saved endpoint to %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(endpointCmd)
	endpointCmd.AddCommand(endpointShowCmd, endpointSaveCmd)
}
