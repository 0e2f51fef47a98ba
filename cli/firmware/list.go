/*
  FirmwareUploader
  Copyright (c) 2021 Arduino LLC.  All right reserved.

  This library is free software; you can redistribute it and/or
  modify it under the terms of the GNU Lesser General Public
  License as published by the Free Software Foundation; either
  version 2.1 of the License, or (at your option) any later version.

  This library is distributed in the hope that it will be useful,
  but WITHOUT ANY WARRANTY; without even the implied warranty of
  MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
  Lesser General Public License for more details.

  You should have received a copy of the GNU Lesser General Public
  License along with this library; if not, write to the Free Software
  Foundation, Inc., 51 Franklin St, Fifth Floor, Boston, MA  02110-1301  USA
*/

package firmware

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/senilio/gcfflasher/cli/feedback"
	"github.com/senilio/gcfflasher/cli/globals"
)

var listCatalogURL string

func newListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "list known GCF firmware releases",
		Long:  "list fetches the firmware catalog and prints every known release, one per device type/version.",
		Args:  cobra.NoArgs,
		Run:   runList,
	}
	cmd.Flags().StringVar(&listCatalogURL, "catalog-url", globals.DefaultCatalogURL, "URL of the firmware catalog JSON")
	return cmd
}

type listResult struct {
	Releases []release `json:"releases"`
}

func (r *listResult) Data() interface{} { return r }

func (r *listResult) String() string {
	if len(r.Releases) == 0 {
		return "no releases found"
	}
	out := ""
	for _, rel := range r.Releases {
		out += fmt.Sprintf("%-12s %-10s %s\n", rel.DeviceType, rel.Version, rel.URL)
	}
	return out[:len(out)-1]
}

func runList(cmd *cobra.Command, args []string) {
	c, err := fetchCatalog(listCatalogURL)
	if err != nil {
		feedback.FatalError(err, feedback.ErrNetwork)
	}
	feedback.PrintResult(&listResult{Releases: c.Releases})
}
