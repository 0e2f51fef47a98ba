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
	"path"

	"github.com/arduino/go-paths-helper"
	"github.com/spf13/cobra"
	"go.bug.st/downloader/v2"

	"github.com/senilio/gcfflasher/cli/feedback"
	"github.com/senilio/gcfflasher/cli/globals"
)

var (
	fetchCatalogURL string
	fetchVersion    string
	fetchDest       string
)

func newFetchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch <device-type>",
		Short: "download a GCF firmware release",
		Long:  "fetch downloads a release from the firmware catalog to local disk and prints its path, for use with the root command's -f flag. With no --version it picks the newest available.",
		Args:  cobra.ExactArgs(1),
		Run:   runFetch,
	}
	cmd.Flags().StringVar(&fetchCatalogURL, "catalog-url", globals.DefaultCatalogURL, "URL of the firmware catalog JSON")
	cmd.Flags().StringVar(&fetchVersion, "version", "", "exact version to fetch (default: newest)")
	cmd.Flags().StringVar(&fetchDest, "dest", "", "download directory (default: OS temp dir)")
	return cmd
}

type fetchResult struct {
	Path string `json:"path"`
}

func (r *fetchResult) Data() interface{} { return r }
func (r *fetchResult) String() string    { return r.Path }

func runFetch(cmd *cobra.Command, args []string) {
	deviceType := args[0]

	c, err := fetchCatalog(fetchCatalogURL)
	if err != nil {
		feedback.FatalError(err, feedback.ErrNetwork)
	}

	candidates := c.releasesForType(deviceType)
	if len(candidates) == 0 {
		feedback.Fatal(fmt.Sprintf("no releases found for device type %q", deviceType), feedback.ErrBadArgument)
	}

	var chosen *release
	if fetchVersion != "" {
		for i := range candidates {
			if candidates[i].Version == fetchVersion {
				chosen = &candidates[i]
				break
			}
		}
		if chosen == nil {
			feedback.Fatal(fmt.Sprintf("version %s not found for device type %q", fetchVersion, deviceType), feedback.ErrBadArgument)
		}
	} else {
		chosen = latest(candidates)
		if chosen == nil {
			feedback.Fatal(fmt.Sprintf("no valid version found for device type %q", deviceType), feedback.ErrGeneric)
		}
	}

	destDir := paths.New(fetchDest)
	if fetchDest == "" {
		destDir = paths.TempDir()
	}
	if err := destDir.MkdirAll(); err != nil {
		feedback.Fatal(fmt.Sprintf("cannot create destination directory: %v", err), feedback.ErrGeneric)
	}

	destFile := destDir.Join(path.Base(chosen.URL))
	if err := downloadRelease(chosen.URL, destFile); err != nil {
		feedback.FatalError(err, feedback.ErrNetwork)
	}

	feedback.PrintResult(&fetchResult{Path: destFile.String()})
}

func downloadRelease(url string, dest *paths.Path) error {
	if dest.Exist() {
		return nil // already fetched
	}
	d, err := downloader.Download(dest.String(), url)
	if err != nil {
		return fmt.Errorf("downloading %s: %w", url, err)
	}
	if err := runDownload(d); err != nil {
		dest.Remove()
		return err
	}
	return nil
}
