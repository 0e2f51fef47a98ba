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

// Package firmware implements the "firmware" subcommand, a supplemental
// catalog lookup that spec.md's core engine has no notion of: it fetches a
// JSON index of known GCF releases and downloads one to local disk for use
// with the root command's -f flag.
package firmware

import (
	"encoding/json"
	"fmt"

	"github.com/arduino/go-paths-helper"
	"github.com/sirupsen/logrus"
	"go.bug.st/downloader/v2"
	semver "go.bug.st/relaxed-semver"
)

// release is a single entry of the catalog, one GCF file for one device
// type at one firmware version.
type release struct {
	DeviceType string `json:"device_type"`
	Version    string `json:"version"`
	URL        string `json:"url"`
}

// catalog is the whole JSON document fetched from globals.DefaultCatalogURL:
// a flat list of releases, deliberately simpler than the teacher's
// per-board module_firmware_index.json since a GCF file already carries its
// own device type and version (internal/gcf).
type catalog struct {
	Releases []release `json:"releases"`
}

// fetchCatalog downloads and parses the JSON catalog at url into a temp
// file, following the teacher's indexes.DownloadIndex temp-file pattern.
func fetchCatalog(url string) (*catalog, error) {
	tmpDir, err := paths.MkTempDir("", "gcfflasher-catalog")
	if err != nil {
		return nil, fmt.Errorf("creating temp dir for catalog download: %w", err)
	}
	defer tmpDir.RemoveAll()
	tmp := tmpDir.Join("catalog.json")

	d, err := downloader.Download(tmp.String(), url)
	if err != nil {
		return nil, fmt.Errorf("downloading catalog: %w", err)
	}
	if err := runDownload(d); err != nil {
		return nil, err
	}

	buf, err := tmp.ReadFile()
	if err != nil {
		return nil, fmt.Errorf("reading downloaded catalog: %w", err)
	}
	var c catalog
	if err := json.Unmarshal(buf, &c); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	return &c, nil
}

// runDownload drives a downloader.Downloader to completion, exactly as the
// teacher's indexes/download.Download does.
func runDownload(d *downloader.Downloader) error {
	if d == nil {
		return nil // already downloaded
	}
	if err := d.Run(); err != nil {
		return fmt.Errorf("failed to download file from %s: %w", d.URL, err)
	}
	if d.Resp.StatusCode >= 400 && d.Resp.StatusCode <= 599 {
		return fmt.Errorf(d.Resp.Status)
	}
	return nil
}

// releasesForType filters the catalog down to one device type.
func (c *catalog) releasesForType(deviceType string) []release {
	var out []release
	for _, r := range c.Releases {
		if r.DeviceType == deviceType {
			out = append(out, r)
		}
	}
	return out
}

// latest picks the release with the highest relaxed-semver version, or nil
// if releases is empty or none of the version strings parse.
func latest(releases []release) *release {
	var best *release
	var bestVersion *semver.Version
	for i := range releases {
		r := &releases[i]
		v, err := semver.Parse(r.Version)
		if err != nil {
			logrus.Warnf("skipping release %s@%s: invalid version: %v", r.DeviceType, r.Version, err)
			continue
		}
		if best == nil || v.GreaterThan(bestVersion) {
			best = r
			bestVersion = v
		}
	}
	return best
}
