// SPDX-License-Identifier: EPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Id int

// The catalog covers yarnpin's failure taxonomy: network failures while
// downloading the pinned artifact, integrity (checksum) failures, missing
// host runtime, subprocess launch failures, config/pin-file problems, and
// harness startup failures.
const (
	ArtifactDownloadFailedId Id = iota + 1
	ChecksumMismatchId
	ArtifactMissingId
	RuntimeNotFoundId
	ConfigLoadFailedId
	PinFileInvalidId
	HarnessServerFailedId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // links into the project docs
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n"
		extraMd += "## See also: "
		for _, link := range i.docLinks {
			extraMd += "- [" + string(link) + "]"
		}
		for _, link := range i.extLinks {
			extraMd += "- [" + string(link) + "]"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	artifactDownloadFailedIssue = &Issue{
		id: ArtifactDownloadFailedId,
		mdMsg: `
# Download failed!

The pinned release could not be downloaded.

## Things you can try:
- Check your network connection and proxy settings
- Retry the fetch:
~~~
$ yarnpin fetch
~~~

- Verify the pinned URL template resolves to a live release:
~~~
$ yarnpin status
~~~

- If the release was removed upstream, pin a newer version:
~~~
$ yarnpin pin set --version <version> --sha256 <digest>
~~~`,
	}

	checksumMismatchIssue = &Issue{
		id: ChecksumMismatchId,
		mdMsg: `
# Checksum mismatch!

The downloaded release does not match the pinned SHA-256 digest. Nothing
was written to the cache.

## Common causes:
- The pin file has a stale or mistyped digest
- A proxy or captive portal rewrote the response
- The upstream release asset was replaced

## Things you can try:
- Compare the pinned digest against the upstream published checksum
- Update the pin with the correct digest:
~~~
$ yarnpin pin set --version <version> --sha256 <digest>
~~~

- If you did not change the pin, treat this as a tampering signal and do
  not bypass it`,
	}

	artifactMissingIssue = &Issue{
		id: ArtifactMissingId,
		mdMsg: `
# Artifact not provisioned!

The pinned release is not present in the local cache.

## Things you can try:
- Fetch it explicitly:
~~~
$ yarnpin fetch
~~~

- Or just run a command; the first run fetches on demand:
~~~
$ yarnpin run -- --version
~~~`,
	}

	runtimeNotFoundIssue = &Issue{
		id: RuntimeNotFoundId,
		mdMsg: `
# Host runtime not found!

The interpreter that executes the provisioned artifact (node by default)
is not on your PATH.

## Things you can try:
- Install Node.js: https://nodejs.org
- Check which runtime the pin expects:
~~~
$ yarnpin status
~~~

- Point the pin at a different runtime binary:
~~~toml
# yarnpin.toml
runtime = "/usr/local/bin/node"
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

Could not load the yarnpin configuration file.

## Configuration file locations:
- Linux: ~/.config/yarnpin/config.cue
- macOS: ~/Library/Application Support/yarnpin/config.cue
- Windows: %APPDATA%\yarnpin\config.cue

## Things you can try:
- Check the configuration syntax
- Remove the config file to use defaults
- Inspect the effective configuration:
~~~
$ yarnpin config show
~~~

## Example configuration:
~~~cue
cache_dir: "/var/cache/yarnpin"
verbose:   false

harness: {
  ready_timeout_seconds: 30
  config_relative_path:  "build/injector.json"
}
~~~`,
	}

	pinFileInvalidIssue = &Issue{
		id: PinFileInvalidId,
		mdMsg: `
# Invalid pin file!

The yarnpin.toml in your project could not be parsed, or the resulting
descriptor is incomplete.

## A pin file overlays the built-in default; every field is optional:
~~~toml
version      = "1.2.1"
sha256       = "ae8e3e01f151161ec9cc5d5f887a7b3dbaa1e0119371bb6baa66a40b2233112b"
url_template = "https://github.com/yarnpkg/yarn/releases/download/v{version}/{filename}"
runtime      = "node"
~~~

## Things you can try:
- Check the TOML syntax
- Make sure the digest is 64 lowercase hex characters
- Regenerate the pin:
~~~
$ yarnpin pin set --version <version> --sha256 <digest>
~~~`,
	}

	harnessServerFailedIssue = &Issue{
		id: HarnessServerFailedId,
		mdMsg: `
# Harness server failed to start!

The server subprocess did not become ready before the timeout.

## Things you can try:
- Check the server command starts outside the harness
- Make sure the --url host and port match what the server binds
- Raise the readiness timeout:
~~~
$ yarnpin harness --ready-timeout 60s --url http://127.0.0.1:8888 <server-cmd...> -- <runner>
~~~`,
	}

	issues = map[Id]*Issue{
		artifactDownloadFailedIssue.Id(): artifactDownloadFailedIssue,
		checksumMismatchIssue.Id():       checksumMismatchIssue,
		artifactMissingIssue.Id():        artifactMissingIssue,
		runtimeNotFoundIssue.Id():        runtimeNotFoundIssue,
		configLoadFailedIssue.Id():       configLoadFailedIssue,
		pinFileInvalidIssue.Id():         pinFileInvalidIssue,
		harnessServerFailedIssue.Id():    harnessServerFailedIssue,
	}
)

func Values() []*Issue {
	return maps.Values(issues)
}

func Get(id Id) *Issue {
	return issues[id]
}
