package dashboard

import (
	"net/url"
	"path"
	"strings"

	"github.com/bubblecloud/bubblecloud-tray/internal/constants"
	"github.com/bubblecloud/bubblecloud-tray/internal/validation"
)

// Routes are the dashboard pages derived from a base URL.
type Routes struct {
	Base string
}

// LoginURL is the page hosting the login form.
func (r Routes) LoginURL() string {
	return r.Base + constants.LoginPath
}

// DashboardURL is the post-login landing page and the upload endpoint.
func (r Routes) DashboardURL() string {
	return r.Base + constants.DashboardPath
}

// FilesURL is the file listing shown in the file browser.
func (r Routes) FilesURL() string {
	return r.Base + constants.FilesPath
}

// IsFilesURL reports whether u stays inside the file listing. Anything
// else the file browser navigates to is treated as a download.
func (r Routes) IsFilesURL(u string) bool {
	return strings.HasPrefix(u, r.FilesURL())
}

// SameOrigin reports whether u has the dashboard's scheme and host
// (including port), the only place the session cookie may be sent.
func (r Routes) SameOrigin(u string) bool {
	base, err := url.Parse(r.Base)
	if err != nil || base.Host == "" {
		return false
	}
	target, err := url.Parse(u)
	if err != nil {
		return false
	}
	return strings.EqualFold(base.Scheme, target.Scheme) && strings.EqualFold(base.Host, target.Host)
}

// IsLoginURL reports whether u is a login page, the dashboard's answer to
// an expired session.
func IsLoginURL(u string) bool {
	parsed, err := url.Parse(u)
	if err != nil {
		return false
	}
	return strings.HasSuffix(strings.TrimRight(parsed.Path, "/"), constants.LoginPath)
}

// IsDashboardURL reports whether u is the post-login landing page.
func IsDashboardURL(u string) bool {
	parsed, err := url.Parse(u)
	if err != nil {
		return false
	}
	return strings.HasSuffix(parsed.Path, constants.DashboardPath)
}

// FilenameFromURL returns the last path segment of u, decoded, for use as
// the default name in the save dialog.
func FilenameFromURL(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return "download"
	}
	name := path.Base(parsed.Path)
	if name == "/" || validation.ValidateFilename(name) != nil {
		return "download"
	}
	return name
}
