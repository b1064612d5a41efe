package watch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// LoginState is the tri-state login signal the throttle machine keys
// off. It stays unknown until the first successful detection.
type LoginState int

const (
	LoginUnknown LoginState = iota
	LoginSignedOut
	LoginSignedIn
)

func (s LoginState) String() string {
	switch s {
	case LoginSignedOut:
		return "signed-out"
	case LoginSignedIn:
		return "signed-in"
	default:
		return "unknown"
	}
}

// LoginDetection carries the aggregate boolean plus the per-signal
// detail flags. The core only acts on LoggedIn; the details are kept
// for diagnostics.
type LoginDetection struct {
	LoggedIn           bool `json:"loggedIn"`
	AvatarDetected     bool `json:"avatarDetected"`
	SignInLinkDetected bool `json:"signInButtonDetected"`
	BadgeDetected      bool `json:"badgeDetected"`
}

// LoginChecker inspects an externally-managed session and reports
// whether it is signed in. Implementations own their own I/O.
type LoginChecker interface {
	Check(ctx context.Context) (LoginDetection, error)
}

// PageLoginChecker detects login state from the markup of a fetched
// YouTube page using three independent signals: the account avatar
// control, a sign-in link, and the "You" navigation badge. Signed in
// means avatar or badge present; the sign-in link alone is only a
// detail flag.
type PageLoginChecker struct {
	httpClient *http.Client
	pageURL    string
	userAgent  string
	cookie     string
}

func NewPageLoginChecker(httpClient *http.Client, pageURL, userAgent, cookie string) *PageLoginChecker {
	return &PageLoginChecker{
		httpClient: httpClient,
		pageURL:    pageURL,
		userAgent:  userAgent,
		cookie:     cookie,
	}
}

func (c *PageLoginChecker) Check(ctx context.Context) (LoginDetection, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.pageURL, nil)
	if err != nil {
		return LoginDetection{}, fmt.Errorf("failed to create request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}
	req.Header.Set("Cache-Control", "no-store")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return LoginDetection{}, fmt.Errorf("failed to fetch page for login detection: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return LoginDetection{}, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return LoginDetection{}, fmt.Errorf("failed to read page body: %w", err)
	}

	return DetectLoginFromHTML(string(data)), nil
}

// DetectLoginFromHTML runs the three detection signals against raw
// page markup.
func DetectLoginFromHTML(html string) LoginDetection {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return LoginDetection{}
	}

	detection := LoginDetection{
		AvatarDetected: doc.Find(`ytd-topbar-menu-button-renderer button#avatar-btn, ytd-topbar-menu-button-renderer #avatar-btn`).Length() > 0 ||
			doc.Find(`tp-yt-iron-icon[icon="yt-icons:account_circle"]`).Length() > 0,
		SignInLinkDetected: doc.Find(`a[href^="https://accounts.google.com/ServiceLogin"]`).Length() > 0 ||
			doc.Find(`a[href*="accounts.google.com/ServiceLogin"]`).Length() > 0,
		BadgeDetected: doc.Find(`ytd-mini-guide-entry-renderer[aria-label*="You"]`).Length() > 0,
	}
	detection.LoggedIn = detection.AvatarDetected || detection.BadgeDetected

	return detection
}
