// Package security はフィード取得時のSSRF防止機能を提供する。
package security

import (
	"errors"
	"fmt"
	"net/http"
	"net/netip"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/doyensec/safeurl"
)

// ErrBlocked はURLがSSRF防止の規則で拒否されたことを示す。
var ErrBlocked = errors.New("blocked by SSRF guard")

// DefaultAllowedPorts はフィード取得で既定で許可するポート。
var DefaultAllowedPorts = []int{80, 443}

// blockedPrefixes はフィード取得先として拒否するアドレス範囲。
var blockedPrefixes = []netip.Prefix{
	netip.MustParsePrefix("0.0.0.0/8"),      // カレントネットワーク
	netip.MustParsePrefix("10.0.0.0/8"),     // RFC 1918
	netip.MustParsePrefix("100.64.0.0/10"),  // CGNAT
	netip.MustParsePrefix("127.0.0.0/8"),    // ループバック
	netip.MustParsePrefix("169.254.0.0/16"), // リンクローカル（クラウドメタデータを含む）
	netip.MustParsePrefix("172.16.0.0/12"),  // RFC 1918
	netip.MustParsePrefix("192.168.0.0/16"), // RFC 1918
	netip.MustParsePrefix("::1/128"),
	netip.MustParsePrefix("fe80::/10"),
	netip.MustParsePrefix("fc00::/7"),
}

// blockedHostSuffixes はDNS解決前に拒否する内部向けホスト名。
var blockedHostSuffixes = []string{
	"localhost",
	".localhost",
	".internal",
	".local",
}

// Guard はフィードURLの事前検証と、接続先を検証するHTTPクライアントの生成を行う。
// 事前検証はDNS解決を伴わない静的なチェックで、DNS再バインディングは
// NewSafeClientが返すクライアントのDialer側で防ぐ。
type Guard struct {
	allowedPorts []int
}

// NewSSRFGuard はGuardを生成する。
// allowedPortsが空の場合はDefaultAllowedPortsを使う。
func NewSSRFGuard(allowedPorts ...int) *Guard {
	if len(allowedPorts) == 0 {
		allowedPorts = DefaultAllowedPorts
	}
	return &Guard{allowedPorts: slices.Clone(allowedPorts)}
}

// AllowedPorts は許可しているポートの一覧を返す。
func (g *Guard) AllowedPorts() []int {
	return slices.Clone(g.allowedPorts)
}

// NewSafeClient はプライベートアドレスへの接続を拒否するHTTPクライアントを生成する。
// safeurlがDNS解決後のIPアドレスを接続時に検証する。
func (g *Guard) NewSafeClient(timeout time.Duration, maxResponseSize int64) *http.Client {
	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes("http", "https").
		SetAllowedPorts(g.allowedPorts...).
		Build()

	return safeurl.Client(config).Client
}

// ValidateURL はフィードURLのスキーム、ポート、ホストを検証する。
// 拒否した場合は ErrBlocked をラップしたエラーを返す。
func (g *Guard) ValidateURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("%w: empty URL", ErrBlocked)
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: invalid URL: %v", ErrBlocked, err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("%w: disallowed scheme %q", ErrBlocked, parsed.Scheme)
	}

	host := parsed.Hostname()
	if host == "" {
		return fmt.Errorf("%w: empty host", ErrBlocked)
	}

	if err := g.checkPort(parsed.Port(), scheme); err != nil {
		return err
	}

	if addr, err := netip.ParseAddr(host); err == nil {
		if isBlockedAddr(addr) {
			return fmt.Errorf("%w: address %s", ErrBlocked, addr)
		}
		return nil
	}

	if isBlockedHostname(host) {
		return fmt.Errorf("%w: host %s", ErrBlocked, host)
	}

	return nil
}

func (g *Guard) checkPort(rawPort, scheme string) error {
	port := 80
	if scheme == "https" {
		port = 443
	}
	if rawPort != "" {
		p, err := strconv.Atoi(rawPort)
		if err != nil {
			return fmt.Errorf("%w: invalid port %q", ErrBlocked, rawPort)
		}
		port = p
	}
	if !slices.Contains(g.allowedPorts, port) {
		return fmt.Errorf("%w: port %d", ErrBlocked, port)
	}
	return nil
}

// isBlockedAddr はIPv4射影アドレスを展開したうえで拒否範囲に含まれるかを返す。
func isBlockedAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	if addr.IsUnspecified() || addr.IsMulticast() {
		return true
	}
	for _, p := range blockedPrefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func isBlockedHostname(host string) bool {
	lower := strings.TrimSuffix(strings.ToLower(host), ".")
	for _, suffix := range blockedHostSuffixes {
		if lower == suffix || (strings.HasPrefix(suffix, ".") && strings.HasSuffix(lower, suffix)) {
			return true
		}
	}
	return false
}
