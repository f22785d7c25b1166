package portal

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/diegoclair/course-reminder-bot/internal/config"
	"github.com/diegoclair/course-reminder-bot/internal/domain/contract"
	apperrors "github.com/diegoclair/course-reminder-bot/pkg/errors"
)

const (
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/137.0.0.0 Safari/537.36"

	// loginFormMarker is present on the portal's login page, which is what
	// comes back instead of the timetable when credentials are rejected.
	loginFormMarker = `name="userAccount"`
	maxBodySize     = 4 << 20
)

// Client talks to the course registration portal.
type Client struct {
	baseURL       *url.URL
	loginPath     string
	timetablePath string
	scheduleMode  string
	termID        string
	timeout       time.Duration
	logger        *zap.Logger
}

// session holds the cookie jar of one logged in account.
type session struct {
	account string
	http    *http.Client
}

func (s *session) Account() string {
	return s.account
}

func New(cfg config.PortalConfig, logger *zap.Logger) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid portal base url: %w", err)
	}

	return &Client{
		baseURL:       base,
		loginPath:     cfg.LoginPath,
		timetablePath: cfg.TimetablePath,
		scheduleMode:  cfg.ScheduleMode,
		termID:        cfg.TermID,
		timeout:       cfg.Timeout,
		logger:        logger,
	}, nil
}

// Authenticate logs in and returns a session carrying the portal cookies.
func (c *Client) Authenticate(ctx context.Context, account, secret string) (contract.Session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	s := &session{
		account: account,
		http:    &http.Client{Jar: jar, Timeout: c.timeout},
	}

	form := url.Values{
		"loginMethod":  {"LoginToXk"},
		"userAccount":  {account},
		"userPassword": {secret},
		"encoded":      {encodeCredentials(account, secret)},
	}

	loginURL := c.resolve(c.loginPath)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, loginURL.String(), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrFetch, "failed to build login request")
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Origin", c.baseURL.Scheme+"://"+c.baseURL.Host)
	req.Header.Set("Referer", loginURL.String())

	body, err := c.do(s.http, req)
	if err != nil {
		return nil, err
	}
	if isLoginPage(body) {
		return nil, apperrors.New(apperrors.ErrAuth.Code, "portal rejected the credentials")
	}

	c.logger.Debug("portal login succeeded", zap.String("account", account))
	return s, nil
}

// FetchTimetableHTML returns the weekly timetable page containing date.
func (c *Client) FetchTimetableHTML(ctx context.Context, sess contract.Session, date time.Time) (string, error) {
	s, ok := sess.(*session)
	if !ok {
		return "", apperrors.New(apperrors.ErrAuth.Code, "session was not issued by this portal client")
	}

	u := c.resolve(c.timetablePath)
	q := url.Values{}
	q.Set("rq", date.Format("2006-01-02"))
	q.Set("sjmsValue", c.scheduleMode)
	q.Set("xnxqid", c.termID)
	q.Set("xswk", "false")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrFetch, "failed to build timetable request")
	}
	c.setHeaders(req)
	req.Header.Set("Referer", c.resolve(c.loginPath).String())

	body, err := c.do(s.http, req)
	if err != nil {
		return "", err
	}
	if isLoginPage(body) {
		return "", apperrors.New(apperrors.ErrAuth.Code, "portal session expired")
	}
	return body, nil
}

func (c *Client) do(client *http.Client, req *http.Request) (string, error) {
	resp, err := client.Do(req)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrFetch, "portal request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apperrors.New(apperrors.ErrFetch.Code, fmt.Sprintf("portal returned status %d for %s", resp.StatusCode, req.URL.Path))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrFetch, "failed to read portal response")
	}
	return string(data), nil
}

func (c *Client) resolve(path string) *url.URL {
	return c.baseURL.ResolveReference(&url.URL{Path: path})
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")
}

// encodeCredentials builds the portal's "encoded" form field.
func encodeCredentials(account, secret string) string {
	return base64.StdEncoding.EncodeToString([]byte(account)) + "%%%" + base64.StdEncoding.EncodeToString([]byte(secret))
}

func isLoginPage(body string) bool {
	return strings.Contains(body, loginFormMarker)
}
