package infrastructure

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/samber/mo"
	"github.com/yourusername/dwhelper-go/internal/domain"
	"go.uber.org/zap"
)

var tiktokURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)tiktok\.com/@[^/]+/video/`),
	regexp.MustCompile(`(?i)tiktok\.com/t/`),
	regexp.MustCompile(`(?i)vm\.tiktok\.com/`),
	regexp.MustCompile(`(?i)vt\.tiktok\.com/`),
}

const maxServiceBodyBytes = 8 << 20

// resolverService is one third-party endpoint able to turn a video page URL into
// a response that mentions a direct media link
type resolverService interface {
	Name() string
	NewRequest(ctx context.Context, videoURL string) (*http.Request, error)
}

// ssstikService posts the page URL as a form
type ssstikService struct {
	endpoint string
}

func (s ssstikService) Name() string { return "ssstik" }

func (s ssstikService) NewRequest(ctx context.Context, videoURL string) (*http.Request, error) {
	form := url.Values{}
	form.Set("id", videoURL)
	form.Set("locale", "en")
	form.Set("tt", randomID(9))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req, nil
}

// tikwmService queries a JSON API with the page URL
type tikwmService struct {
	endpoint string
}

func (s tikwmService) Name() string { return "tikwm" }

func (s tikwmService) NewRequest(ctx context.Context, videoURL string) (*http.Request, error) {
	u, err := url.Parse(s.endpoint)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("url", videoURL)
	q.Set("hd", "1")
	u.RawQuery = q.Encode()
	return http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
}

// TikTokHandler resolves short-form video pages through third-party services
type TikTokHandler struct {
	client   *http.Client
	config   *domain.TikTokConfig
	services []resolverService
	fallback *GenericHandler
	logger   *zap.Logger
	sleep    func(ctx context.Context, d time.Duration)
	now      func() time.Time
}

// NewTikTokHandler creates a new short-form video handler. fallback may be nil,
// in which case PerformDownload reports the platform as unsupported.
func NewTikTokHandler(client *http.Client, config *domain.TikTokConfig, fallback *GenericHandler, logger *zap.Logger) *TikTokHandler {
	var services []resolverService
	if config.SsstikEndpoint != "" {
		services = append(services, ssstikService{endpoint: config.SsstikEndpoint})
	}
	if config.TikwmEndpoint != "" {
		services = append(services, tikwmService{endpoint: config.TikwmEndpoint})
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TikTokHandler{
		client:   client,
		config:   config,
		services: services,
		fallback: fallback,
		logger:   logger.With(zap.String("handler", string(domain.HandlerTikTok))),
		sleep:    sleepContext,
		now:      time.Now,
	}
}

// Kind returns the handler variant
func (h *TikTokHandler) Kind() domain.HandlerKind {
	return domain.HandlerTikTok
}

// CanHandle matches canonical video paths and short-link redirectors
func (h *TikTokHandler) CanHandle(rawURL string) bool {
	for _, p := range tiktokURLPatterns {
		if p.MatchString(rawURL) {
			return true
		}
	}
	return false
}

// ExtractInfo runs the bounded retry loop over the candidate services
func (h *TikTokHandler) ExtractInfo(ctx context.Context, rawURL string) *domain.VideoRecord {
	record := domain.NewVideoRecord(rawURL)

	attempts := h.config.Attempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		userAgent := randomUserAgent()

		for _, service := range h.services {
			link := h.tryService(ctx, service, rawURL, userAgent)
			if link.IsAbsent() {
				continue
			}
			record.Title = fmt.Sprintf("tiktok_%d", h.now().UnixMilli())
			record.MarkResolvedWithLink("tiktok_"+service.Name(), link.MustGet())
			h.logger.Info("Direct link found",
				zap.String("url", rawURL),
				zap.String("service", service.Name()),
				zap.Int("attempt", attempt))
			return record
		}

		if attempt < attempts {
			delay := h.jitter()
			h.logger.Debug("No service matched, backing off",
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay))
			h.sleep(ctx, delay)
		}
	}

	record.MarkFailed("all methods failed")
	return record
}

// tryService performs one candidate call. Any error means "try the next one".
func (h *TikTokHandler) tryService(ctx context.Context, service resolverService, videoURL, userAgent string) mo.Option[string] {
	reqCtx := WithAttemptTimeout(ctx, boundedTimeout(h.config.RequestTimeout, 18*time.Second))

	req, err := service.NewRequest(reqCtx, videoURL)
	if err != nil {
		h.logger.Debug("Failed to build service request", zap.String("service", service.Name()), zap.Error(err))
		return mo.None[string]()
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", "https://www.tiktok.com/")

	resp, err := h.client.Do(req)
	if err != nil {
		h.logger.Debug("Service request failed", zap.String("service", service.Name()), zap.Error(err))
		return mo.None[string]()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		h.logger.Debug("Service returned non-200",
			zap.String("service", service.Name()),
			zap.Int("status", resp.StatusCode))
		return mo.None[string]()
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxServiceBodyBytes))
	if err != nil {
		h.logger.Debug("Failed to read service response", zap.String("service", service.Name()), zap.Error(err))
		return mo.None[string]()
	}

	return firstAcceptableLink(body, h.config.MinLinkLength)
}

// PerformDownload delegates to the generic extractor with a platform-tuned format
func (h *TikTokHandler) PerformDownload(ctx context.Context, record *domain.VideoRecord, folder string) domain.Outcome {
	if h.fallback == nil {
		return domain.Failed(domain.KindNotSupported, "tiktok: no download mechanism without a direct link")
	}
	return h.fallback.download(ctx, record, folder, h.config.Format)
}

func (h *TikTokHandler) jitter() time.Duration {
	low, high := h.config.BackoffMin, h.config.BackoffMax
	if high <= low {
		return low
	}
	return low + time.Duration(rand.Int63n(int64(high-low)))
}

// sleepContext waits for d or until ctx is done
func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

const idAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func randomID(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = idAlphabet[rand.Intn(len(idAlphabet))]
	}
	return string(b)
}
