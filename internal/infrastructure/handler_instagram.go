package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/samber/mo"
	"github.com/yourusername/dwhelper-go/internal/domain"
	"go.uber.org/zap"
)

var (
	instagramURLPattern = regexp.MustCompile(`(?i)(instagram\.com|instagr\.am)/(p|reel|reels|tv)/`)
	embeddedVideoURL    = regexp.MustCompile(`"video_url"\s*:\s*("(?:[^"\\]|\\.)*")`)
)

// instagramMedia is what a successful variant yields
type instagramMedia struct {
	VideoURL string
	Username string
	Title    string
}

// instagramVariant is one URL derived from the canonical post URL, with the
// parser that understands its response
type instagramVariant struct {
	name  string
	url   string
	parse func(body []byte) mo.Option[instagramMedia]
}

// InstagramHandler resolves photo/video sharing posts through URL variants
type InstagramHandler struct {
	client   *http.Client
	config   *domain.InstagramConfig
	fallback *GenericHandler
	logger   *zap.Logger
	sleep    func(ctx context.Context, d time.Duration)
	now      func() time.Time
}

// NewInstagramHandler creates a new photo/video sharing handler. fallback may be nil.
func NewInstagramHandler(client *http.Client, config *domain.InstagramConfig, fallback *GenericHandler, logger *zap.Logger) *InstagramHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstagramHandler{
		client:   client,
		config:   config,
		fallback: fallback,
		logger:   logger.With(zap.String("handler", string(domain.HandlerInstagram))),
		sleep:    sleepContext,
		now:      time.Now,
	}
}

// Kind returns the handler variant
func (h *InstagramHandler) Kind() domain.HandlerKind {
	return domain.HandlerInstagram
}

// CanHandle matches canonical post and reel paths
func (h *InstagramHandler) CanHandle(rawURL string) bool {
	return instagramURLPattern.MatchString(rawURL)
}

// ExtractInfo tries each URL variant in order until one yields a video asset
func (h *InstagramHandler) ExtractInfo(ctx context.Context, rawURL string) *domain.VideoRecord {
	record := domain.NewVideoRecord(rawURL)

	clean, err := h.canonicalURL(rawURL)
	if err != nil {
		record.MarkFailed(fmt.Sprintf("invalid post url: %v", err))
		return record
	}

	for i, variant := range h.variants(clean) {
		if i > 0 {
			h.sleep(ctx, h.config.VariantDelay)
		}

		media := h.tryVariant(ctx, variant)
		if media.IsAbsent() {
			continue
		}

		m := media.MustGet()
		if m.Title != "" {
			record.Title = m.Title
		} else {
			record.Title = fmt.Sprintf("ig_%d", h.now().UnixMilli())
		}
		if m.Username != "" {
			record.Username = m.Username
		}
		record.MarkResolvedWithLink("instagram_"+variant.name, m.VideoURL)
		h.logger.Info("Direct link found",
			zap.String("url", rawURL),
			zap.String("variant", variant.name))
		return record
	}

	record.MarkFailed("methods exhausted")
	return record
}

// PerformDownload delegates to the generic extractor with a platform-tuned format
func (h *InstagramHandler) PerformDownload(ctx context.Context, record *domain.VideoRecord, folder string) domain.Outcome {
	if h.fallback == nil {
		return domain.Failed(domain.KindNotSupported, "instagram: no download mechanism without a direct link")
	}
	return h.fallback.download(ctx, record, folder, h.config.Format)
}

func (h *InstagramHandler) variants(clean string) []instagramVariant {
	return []instagramVariant{
		{name: "graphql", url: clean + "/?__a=1&__d=dis", parse: parseInstagramJSON},
		{name: "embed", url: clean + "/embed", parse: parseInstagramEmbed},
		{name: "graphql_legacy", url: clean + "/?__a=1", parse: parseInstagramJSON},
	}
}

// canonicalURL strips query, fragment and trailing slash, applying the
// configured base URL override
func (h *InstagramHandler) canonicalURL(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", err
	}
	if h.config.BaseURL != "" {
		base, err := url.Parse(h.config.BaseURL)
		if err != nil {
			return "", err
		}
		u.Scheme = base.Scheme
		u.Host = base.Host
	}
	u.RawQuery = ""
	u.Fragment = ""
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	return u.String(), nil
}

// tryVariant performs one variant request. Any error means "try the next one".
func (h *InstagramHandler) tryVariant(ctx context.Context, variant instagramVariant) mo.Option[instagramMedia] {
	reqCtx := WithAttemptTimeout(ctx, boundedTimeout(h.config.RequestTimeout, 14*time.Second))

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, variant.url, nil)
	if err != nil {
		h.logger.Debug("Failed to build variant request", zap.String("variant", variant.name), zap.Error(err))
		return mo.None[instagramMedia]()
	}

	resp, err := h.client.Do(req)
	if err != nil {
		h.logger.Debug("Variant request failed", zap.String("variant", variant.name), zap.Error(err))
		return mo.None[instagramMedia]()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		h.logger.Debug("Variant returned non-200",
			zap.String("variant", variant.name),
			zap.Int("status", resp.StatusCode))
		return mo.None[instagramMedia]()
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxServiceBodyBytes))
	if err != nil || len(bytes.TrimSpace(body)) == 0 {
		return mo.None[instagramMedia]()
	}
	return variant.parse(body)
}

type instagramJSON struct {
	GraphQL *struct {
		ShortcodeMedia *struct {
			VideoURL string `json:"video_url"`
			Title    string `json:"title"`
			Owner    struct {
				Username string `json:"username"`
			} `json:"owner"`
		} `json:"shortcode_media"`
	} `json:"graphql"`
	Items []struct {
		VideoVersions []struct {
			URL string `json:"url"`
		} `json:"video_versions"`
		User struct {
			Username string `json:"username"`
		} `json:"user"`
	} `json:"items"`
}

// parseInstagramJSON understands the graphql shortcode_media shape and the
// newer items/video_versions shape
func parseInstagramJSON(body []byte) mo.Option[instagramMedia] {
	var data instagramJSON
	if err := json.Unmarshal(body, &data); err != nil {
		return mo.None[instagramMedia]()
	}

	if data.GraphQL != nil && data.GraphQL.ShortcodeMedia != nil && data.GraphQL.ShortcodeMedia.VideoURL != "" {
		media := data.GraphQL.ShortcodeMedia
		return mo.Some(instagramMedia{
			VideoURL: media.VideoURL,
			Username: media.Owner.Username,
			Title:    media.Title,
		})
	}

	if len(data.Items) > 0 && len(data.Items[0].VideoVersions) > 0 && data.Items[0].VideoVersions[0].URL != "" {
		item := data.Items[0]
		return mo.Some(instagramMedia{
			VideoURL: item.VideoVersions[0].URL,
			Username: item.User.Username,
		})
	}

	return mo.None[instagramMedia]()
}

// parseInstagramEmbed reads the embed page HTML
func parseInstagramEmbed(body []byte) mo.Option[instagramMedia] {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return mo.None[instagramMedia]()
	}

	videoURL, _ := doc.Find("video[src]").First().Attr("src")
	if videoURL == "" {
		videoURL, _ = doc.Find(`meta[property="og:video"], meta[property="og:video:secure_url"]`).First().Attr("content")
	}
	if videoURL == "" {
		doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			m := embeddedVideoURL.FindStringSubmatch(s.Text())
			if m == nil {
				return true
			}
			var unquoted string
			if json.Unmarshal([]byte(m[1]), &unquoted) == nil {
				videoURL = unquoted
			}
			return videoURL == ""
		})
	}
	if videoURL == "" {
		return mo.None[instagramMedia]()
	}

	username := strings.TrimSpace(doc.Find(".UsernameText").First().Text())
	return mo.Some(instagramMedia{VideoURL: videoURL, Username: username})
}
