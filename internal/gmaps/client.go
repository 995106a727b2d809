// 包 gmaps：Google Geocoding REST 客户端，按坐标反查街道名
package gmaps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"tree-adopt/internal/geofence"
	"tree-adopt/internal/logger"
	"tree-adopt/internal/metrics"
)

const DefaultBaseURL = "https://maps.googleapis.com"

var (
	ErrMissingKey = errors.New("missing google maps api key")
	// ErrNoResult 接口正常返回但无可用地址（ZERO_RESULTS 等）
	ErrNoResult = errors.New("no geocoding result")
)

// 文档注释：Google Geocoding 响应结构
// 背景：仅解析反查街道名需要的字段；status/error_message 用于错误判定与日志。
type Response struct {
	Status       string   `json:"status"`
	ErrorMessage string   `json:"error_message"`
	Results      []Result `json:"results"`
}

type Result struct {
	FormattedAddress  string      `json:"formatted_address"`
	AddressComponents []Component `json:"address_components"`
	Types             []string    `json:"types"`
}

type Component struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

func (c Component) has(t string) bool {
	for _, x := range c.Types {
		if x == t {
			return true
		}
	}
	return false
}

// 文档注释：Google 反地理编码客户端
// 约束：Key 必填；Language 为空时使用 el；HTTP 为空时使用 5s 超时的默认客户端。
type Client struct {
	Key      string
	Language string
	BaseURL  string
	HTTP     *http.Client
}

func NewClient(key, language string, client *http.Client) *Client {
	return &Client{Key: key, Language: language, BaseURL: DefaultBaseURL, HTTP: client}
}

// 文档注释：按坐标查询地址（REST）
// 参数：ctx 控制超时与取消；lat/lng 为 WGS84 度。
// 返回：status 为 OK 且有结果时返回响应；ZERO_RESULTS 或空结果返回 ErrNoResult；其余状态、非 2xx、解析失败返回 error。
func (c *Client) Reverse(ctx context.Context, lat, lng float64) (*Response, error) {
	if c.Key == "" {
		return nil, ErrMissingKey
	}
	lang := c.Language
	if lang == "" {
		lang = "el"
	}
	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	q := url.Values{}
	q.Set("latlng", strconv.FormatFloat(lat, 'f', -1, 64)+","+strconv.FormatFloat(lng, 'f', -1, 64))
	q.Set("key", c.Key)
	q.Set("language", lang)
	u := base + "/maps/api/geocode/json?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	client := c.HTTP
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	t0 := time.Now()
	metrics.GeocodeRequestsTotal.Inc()
	logger.L().Debug("gmaps_req", "lat", lat, "lng", lng)
	resp, err := client.Do(req)
	if err != nil {
		err = redactURL(err)
		logger.L().Error("gmaps_http_error", "err", err)
		metrics.GeocodeFailTotal.Inc()
		return nil, err
	}
	defer resp.Body.Close()
	metrics.GeocodeDurationMs.Observe(float64(time.Since(t0).Milliseconds()))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.L().Error("gmaps_http_status", "status", resp.StatusCode)
		metrics.GeocodeFailTotal.Inc()
		return nil, fmt.Errorf("gmaps: http status %d", resp.StatusCode)
	}
	var r Response
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		logger.L().Error("gmaps_decode_error", "err", err)
		metrics.GeocodeFailTotal.Inc()
		return nil, err
	}
	logger.L().Debug("gmaps_resp", "status", r.Status, "results", len(r.Results), "duration_ms", time.Since(t0).Milliseconds())
	if r.Status == "ZERO_RESULTS" || (r.Status == "OK" && len(r.Results) == 0) {
		metrics.GeocodeFailTotal.Inc()
		return &r, ErrNoResult
	}
	if r.Status != "OK" {
		logger.L().Warn("gmaps_status", "status", r.Status, "error_message", r.ErrorMessage)
		metrics.GeocodeFailTotal.Inc()
		return &r, fmt.Errorf("gmaps: status %s: %s", r.Status, r.ErrorMessage)
	}
	metrics.GeocodeSuccessTotal.Inc()
	return &r, nil
}

// redactURL 去掉 *url.Error 中携带 key 的完整请求地址，保留操作名与底层原因
func redactURL(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return fmt.Errorf("gmaps: %s geocode request: %w", ue.Op, ue.Err)
	}
	return err
}

// 文档注释：从结果中提取街道名
// 约束：优先第一个含 route 组件的结果，格式 “街道 门牌号” 或 “街道”；都没有 route 时回退到首个结果的 formatted_address。
func StreetName(r *Response) string {
	if r == nil || len(r.Results) == 0 {
		return ""
	}
	for _, res := range r.Results {
		var route, number string
		for _, c := range res.AddressComponents {
			if route == "" && c.has("route") {
				route = c.LongName
			}
			if number == "" && c.has("street_number") {
				number = c.LongName
			}
		}
		if route != "" {
			if number != "" {
				return route + " " + number
			}
			return route
		}
	}
	return r.Results[0].FormattedAddress
}

// ReverseGeocode 实现 roads.Geocoder
func (c *Client) ReverseGeocode(ctx context.Context, pt geofence.Point) (string, error) {
	r, err := c.Reverse(ctx, pt.Lat, pt.Lng)
	if err != nil {
		if errors.Is(err, ErrNoResult) {
			return "", nil
		}
		return "", err
	}
	return StreetName(r), nil
}
