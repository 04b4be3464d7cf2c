// Package elevation looks up terrain elevation from an Open-Meteo compatible
// HTTP API.
package elevation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/valyala/fasthttp"
	"golang.org/x/sync/singleflight"

	"github.com/samirrijal/ymaps2gpx/internal/core/domain"
	"github.com/samirrijal/ymaps2gpx/internal/core/ports"
	"github.com/samirrijal/ymaps2gpx/internal/pkg/logging"
	"github.com/samirrijal/ymaps2gpx/internal/pkg/metrics"
)

// Config tunes the client.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	BatchSize int
	CacheSize int
	CacheTTL  int // seconds, for the shared cache
}

// Client implements ports.ElevationService.
//
// Results are cached in process and, when a shared cache is supplied, in
// Valkey. Keys are coordinates rounded to five decimals (about a metre).
type Client struct {
	http      *fasthttp.Client
	baseURL   string
	timeout   time.Duration
	batchSize int
	ttl       int
	local     *lru.Cache[string, float64]
	shared    ports.CacheService
	group     singleflight.Group
}

type response struct {
	Elevation []float64 `json:"elevation"`
}

// New creates a Client. shared may be nil.
func New(cfg Config, shared ports.CacheService) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("elevation base url is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 10000
	}
	local, err := lru.New[string, float64](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("elevation cache: %w", err)
	}
	return &Client{
		http:      &fasthttp.Client{Name: "ymaps2gpx", ReadTimeout: cfg.Timeout, WriteTimeout: cfg.Timeout},
		baseURL:   cfg.BaseURL,
		timeout:   cfg.Timeout,
		batchSize: cfg.BatchSize,
		ttl:       cfg.CacheTTL,
		local:     local,
		shared:    shared,
	}, nil
}

// ElevationFor returns the elevation at one position.
func (c *Client) ElevationFor(ctx context.Context, lat, lon float64) (*float64, error) {
	out, err := c.lookup(ctx, []domain.GeoPoint{{Lat: lat, Lon: lon}})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// AddElevations sets the elevation of every track point in doc. With smooth
// set, each segment's profile is passed through a three-point moving
// average.
func (c *Client) AddElevations(ctx context.Context, doc *domain.TrackDocument, smooth bool) error {
	if doc == nil {
		return nil
	}

	var pts []domain.GeoPoint
	for _, t := range doc.Tracks {
		for _, s := range t.Segments {
			for _, p := range s.Points {
				pts = append(pts, domain.GeoPoint{Lat: p.Lat, Lon: p.Lon})
			}
		}
	}
	if len(pts) == 0 {
		return nil
	}

	values, err := c.lookup(ctx, pts)

	i := 0
	for ti := range doc.Tracks {
		for si := range doc.Tracks[ti].Segments {
			seg := doc.Tracks[ti].Segments[si].Points
			for pi := range seg {
				if v := values[i]; v != nil {
					seg[pi].SetElevation(*v)
				}
				i++
			}
			if smooth {
				Smooth(seg)
			}
		}
	}
	return err
}

// Smooth replaces each known elevation with the mean of itself and its
// known neighbours.
func Smooth(pts []domain.TrackPoint) {
	if len(pts) < 3 {
		return
	}
	orig := make([]*float64, len(pts))
	for i := range pts {
		if pts[i].Elevation != nil {
			v := *pts[i].Elevation
			orig[i] = &v
		}
	}
	for i := range pts {
		if orig[i] == nil {
			continue
		}
		sum, n := *orig[i], 1.0
		if i > 0 && orig[i-1] != nil {
			sum += *orig[i-1]
			n++
		}
		if i < len(pts)-1 && orig[i+1] != nil {
			sum += *orig[i+1]
			n++
		}
		pts[i].SetElevation(sum / n)
	}
}

// lookup resolves pts through the caches and the API. The result is aligned
// with pts; positions that could not be resolved are nil and reported in
// the error.
func (c *Client) lookup(ctx context.Context, pts []domain.GeoPoint) ([]*float64, error) {
	out := make([]*float64, len(pts))
	keys := make([]string, len(pts))
	var missing []int

	for i, p := range pts {
		keys[i] = cacheKey(p)
		if v, ok := c.local.Get(keys[i]); ok {
			metrics.CacheHits.WithLabelValues("lru").Inc()
			out[i] = &v
			continue
		}
		metrics.CacheMisses.WithLabelValues("lru").Inc()
		missing = append(missing, i)
	}

	missing = c.fromShared(ctx, keys, missing, out)
	if len(missing) == 0 {
		metrics.ElevationLookups.WithLabelValues("hit").Add(float64(len(pts)))
		return out, nil
	}
	metrics.ElevationLookups.WithLabelValues("hit").Add(float64(len(pts) - len(missing)))

	var (
		errs    []error
		fetched = map[string][]byte{}
	)
	for start := 0; start < len(missing); start += c.batchSize {
		end := min(start+c.batchSize, len(missing))
		batch := missing[start:end]

		batchPts := make([]domain.GeoPoint, len(batch))
		for j, idx := range batch {
			batchPts[j] = pts[idx]
		}

		values, err := c.fetchShared(ctx, batchPts)
		if err != nil && len(batch) > 1 {
			logging.FromContext(ctx).Warn("elevation batch failed, retrying point by point",
				"points", len(batch), "error", err)
			values, err = c.fetchEach(ctx, batchPts)
		}
		if err != nil {
			errs = append(errs, err)
		}

		for j, idx := range batch {
			if j >= len(values) || values[j] == nil {
				metrics.ElevationLookups.WithLabelValues("error").Inc()
				continue
			}
			v := *values[j]
			out[idx] = &v
			c.local.Add(keys[idx], v)
			fetched[keys[idx]] = []byte(strconv.FormatFloat(v, 'f', 2, 64))
			metrics.ElevationLookups.WithLabelValues("miss").Inc()
		}
	}

	if c.shared != nil && len(fetched) > 0 {
		if err := c.shared.SetMany(ctx, fetched, c.ttl); err != nil {
			logging.FromContext(ctx).Warn("elevation cache write failed", "error", err)
		}
	}
	return out, errors.Join(errs...)
}

// fromShared fills out from the shared cache and returns the indexes still
// missing.
func (c *Client) fromShared(ctx context.Context, keys []string, missing []int, out []*float64) []int {
	if c.shared == nil || len(missing) == 0 {
		return missing
	}
	want := make([]string, len(missing))
	for j, idx := range missing {
		want[j] = keys[idx]
	}
	got, err := c.shared.GetMany(ctx, want)
	if err != nil {
		logging.FromContext(ctx).Warn("elevation cache read failed", "error", err)
		return missing
	}

	var still []int
	for j, idx := range missing {
		if j < len(got) && got[j] != nil {
			if v, err := strconv.ParseFloat(string(got[j]), 64); err == nil {
				metrics.CacheHits.WithLabelValues("valkey").Inc()
				out[idx] = &v
				c.local.Add(keys[idx], v)
				continue
			}
		}
		metrics.CacheMisses.WithLabelValues("valkey").Inc()
		still = append(still, idx)
	}
	return still
}

// fetchShared collapses concurrent identical requests into one.
func (c *Client) fetchShared(ctx context.Context, pts []domain.GeoPoint) ([]*float64, error) {
	key := batchKey(pts)
	v, err, _ := c.group.Do(key, func() (any, error) {
		return c.fetch(ctx, pts)
	})
	if err != nil {
		return nil, err
	}
	return v.([]*float64), nil
}

func (c *Client) fetchEach(ctx context.Context, pts []domain.GeoPoint) ([]*float64, error) {
	out := make([]*float64, len(pts))
	var errs []error
	for i, p := range pts {
		v, err := c.fetchShared(ctx, []domain.GeoPoint{p})
		if err != nil {
			errs = append(errs, fmt.Errorf("elevation at %.5f,%.5f: %w", p.Lat, p.Lon, err))
			continue
		}
		out[i] = v[0]
	}
	return out, errors.Join(errs...)
}

func (c *Client) fetch(ctx context.Context, pts []domain.GeoPoint) ([]*float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lats := make([]string, len(pts))
	lons := make([]string, len(pts))
	for i, p := range pts {
		lats[i] = strconv.FormatFloat(p.Lat, 'f', 5, 64)
		lons[i] = strconv.FormatFloat(p.Lon, 'f', 5, 64)
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	args := req.URI().QueryArgs()
	args.Add("latitude", strings.Join(lats, ","))
	args.Add("longitude", strings.Join(lons, ","))

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	start := time.Now()
	err := c.http.DoDeadline(req, resp, deadline)
	metrics.ElevationRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("elevation request: %w", err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("elevation api: HTTP %d", resp.StatusCode())
	}

	var body response
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("decode elevation: %w", err)
	}
	if len(body.Elevation) != len(pts) {
		return nil, fmt.Errorf("elevation api returned %d values for %d points", len(body.Elevation), len(pts))
	}

	out := make([]*float64, len(pts))
	for i, v := range body.Elevation {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		e := v
		out[i] = &e
	}
	return out, nil
}

func cacheKey(p domain.GeoPoint) string {
	return "ele:" + strconv.FormatFloat(p.Lat, 'f', 5, 64) + "," + strconv.FormatFloat(p.Lon, 'f', 5, 64)
}

func batchKey(pts []domain.GeoPoint) string {
	var b strings.Builder
	for i, p := range pts {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(cacheKey(p))
	}
	return b.String()
}
