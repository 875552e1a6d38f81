package resolver

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"

	"reconx/internal/platform/httpclient"
	"reconx/internal/platform/logx"
)

// asnBatchURL is the ip-api batch endpoint; it accepts up to 100
// addresses per request.
const asnBatchURL = "http://ip-api.com/batch?fields=query,status,message,as,org"

const asnBatchSize = 100

// ASNInfo is the ownership info for one address.
type ASNInfo struct {
	ASN string `json:"asn"`
	Org string `json:"org"`
}

// ASNLookup batch-resolves ASN info for public addresses, backed by a
// small on-disk cache so repeated runs avoid re-querying.
type ASNLookup struct {
	client    *httpclient.Client
	logger    logx.Logger
	cachePath string
}

// NewASNLookup creates a lookup with its cache under cacheDir ("" keeps
// the cache in memory only).
func NewASNLookup(client *httpclient.Client, logger logx.Logger, cacheDir string) *ASNLookup {
	path := ""
	if cacheDir != "" {
		path = filepath.Join(cacheDir, "asn_cache.json")
	}
	return &ASNLookup{
		client:    client,
		logger:    logger.With("component", "asn"),
		cachePath: path,
	}
}

// Lookup returns ASN info for every address it can attribute. Private
// and malformed addresses are skipped; query failures leave gaps rather
// than failing the call.
func (l *ASNLookup) Lookup(ctx context.Context, ips []string) map[string]ASNInfo {
	cache := l.loadCache()
	results := make(map[string]ASNInfo)

	var pending []string
	for _, ip := range ips {
		if info, ok := cache[ip]; ok {
			results[ip] = info
			continue
		}
		if isGlobalIP(ip) {
			pending = append(pending, ip)
		}
	}

	if len(pending) == 0 {
		return results
	}

	l.logger.Info("looking up ASN info", "addresses", len(pending))

	for start := 0; start < len(pending); start += asnBatchSize {
		end := start + asnBatchSize
		if end > len(pending) {
			end = len(pending)
		}
		l.queryBatch(ctx, pending[start:end], results, cache)
	}

	l.saveCache(cache)
	return results
}

func (l *ASNLookup) queryBatch(ctx context.Context, batch []string, results, cache map[string]ASNInfo) {
	body, err := json.Marshal(batch)
	if err != nil {
		return
	}

	resp, err := l.client.Post(ctx, asnBatchURL, "application/json", bytes.NewReader(body))
	if err != nil {
		l.logger.Warn("asn batch query failed", "error", err.Error())
		return
	}

	payload, err := httpclient.ReadBody(resp)
	if err != nil || resp.StatusCode != 200 {
		l.logger.Warn("asn batch response unusable", "status", resp.StatusCode)
		return
	}

	var items []struct {
		Query   string `json:"query"`
		Status  string `json:"status"`
		Message string `json:"message"`
		AS      string `json:"as"`
		Org     string `json:"org"`
	}
	if err := json.Unmarshal(payload, &items); err != nil {
		l.logger.Warn("asn batch response not parseable", "error", err.Error())
		return
	}

	for _, item := range items {
		if item.Status != "success" || item.Query == "" {
			continue
		}
		info := ASNInfo{ASN: item.AS, Org: item.Org}
		results[item.Query] = info
		cache[item.Query] = info
	}
}

func (l *ASNLookup) loadCache() map[string]ASNInfo {
	cache := make(map[string]ASNInfo)
	if l.cachePath == "" {
		return cache
	}
	raw, err := os.ReadFile(l.cachePath)
	if err != nil {
		return cache
	}
	if err := json.Unmarshal(raw, &cache); err != nil {
		l.logger.Warn("asn cache unreadable, starting fresh")
		return make(map[string]ASNInfo)
	}
	return cache
}

func (l *ASNLookup) saveCache(cache map[string]ASNInfo) {
	if l.cachePath == "" || len(cache) == 0 {
		return
	}
	if err := os.MkdirAll(filepath.Dir(l.cachePath), 0o755); err != nil {
		return
	}
	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return
	}
	if err := os.WriteFile(l.cachePath, data, 0o644); err != nil {
		l.logger.Warn("cannot persist asn cache", "error", err.Error())
	}
}

func isGlobalIP(s string) bool {
	ip := net.ParseIP(s)
	if ip == nil {
		return false
	}
	return !(ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() || ip.IsMulticast() || ip.IsUnspecified())
}
