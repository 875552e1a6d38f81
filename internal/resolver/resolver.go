// Package resolver optionally enriches a finished report: A-record
// resolution against public resolvers and batch ASN lookups.
package resolver

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/miekg/dns"
	"golang.org/x/sync/errgroup"

	"reconx/internal/platform/logx"
)

// Resolver answers A-record queries against a fixed set of public
// nameservers, rotating on failure.
type Resolver struct {
	client  *dns.Client
	servers []string
	logger  logx.Logger

	// Parallel bounds concurrent queries.
	Parallel int

	// exchange performs one query against one server, injectable for
	// tests.
	exchange func(ctx context.Context, msg *dns.Msg, server string) (*dns.Msg, time.Duration, error)
}

// New creates a resolver backed by well-known public resolvers.
func New(logger logx.Logger) *Resolver {
	client := &dns.Client{
		Timeout: 5 * time.Second,
	}
	return &Resolver{
		client:   client,
		servers:  []string{"8.8.8.8:53", "1.1.1.1:53"},
		logger:   logger.With("component", "resolver"),
		Parallel: 16,
		exchange: client.ExchangeContext,
	}
}

// ResolveAll resolves every name to its A records. Names that do not
// resolve map to an empty list; resolution failures never fail the call.
func (r *Resolver) ResolveAll(ctx context.Context, names []string) map[string][]string {
	results := make(map[string][]string, len(names))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.Parallel)

	for _, name := range names {
		name := name
		g.Go(func() error {
			ips := r.resolve(gctx, name)
			mu.Lock()
			results[name] = ips
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
	return results
}

func (r *Resolver) resolve(ctx context.Context, name string) []string {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(name), dns.TypeA)
	msg.RecursionDesired = true

	for _, server := range r.servers {
		reply, _, err := r.exchange(ctx, msg, server)
		if err != nil {
			r.logger.Debug("dns query failed", "name", name, "server", server, "error", err.Error())
			continue
		}
		if reply.Rcode != dns.RcodeSuccess {
			// NXDOMAIN and friends are definitive; no point asking the
			// next server.
			return nil
		}

		var ips []string
		for _, rr := range reply.Answer {
			if a, ok := rr.(*dns.A); ok {
				ips = append(ips, a.A.String())
			}
		}
		sort.Strings(ips)
		return ips
	}

	return nil
}
