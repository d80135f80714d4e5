// Package directory serves the caller store to the host dialer as a
// directory source.
//
// The dialer asks three things, each as a content URI under the
// provider's authority:
//
//	content://<authority>/directories
//	content://<authority>/phone_lookup/<number>
//	content://<authority>/photo/primary_photo[?token=<t>]
//
// A phone lookup that finds a record with a photo advertises the photo URI
// with a fresh token, and the dialer fetches the bytes in a second call.
// The token ties that call to the lookup that produced it. A photo request
// without a token gets the photo of the most recent lookup instead; two
// interleaved lookups for different numbers race on that slot, last one
// wins, and a miss clears it.
//
// Nothing here returns an error or panics: the caller runs in the dialer's
// process, and any failure means "unknown caller".
package directory

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/roach88/callerid/internal/caller"
	"github.com/roach88/callerid/internal/photocache"
	"github.com/roach88/callerid/internal/token"
)

// URI paths under the authority.
const (
	PathDirectories  = "directories"
	PathPhoneLookup  = "phone_lookup"
	PathPrimaryPhoto = "photo/primary_photo"
)

const (
	defaultMaxTokens = 32
	tokenParam       = "token"
)

// Lookuper finds the record for an incoming number. It returns nil on a
// miss or any failure.
type Lookuper interface {
	Lookup(ctx context.Context, number string) *caller.Record
}

// PhotoResolver turns a photo blob into a file.
type PhotoResolver interface {
	Resolve(blob string) *photocache.Asset
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Config describes the directory to the dialer.
type Config struct {
	Authority      string
	AppName        string
	DefaultLabel   string
	TypeResourceID int
	// TokenTTL bounds how long an advertised photo URI stays valid.
	TokenTTL time.Duration
	// MaxTokens bounds the number of live photo tokens.
	MaxTokens int
	// LookupTimeout bounds each store lookup. Zero means no bound beyond
	// the caller's context.
	LookupTimeout time.Duration
}

type grant struct {
	photo   string
	expires time.Time
}

// Provider answers directory queries.
type Provider struct {
	cfg    Config
	lookup Lookuper
	photos PhotoResolver
	tokens token.Generator
	clock  Clock
	logger *slog.Logger

	mu      sync.Mutex
	current string
	grants  map[string]grant
	order   []string
}

// Option configures a Provider.
type Option func(*Provider)

// WithTokenGenerator overrides the UUIDv7 photo token generator.
func WithTokenGenerator(g token.Generator) Option {
	return func(p *Provider) { p.tokens = g }
}

// WithClock overrides the wall clock used for token expiry.
func WithClock(c Clock) Option {
	return func(p *Provider) { p.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Provider) { p.logger = l }
}

// New returns a provider over lookup and photos.
func New(cfg Config, lookup Lookuper, photos PhotoResolver, opts ...Option) *Provider {
	if cfg.DefaultLabel == "" {
		cfg.DefaultLabel = caller.DefaultLabel
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = photocache.DefaultTTL
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}

	p := &Provider{
		cfg:    cfg,
		lookup: lookup,
		photos: photos,
		tokens: token.UUIDv7Generator{},
		clock:  systemClock{},
		logger: slog.Default(),
		grants: make(map[string]grant),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("component", "directory")
	return p
}

// Authority returns the content authority the provider answers for.
func (p *Provider) Authority() string {
	return p.cfg.Authority
}

// Query dispatches a content URI to the matching query. Unknown or
// malformed URIs yield an empty cursor.
func (p *Provider) Query(ctx context.Context, uri string, projection []string) (cur *Cursor) {
	defer p.recoverQuery("query", projection, &cur)

	segments, _, ok := p.parse(uri)
	if !ok {
		p.logger.Warn("query for unknown uri", "uri", uri)
		return newCursor(projection)
	}

	switch {
	case len(segments) == 1 && segments[0] == PathDirectories:
		return p.Directories(projection)
	case len(segments) == 2 && segments[0] == PathPhoneLookup:
		return p.LookupPhone(ctx, segments[1], projection)
	default:
		p.logger.Warn("query for unknown uri", "uri", uri)
		return newCursor(projection)
	}
}

// Directories returns the single row describing this directory.
func (p *Provider) Directories(projection []string) (cur *Cursor) {
	if projection == nil {
		projection = DirectoryColumns
	}
	defer p.recoverQuery("directories", projection, &cur)

	cur = newCursor(projection)
	cur.addRow(func(col string) any {
		switch col {
		case ColAccountName, ColAccountType, ColDisplayName:
			return p.cfg.AppName
		case ColTypeResourceID:
			return p.cfg.TypeResourceID
		case ColExportSupport:
			return ExportSupportSameAccountOnly
		case ColShortcutSupport:
			return ShortcutSupportNone
		case ColPhotoSupport:
			return PhotoSupportFull
		default:
			return nil
		}
	})
	return cur
}

// LookupPhone resolves number to at most one row. A leading "+" is
// stripped. A miss returns no rows and clears the current photo.
func (p *Provider) LookupPhone(ctx context.Context, number string, projection []string) (cur *Cursor) {
	if projection == nil {
		projection = LookupColumns
	}
	defer p.recoverQuery("phone_lookup", projection, &cur)

	cur = newCursor(projection)
	number = caller.StripPlus(strings.TrimSpace(number))
	if number == "" {
		p.setCurrent("")
		return cur
	}

	if p.cfg.LookupTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.LookupTimeout)
		defer cancel()
	}

	rec := p.lookup.Lookup(ctx, number)
	if rec == nil {
		p.setCurrent("")
		return cur
	}

	p.setCurrent(rec.Photo)
	var photoURI any
	if rec.Photo != "" {
		photoURI = p.PhotoURI(p.grant(rec.Photo))
	}

	cur.addRow(func(col string) any {
		switch col {
		case ColID:
			return lookupRowID
		case ColLookupName:
			return rec.DisplayName()
		case ColLabel:
			return rec.Label(p.cfg.DefaultLabel)
		case ColNumber:
			return rec.FullPhoneNumber
		case ColNormalizedNumber:
			return rec.PhoneNumber
		case ColPhotoURI, ColPhotoThumbURI:
			return photoURI
		default:
			return nil
		}
	})
	return cur
}

// OpenAsset resolves a primary photo URI to a file, or nil.
func (p *Provider) OpenAsset(uri string) (asset *photocache.Asset) {
	defer p.recoverAsset(&asset)

	segments, query, ok := p.parse(uri)
	if !ok || strings.Join(segments, "/") != PathPrimaryPhoto {
		p.logger.Warn("asset request for unknown uri", "uri", uri)
		return nil
	}
	return p.PrimaryPhoto(query.Get(tokenParam))
}

// PrimaryPhoto returns the photo granted to tok. An empty tok falls back to
// the photo of the most recent lookup. Unknown or expired tokens get nil.
func (p *Provider) PrimaryPhoto(tok string) (asset *photocache.Asset) {
	defer p.recoverAsset(&asset)

	var photo string
	if tok == "" {
		photo = p.currentPhoto()
	} else {
		var ok bool
		photo, ok = p.redeem(tok)
		if !ok {
			p.logger.Debug("photo token not found", "token", tok)
			return nil
		}
	}
	if photo == "" {
		return nil
	}
	return p.photos.Resolve(photo)
}

// PhotoURI returns the content URI advertising the photo for tok.
func (p *Provider) PhotoURI(tok string) string {
	return fmt.Sprintf("content://%s/%s?%s=%s",
		p.cfg.Authority, PathPrimaryPhoto, tokenParam, url.QueryEscape(tok))
}

// parse checks scheme and authority and splits the path.
func (p *Provider) parse(uri string) ([]string, url.Values, bool) {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "content" || u.Host != p.cfg.Authority {
		return nil, nil, false
	}
	path := strings.Trim(u.Path, "/")
	if path == "" {
		return nil, nil, false
	}
	return strings.Split(path, "/"), u.Query(), true
}

func (p *Provider) setCurrent(photo string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = photo
}

func (p *Provider) currentPhoto() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// grant mints a token for photo, dropping expired tokens and the oldest
// ones beyond MaxTokens.
func (p *Provider) grant(photo string) string {
	tok := p.tokens.Generate()
	now := p.clock.Now()

	p.mu.Lock()
	defer p.mu.Unlock()

	p.pruneLocked(now)
	for len(p.order) >= p.cfg.MaxTokens {
		delete(p.grants, p.order[0])
		p.order = p.order[1:]
	}
	p.grants[tok] = grant{photo: photo, expires: now.Add(p.cfg.TokenTTL)}
	p.order = append(p.order, tok)
	return tok
}

// redeem returns the photo granted to tok. Tokens stay valid until they
// expire so the dialer may fetch the same photo more than once.
func (p *Provider) redeem(tok string) (string, bool) {
	now := p.clock.Now()

	p.mu.Lock()
	defer p.mu.Unlock()

	p.pruneLocked(now)
	g, ok := p.grants[tok]
	if !ok {
		return "", false
	}
	return g.photo, true
}

func (p *Provider) pruneLocked(now time.Time) {
	live := p.order[:0]
	for _, tok := range p.order {
		if now.After(p.grants[tok].expires) {
			delete(p.grants, tok)
			continue
		}
		live = append(live, tok)
	}
	p.order = live
}

// liveTokens returns the number of unexpired tokens. Used for testing.
func (p *Provider) liveTokens() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pruneLocked(p.clock.Now())
	return len(p.grants)
}

func (p *Provider) recoverQuery(op string, projection []string, cur **Cursor) {
	if r := recover(); r != nil {
		p.logger.Error("query panicked", "op", op, "panic", r)
		*cur = newCursor(projection)
	}
}

func (p *Provider) recoverAsset(asset **photocache.Asset) {
	if r := recover(); r != nil {
		p.logger.Error("asset request panicked", "panic", r)
		*asset = nil
	}
}
