// Package source turns a schema reference into a validated core.Schema. A
// reference is a snapshot or dump file, a stored connection profile written as
// @profile[/database], or a go-sql-driver DSN.
package source

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	driver "github.com/go-sql-driver/mysql"
	"golang.org/x/sync/errgroup"

	"github.com/doubleninth99/mysql-sync/internal/core"
	"github.com/doubleninth99/mysql-sync/internal/dialect"
	"github.com/doubleninth99/mysql-sync/internal/introspect"
	introspectmysql "github.com/doubleninth99/mysql-sync/internal/introspect/mysql"
	"github.com/doubleninth99/mysql-sync/internal/parser"
	"github.com/doubleninth99/mysql-sync/internal/profile"
)

// ErrUnknownReference is returned when a reference is neither a file, a saved
// profile nor a DSN.
var ErrUnknownReference = errors.New("unknown schema reference")

// Kind tells where a schema reference points.
type Kind int

const (
	KindFile    Kind = iota // schema dump file
	KindProfile             // saved connection profile
	KindDSN                 // raw MySQL DSN
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindProfile:
		return "profile"
	case KindDSN:
		return "dsn"
	default:
		return "unknown"
	}
}

// Reference is a classified schema reference.
type Reference struct {
	Raw      string
	Kind     Kind
	Path     string
	Profile  string
	Database string
	DSN      string
}

// String returns the reference with any DSN password masked, for logging.
func (r Reference) String() string {
	if r.Kind != KindDSN {
		return r.Raw
	}
	cfg, err := driver.ParseDSN(r.DSN)
	if err != nil {
		return "dsn"
	}
	return fmt.Sprintf("%s@%s(%s)/%s", cfg.User, cfg.Net, cfg.Addr, cfg.DBName)
}

// Resolve classifies ref. Profiles take precedence, then existing files and
// file names with a known extension, then DSNs.
func Resolve(ref string) (Reference, error) {
	ref = strings.TrimSpace(ref)
	r := Reference{Raw: ref}

	switch {
	case ref == "":
		return r, fmt.Errorf("%w: empty", ErrUnknownReference)
	case strings.HasPrefix(ref, "@"):
		name, db, _ := strings.Cut(ref[1:], "/")
		if name == "" {
			return r, fmt.Errorf("%w: %q has no profile name", ErrUnknownReference, ref)
		}
		r.Kind, r.Profile, r.Database = KindProfile, name, db
		return r, nil
	case isFile(ref) || parser.Supported(ref):
		r.Kind, r.Path = KindFile, ref
		return r, nil
	}

	if cfg, err := driver.ParseDSN(ref); err == nil {
		r.Kind, r.DSN, r.Database = KindDSN, ref, cfg.DBName
		return r, nil
	}
	return r, fmt.Errorf("%w: %q is not a file, @profile or DSN", ErrUnknownReference, ref)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// ProfileGetter looks up stored connection profiles.
type ProfileGetter interface {
	Get(idOrName string) (profile.Profile, error)
}

// Loader resolves and loads schema references.
type Loader struct {
	Profiles     ProfileGetter
	Introspecter introspect.Introspecter
	Logger       *slog.Logger
	// Open connects to a DSN; it defaults to the MySQL introspect Open.
	Open func(ctx context.Context, dsn string) (*sql.DB, error)
}

// NewLoader returns a Loader that introspects live databases with the MySQL
// introspecter. A nil logger discards output.
func NewLoader(profiles ProfileGetter, logger *slog.Logger) (*Loader, error) {
	i, err := introspect.NewIntrospecter(dialect.MySQL)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{
		Profiles:     profiles,
		Introspecter: i,
		Logger:       logger,
		Open:         introspectmysql.Open,
	}, nil
}

// Load returns the validated schema behind ref.
func (l *Loader) Load(ctx context.Context, ref string) (*core.Schema, error) {
	r, err := Resolve(ref)
	if err != nil {
		return nil, err
	}
	return l.LoadReference(ctx, r)
}

// LoadReference loads the schema behind an already resolved reference.
func (l *Loader) LoadReference(ctx context.Context, r Reference) (*core.Schema, error) {
	l.Logger.Debug("loading schema", "ref", r.String(), "kind", r.Kind.String())

	var (
		s   *core.Schema
		err error
	)
	switch r.Kind {
	case KindFile:
		s, err = parser.ParseFile(r.Path)
	case KindProfile:
		s, err = l.loadProfile(ctx, r)
	case KindDSN:
		s, err = l.introspect(ctx, r.DSN, r.Database)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownReference, r.Raw)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", r.String(), err)
	}

	if err := core.Validate(r.String(), s); err != nil {
		return nil, err
	}
	l.Logger.Info("schema loaded", "ref", r.String(), "tables", s.Tables.Len())
	return s, nil
}

func (l *Loader) loadProfile(ctx context.Context, r Reference) (*core.Schema, error) {
	if l.Profiles == nil {
		return nil, fmt.Errorf("no profile store configured")
	}
	p, err := l.Profiles.Get(r.Profile)
	if err != nil {
		return nil, err
	}
	database := r.Database
	if database == "" {
		database = p.Database
	}
	return l.introspect(ctx, p.DSN(database), database)
}

func (l *Loader) introspect(ctx context.Context, dsn, database string) (*core.Schema, error) {
	db, err := l.Open(ctx, dsn)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return l.Introspecter.Introspect(ctx, db, database)
}

// LoadPair loads source and target concurrently. The first failure cancels
// the other load.
func (l *Loader) LoadPair(ctx context.Context, sourceRef, targetRef string) (*core.Schema, *core.Schema, error) {
	var source, target *core.Schema

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := l.Load(gctx, sourceRef)
		if err != nil {
			return fmt.Errorf("source: %w", err)
		}
		source = s
		return nil
	})
	g.Go(func() error {
		s, err := l.Load(gctx, targetRef)
		if err != nil {
			return fmt.Errorf("target: %w", err)
		}
		target = s
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return source, target, nil
}
