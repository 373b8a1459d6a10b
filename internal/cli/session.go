package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/vijay-prabhu/tageval/internal/config"
	"github.com/vijay-prabhu/tageval/internal/database"
	"github.com/vijay-prabhu/tageval/internal/logging"
	"github.com/vijay-prabhu/tageval/internal/profile"
	"github.com/vijay-prabhu/tageval/internal/source"
	"github.com/vijay-prabhu/tageval/internal/source/command"
	"github.com/vijay-prabhu/tageval/internal/source/e621"
)

// session is an opened database and, for profile commands, the loaded
// profile. The profile is saved when the session closes.
type session struct {
	cfg     *config.Config
	db      *database.DB
	term    *Terminal
	profile *profile.Profile
}

// openDatabase loads the configuration and opens the database only
func openDatabase() (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &session{cfg: cfg, db: db, term: NewTerminal()}, nil
}

// openSession opens the database and loads the profile. When no usable
// profile exists the user is offered to create one.
func openSession(ctx context.Context) (*session, error) {
	s, err := openDatabase()
	if err != nil {
		return nil, err
	}

	p, err := s.loadProfile(ctx)
	if err != nil && needsNewProfile(err) {
		p, err = s.offerNewProfile(ctx, err)
	}
	if err != nil {
		s.db.Close()
		return nil, err
	}

	s.profile = p
	return s, nil
}

func (s *session) loadProfile(ctx context.Context) (*profile.Profile, error) {
	creds, err := config.LoadCredentials(s.cfg.Credentials.Path)
	if err != nil {
		return nil, err
	}

	tables, err := s.db.LoadTables(ctx)
	if err != nil {
		return nil, err
	}

	src, err := newSource(s.cfg, s.term)
	if err != nil {
		return nil, err
	}

	p, err := profile.FromTables(tables, src, creds, profileOptions(s.cfg)...)
	if err != nil {
		return nil, err
	}

	logging.Debug().Str("source", src.Name()).Str("user", creds.Username).Msg("profile loaded")
	return p, nil
}

func needsNewProfile(err error) bool {
	return errors.Is(err, database.ErrNoProfile) ||
		errors.Is(err, profile.ErrCorruptProfile) ||
		errors.Is(err, config.ErrMissingCredentials)
}

func (s *session) offerNewProfile(ctx context.Context, cause error) (*profile.Profile, error) {
	if !s.term.Interactive {
		return nil, fmt.Errorf("%w (run 'tageval init' to create a profile)", cause)
	}

	s.term.Status(ColorYellow, fmt.Sprintf("Could not load profile: %v", cause))
	prompt := newPrompter()
	ok, err := prompt.confirm("Create a new profile?")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, cause
	}

	creds, err := prompt.credentials("")
	if err != nil {
		return nil, err
	}
	return s.createProfile(ctx, creds)
}

// createProfile stores the credentials and an empty profile
func (s *session) createProfile(ctx context.Context, creds source.Credentials) (*profile.Profile, error) {
	if err := config.SaveCredentials(s.cfg.Credentials.Path, creds); err != nil {
		return nil, err
	}

	src, err := newSource(s.cfg, s.term)
	if err != nil {
		return nil, err
	}

	p := profile.New(src, creds, profileOptions(s.cfg)...)
	if err := s.db.SaveTables(ctx, p.Tables()); err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}
	// Cached posts belong to the replaced profile
	if err := s.db.SaveRawPosts(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to clear cached posts: %w", err)
	}

	s.term.Status(ColorGreen, fmt.Sprintf("Created profile for %s", creds.Username))
	return p, nil
}

// close saves the profile, if loaded, and closes the database
func (s *session) close(ctx context.Context) error {
	var errs []error

	if s.profile != nil {
		// Save even when the command itself was interrupted
		ctx = context.WithoutCancel(ctx)
		if err := s.db.SaveTables(ctx, s.profile.Tables()); err != nil {
			errs = append(errs, fmt.Errorf("failed to save profile: %w", err))
		} else {
			logging.Debug().Msg("profile saved")
		}
	}

	if err := s.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close database: %w", err))
	}

	return errors.Join(errs...)
}

func profileOptions(cfg *config.Config) []profile.Option {
	return []profile.Option{profile.WithHistoryPageLimit(cfg.Source.PageLimit)}
}

// newSource builds the configured post source
func newSource(cfg *config.Config, t *Terminal) (source.Source, error) {
	switch cfg.Source.Kind {
	case config.SourceCommand:
		return command.New(cfg.Source.Command)
	case config.SourceE621:
		return e621.New(
			e621.WithBaseURL(cfg.Source.BaseURL),
			e621.WithUserAgent(cfg.Source.UserAgent),
			e621.WithTimeout(cfg.Source.TimeoutDuration()),
			e621.WithRequestInterval(cfg.Source.RequestIntervalDuration()),
			e621.WithTagCategories(cfg.Source.TagCategories),
			e621.WithProgress(t.PageProgress),
		), nil
	default:
		return nil, fmt.Errorf("unknown source kind: %s", cfg.Source.Kind)
	}
}
